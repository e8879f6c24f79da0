package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stream-chat-service/internal/mocks"
)

func TestBuildHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"x-request-id": "r1", "trace_id": "t1"}, BuildHeaders("r1", "t1"))
	assert.Empty(t, BuildHeaders("", ""))
}

func TestPublishEventUsesInstalledPublisher(t *testing.T) {
	t.Cleanup(func() { SetPublisher(nil) })
	require.NoError(t, PublishEvent(context.Background(), "ws_events.streams", EventEnvelope{}, nil))

	publisher := new(mocks.PublisherMock)
	SetPublisher(publisher)
	envelope := EventEnvelope{EventType: "ws_events", EventName: "ws_connect"}
	publisher.On("Publish", mock.Anything, "ws_events.streams", envelope, map[string]string{"x-request-id": "r1"}).Return(nil).Once()
	publisher.On("Publish", mock.Anything, "ws_events.streams", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	require.NoError(t, PublishEvent(context.Background(), "ws_events.streams", envelope, BuildHeaders("r1", "")))
	assert.ErrorIs(t, PublishEvent(context.Background(), "ws_events.streams", envelope, nil), assert.AnError)
	publisher.AssertExpectations(t)
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", IPFromRequest(req))

	req.Header.Set("X-Real-Ip", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", IPFromRequest(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", IPFromRequest(req))
}

func TestRequestIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotEmpty(t, RequestIDFromRequest(req))

	req.Header.Set("X-Request-Id", "abc")
	assert.Equal(t, "abc", RequestIDFromRequest(req))
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(Handler()))

	IncWSEvent("ws_connect")
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `stream_chat_http_requests_total{method="GET",route="/ping",status="204"}`)
	assert.Contains(t, body, `stream_chat_ws_events_total{event="ws_connect"}`)
}
