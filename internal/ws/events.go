package ws

import (
	"context"
	"time"

	"stream-chat-service/internal/observability"
)

const wsRoutingKey = "ws_events.streams"

func publishWSEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	observability.IncWSEvent(name)

	duration := int64(0)
	if name != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "stream_chat",
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": duration,
				"reason":      reason,
			},
			"identity": info.identityPayload(),
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
