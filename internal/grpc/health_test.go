package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthServerFollowsDatabase(t *testing.T) {
	log, _ := test.NewNullLogger()
	db := &stubPinger{}
	server := NewHealthServer(db, time.Hour, log)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, server.Check(context.Background()))

	db.err = assert.AnError
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, server.Check(context.Background()))
}

func TestHealthServerServes(t *testing.T) {
	log, _ := test.NewNullLogger()
	server := NewHealthServer(&stubPinger{}, time.Hour, log)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, lis) }()

	conn, err := grpclib.Dial(lis.Addr().String(), grpclib.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	resp, err := healthpb.NewHealthClient(conn).Check(callCtx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
