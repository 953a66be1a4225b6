package interceptors

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func TestClientIP(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-forwarded-for", " 10.0.0.1, 10.0.0.2"))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "10.0.0.9"))
	assert.Equal(t, "10.0.0.9", ClientIP(ctx))

	ctx = peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("192.168.1.5"), Port: 5000}})
	assert.Equal(t, "192.168.1.5", ClientIP(ctx))

	assert.Equal(t, "unknown", ClientIP(context.Background()))
}

func TestUserAgent(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("user-agent", "ios/17.2"))
	assert.Equal(t, "ios/17.2", UserAgent(ctx))
	assert.Empty(t, UserAgent(context.Background()))
}

func TestMetricsUnary(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	intercept := m.Unary(map[string]bool{"/grpc.health.v1.Health/Check": true})

	ok := func(context.Context, interface{}) (interface{}, error) { return "ok", nil }
	fail := func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "no user")
	}

	resp, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Get"}, ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	_, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Get"}, fail)
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, _ = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/svc/Get", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/svc/Get", "NotFound")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues("/grpc.health.v1.Health/Check", "OK")))
}
