package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"account-identity/backend/internal/server/interceptors"
)

// mockServiceRegistrar implements reflection.GRPCServer for testing.
type mockServiceRegistrar struct {
	services []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.services = append(m.services, desc.ServiceName)
}

func (m *mockServiceRegistrar) GetServiceInfo() map[string]grpc.ServiceInfo { return nil }

func TestRegisterServices_HealthAndReflection(t *testing.T) {
	reg := &mockServiceRegistrar{}
	RegisterServices(reg, Deps{Health: health.NewServer(), Reflection: true})

	assert.Contains(t, reg.services, "grpc.health.v1.Health")
	assert.Contains(t, reg.services, "grpc.reflection.v1.ServerReflection")
}

func TestRegisterServices_Empty(t *testing.T) {
	reg := &mockServiceRegistrar{}
	RegisterServices(reg, Deps{})
	assert.Empty(t, reg.services)
}

func TestNew_RegistersHealth(t *testing.T) {
	s := New(Deps{Health: health.NewServer(), Metrics: interceptorsMetrics(t)})
	t.Cleanup(s.Stop)

	info := s.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
	assert.NotContains(t, info, "grpc.reflection.v1.ServerReflection")
}

func interceptorsMetrics(t *testing.T) *interceptors.Metrics {
	t.Helper()
	return interceptors.NewMetrics(prometheus.NewRegistry())
}
