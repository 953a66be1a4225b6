package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps a Cache and counts operations in Prometheus.
type Instrumented struct {
	next Cache
	ops  *prometheus.CounterVec
}

// NewInstrumented registers the cache counters with reg and wraps next.
func NewInstrumented(next Cache, reg prometheus.Registerer) (*Instrumented, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Cache operations by kind and result.",
	}, []string{"op", "result"})
	if err := reg.Register(ops); err != nil {
		return nil, err
	}
	return &Instrumented{next: next, ops: ops}, nil
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := i.next.Get(ctx, key)
	switch {
	case err != nil:
		i.ops.WithLabelValues("get", "error").Inc()
	case ok:
		i.ops.WithLabelValues("get", "hit").Inc()
	default:
		i.ops.WithLabelValues("get", "miss").Inc()
	}
	return v, ok, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := i.next.Set(ctx, key, value, ttl)
	i.ops.WithLabelValues("set", result(err)).Inc()
	return err
}

func (i *Instrumented) Has(ctx context.Context, key string) (bool, error) {
	ok, err := i.next.Has(ctx, key)
	i.ops.WithLabelValues("has", result(err)).Inc()
	return ok, err
}

func (i *Instrumented) Invalidate(ctx context.Context, key string) error {
	err := i.next.Invalidate(ctx, key)
	i.ops.WithLabelValues("invalidate", result(err)).Inc()
	return err
}

func (i *Instrumented) Take(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := i.next.Take(ctx, key)
	switch {
	case err != nil:
		i.ops.WithLabelValues("take", "error").Inc()
	case ok:
		i.ops.WithLabelValues("take", "hit").Inc()
	default:
		i.ops.WithLabelValues("take", "miss").Inc()
	}
	return v, ok, err
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
