package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait on Async.Wait before closing the sinks behind it,
// so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Async decorates a Sink so Emit returns immediately and the wrapped Emit runs in a goroutine
// with its own timeout. Request cancellation does not abort an in-flight emit.
type Async struct {
	next Sink
	wg   sync.WaitGroup
}

// NewAsync returns an Async sink over next.
func NewAsync(next Sink) *Async {
	return &Async{next: next}
}

func (a *Async) Emit(_ context.Context, e Event) error {
	if a.next == nil {
		return nil
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := a.next.Emit(ctx, e); err != nil {
			log.Printf("events: async emit %s failed: %v", e.Type, err)
		}
	}()
	return nil
}

// Wait blocks until all in-flight emits have finished.
func (a *Async) Wait() {
	a.wg.Wait()
}
