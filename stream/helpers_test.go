package stream

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const testTimeout = 5 * time.Second

// recorder collects every event of a stage.
type recorder[T any] struct {
	mu     sync.Mutex
	data   []T
	errs   []error
	drains int
	ends   int
	closes int
}

func record[T any](r Readable[T]) *recorder[T] {
	rec := &recorder[T]{}
	r.OnError(func(err error) {
		rec.mu.Lock()
		rec.errs = append(rec.errs, err)
		rec.mu.Unlock()
	})
	r.OnEnd(func() {
		rec.mu.Lock()
		rec.ends++
		rec.mu.Unlock()
	})
	r.OnClose(func() {
		rec.mu.Lock()
		rec.closes++
		rec.mu.Unlock()
	})
	if w, ok := r.(interface{ OnDrain(func()) }); ok {
		w.OnDrain(func() {
			rec.mu.Lock()
			rec.drains++
			rec.mu.Unlock()
		})
	}
	r.OnData(func(v T) {
		rec.mu.Lock()
		rec.data = append(rec.data, v)
		rec.mu.Unlock()
	})
	return rec
}

func (rec *recorder[T]) snapshot() ([]T, []error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return slices.Clone(rec.data), slices.Clone(rec.errs)
}

// run feeds chunks into s, waits until it is done and returns everything
// it emitted.
func run[I, O any](t *testing.T, s Duplex[I, O], chunks ...I) ([]O, []error, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	rec := record[O](s)
	feedErr := Feed(ctx, s, slices.Values(chunks))
	if ctx.Err() != nil {
		t.Fatalf("timed out feeding stage: %v", feedErr)
	}
	if err := Wait[O](ctx, s); ctx.Err() != nil {
		t.Fatalf("timed out waiting for stage: %v", err)
	}
	data, errs := rec.snapshot()
	return data, errs, s.Err()
}

func joined[T Text](chunks []T) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(string(c))
	}
	return sb.String()
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("stage did not finish")
	}
}
