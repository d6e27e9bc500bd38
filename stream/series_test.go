package stream

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/streamkit/errors"
)

func upper(_ context.Context, s string) (string, error) { return strings.ToUpper(s), nil }

func TestMapAsyncSeriesReverseCompletion(t *testing.T) {
	words := []string{"a", "b", "c", "d", "e"}
	release := make(map[string]chan struct{}, len(words))
	for _, w := range words {
		release[w] = make(chan struct{})
	}

	s := MapAsyncSeries(func(ctx context.Context, w string) (string, error) {
		<-release[w]
		return strings.ToUpper(w), nil
	})
	rec := record[string](s)

	for _, w := range words {
		if s.Write(w) {
			t.Fatalf("Write(%q) returned true, want backpressure", w)
		}
	}
	s.End()
	for i := len(words) - 1; i >= 0; i-- {
		close(release[words[i]])
	}
	waitDone(t, s.Done())

	data, errs := rec.snapshot()
	if got := strings.Join(data, ""); got != "ABCDE" {
		t.Errorf("got %q, want %q", got, "ABCDE")
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if rec.ends != 1 {
		t.Errorf("expected exactly one end, got %d", rec.ends)
	}
	if s.Pending() != 0 {
		t.Errorf("expected empty queue, got %d", s.Pending())
	}
}

func TestMapAsyncSeriesRandomDelays(t *testing.T) {
	msg := "We wILL use Map to CHange THIS STring to Lower Case"
	s := MapAsyncSeries(func(ctx context.Context, w string) (string, error) {
		time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
		return strings.ToLower(w), nil
	})
	data, errs, err := run[string, string](t, s, strings.Split(msg, " ")...)
	if err != nil || len(errs) != 0 {
		t.Fatalf("unexpected errors: %v %v", err, errs)
	}
	if got := strings.Join(data, " "); got != strings.ToLower(msg) {
		t.Errorf("got %q", got)
	}
}

func TestSeriesSettleOrder(t *testing.T) {
	s := newSeries[string, string]("series", func(context.Context, string) (string, bool, error) {
		panic("not called")
	}, mapperPolicy, nil)
	rec := record[string](s)

	seq0, _ := s.admit()
	seq1, _ := s.admit()
	seq2, _ := s.admit()

	s.settle(seq2, "c", true, false, nil)
	if data, _ := rec.snapshot(); len(data) != 0 {
		t.Fatalf("emitted %v before earlier items settled", data)
	}

	s.settle(seq0, "a", true, false, nil)
	if data, _ := rec.snapshot(); len(data) != 1 || data[0] != "a" {
		t.Fatalf("expected [a], got %v", data)
	}
	if s.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", s.Pending())
	}

	// A second completion for the same item is ignored.
	s.settle(seq0, "again", true, false, nil)

	s.settle(seq1, "b", false, false, nil)
	data, _ := rec.snapshot()
	if strings.Join(data, ",") != "a,c" {
		t.Fatalf("expected [a c], got %v", data)
	}
	if rec.drains != 1 {
		t.Errorf("expected one drain when the queue emptied, got %d", rec.drains)
	}
	if rec.ends != 0 {
		t.Errorf("unexpected end before End")
	}

	s.End()
	waitDone(t, s.Done())
	if rec.ends != 1 {
		t.Errorf("expected end, got %d", rec.ends)
	}
}

func TestSeriesEndWaitsForQueue(t *testing.T) {
	s := newSeries[string, string]("series", nil, mapperPolicy, nil)
	rec := record[string](s)
	seq, _ := s.admit()
	s.End()
	if rec.ends != 0 {
		t.Fatal("end emitted while an item is pending")
	}
	s.settle(seq, "x", true, false, nil)
	waitDone(t, s.Done())
	data, _ := rec.snapshot()
	if len(data) != 1 || rec.ends != 1 || rec.drains != 0 {
		t.Errorf("data=%v ends=%d drains=%d", data, rec.ends, rec.drains)
	}
}

func TestSeriesMapperErrorIsNotFatal(t *testing.T) {
	s := MapAsyncSeries(func(ctx context.Context, w string) (string, error) {
		if w == "b" {
			return "", fmt.Errorf("cannot map %q", w)
		}
		return strings.ToUpper(w), nil
	})
	data, errs, err := run[string, string](t, s, "a", "b", "c")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if strings.Join(data, "") != "AC" {
		t.Errorf("got %v", data)
	}
	if len(errs) != 1 || !errors.HasCode(errs[0], errors.ErrCodeMapper) || errors.IsFatal(errs[0]) {
		t.Errorf("expected one non-fatal MAPPER_ERROR, got %v", errs)
	}
}

func TestSeriesPredicateErrorIsFatal(t *testing.T) {
	s := FilterAsyncSeries(func(ctx context.Context, w string) (bool, error) {
		if w == "bad" {
			return false, fmt.Errorf("boom")
		}
		return true, nil
	})
	_, errs, err := run[string, string](t, s, "ok", "bad", "later")
	if !errors.HasCode(err, errors.ErrCodePredicate) {
		t.Fatalf("expected fatal PREDICATE_ERROR, got %v", err)
	}
	if len(errs) == 0 {
		t.Error("expected error event")
	}
	if s.Pending() != 0 {
		t.Errorf("expected queue released, got %d", s.Pending())
	}
}

func TestSeriesPredicatePanicIsFatal(t *testing.T) {
	s := FilterAsyncSeries(func(ctx context.Context, w string) (bool, error) {
		panic("predicate exploded")
	})
	_, _, err := run[string, string](t, s, "x")
	if !errors.HasCode(err, errors.ErrCodePredicate) {
		t.Fatalf("expected PREDICATE_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "predicate exploded") {
		t.Errorf("expected panic value in error, got %v", err)
	}
}

func TestSeriesDrainListenerWrites(t *testing.T) {
	words := []string{"one", "two", "three", "four"}
	s := MapAsyncSeries(upper)

	var mu sync.Mutex
	next := 0
	writeNext := func() {
		mu.Lock()
		i := next
		next++
		mu.Unlock()
		if i < len(words) {
			s.Write(words[i])
		} else if i == len(words) {
			s.End()
		}
	}
	s.OnDrain(writeNext)
	rec := record[string](s)

	writeNext()
	waitDone(t, s.Done())

	data, _ := rec.snapshot()
	if got := strings.Join(data, " "); got != "ONE TWO THREE FOUR" {
		t.Errorf("got %q", got)
	}
}

func TestFilterAsyncSeriesKeepsOrder(t *testing.T) {
	msg := "get rid of all words that contain the letter e"
	s := FilterAsyncSeries(func(ctx context.Context, w string) (bool, error) {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
		return !strings.Contains(w, "e"), nil
	})
	data, _, err := run[string, string](t, s, strings.Split(msg, " ")...)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(data, " "); got != "rid of all words that contain" {
		t.Errorf("got %q", got)
	}
}

func TestRejectAsyncSeriesKeepsOrder(t *testing.T) {
	msg := "get rid of all words that contain the letter e"
	s := RejectAsyncSeries(func(ctx context.Context, w string) (bool, error) {
		return strings.Contains(w, "e"), nil
	})
	data, _, err := run[string, string](t, s, strings.Split(msg, " ")...)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(data, " "); got != "rid of all words that contain" {
		t.Errorf("got %q", got)
	}
}

func TestSeriesDestroyReleasesState(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	var canceled sync.WaitGroup
	canceled.Add(1)

	s := MapAsyncSeries(func(ctx context.Context, w string) (string, error) {
		select {
		case <-ctx.Done():
			canceled.Done()
			return "", ctx.Err()
		case <-block:
			return w, nil
		}
	})
	rec := record[string](s)
	s.Write("x")
	if s.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", s.Pending())
	}

	s.Destroy()
	waitDone(t, s.Done())
	canceled.Wait()

	if s.Pending() != 0 {
		t.Errorf("expected queue released, got %d", s.Pending())
	}
	if s.Write("y") {
		t.Error("Write after Destroy returned true")
	}
	data, errs := rec.snapshot()
	if len(data) != 0 || len(errs) != 0 {
		t.Errorf("unexpected events after destroy: %v %v", data, errs)
	}
	if rec.closes != 1 || rec.ends != 0 {
		t.Errorf("closes=%d ends=%d", rec.closes, rec.ends)
	}
}

func TestReorderQueueWrapAround(t *testing.T) {
	var q reorderQueue[int]
	for round := 0; round < 5; round++ {
		var seqs []uint64
		for i := 0; i < 6; i++ {
			seqs = append(seqs, q.push())
		}
		for i, seq := range seqs {
			it := q.at(seq)
			if it == nil {
				t.Fatalf("round %d: item %d missing", round, i)
			}
			it.state, it.value = itemKeep, round*10+i
		}
		for i := 0; i < 6; i++ {
			if got := q.front().value; got != round*10+i {
				t.Fatalf("round %d: front = %d, want %d", round, got, round*10+i)
			}
			q.pop()
		}
		if q.at(seqs[0]) != nil {
			t.Fatal("popped item still addressable")
		}
	}

	seq := q.push()
	q.push()
	q.reset()
	if q.size() != 0 || q.at(seq) != nil {
		t.Error("reset left items behind")
	}
	if next := q.push(); next == seq {
		t.Error("sequence number reused after reset")
	}
}
