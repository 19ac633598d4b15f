package util

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelVisitsEveryInput(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[int]bool{}
	)
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, n int) error {
		mu.Lock()
		defer mu.Unlock()
		seen[n] = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 5 {
		t.Errorf("visited %v", seen)
	}
}

func TestParallelRespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	err := Parallel(context.Background(), make([]struct{}, 20), 3, func(context.Context, struct{}) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d, want <= 3", peak.Load())
	}
}

func TestParallelReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	err := Parallel(context.Background(), make([]int, 100), 1, func(ctx context.Context, _ int) error {
		if calls.Add(1) == 2 {
			return boom
		}
		return ctx.Err()
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls.Load() >= 100 {
		t.Errorf("feeding did not stop after the error")
	}
}
