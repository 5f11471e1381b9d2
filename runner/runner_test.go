package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/supervisor"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

type funcRunner func(ctx context.Context, st *turn.State) (*supervisor.Result, error)

func (f funcRunner) Run(ctx context.Context, st *turn.State) (*supervisor.Result, error) {
	return f(ctx, st)
}

func TestRunnerLimitsConcurrency(t *testing.T) {
	var current, peak int32
	inner := funcRunner(func(ctx context.Context, st *turn.State) (*supervisor.Result, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return &supervisor.Result{State: st, Reply: "ok"}, nil
	})

	r := New(inner, 2)
	if r.Capacity() != 2 {
		t.Fatalf("Capacity() = %d, want 2", r.Capacity())
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Run(context.Background(), turn.New("s", nil, "q")); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if r.InFlight() != 0 {
		t.Errorf("InFlight() = %d after completion", r.InFlight())
	}
}

func TestRunnerCancelledWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	inner := funcRunner(func(ctx context.Context, st *turn.State) (*supervisor.Result, error) {
		<-release
		return &supervisor.Result{}, nil
	})
	r := New(inner, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background(), turn.New("busy", nil, "q"))
	}()
	for r.InFlight() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, turn.New("waiting", nil, "q"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	close(release)
	<-done
}

func TestRunnerRecoversPanic(t *testing.T) {
	r := New(funcRunner(func(ctx context.Context, st *turn.State) (*supervisor.Result, error) {
		panic("boom")
	}), 0)
	if r.Capacity() != DefaultMaxConcurrency {
		t.Fatalf("Capacity() = %d, want default", r.Capacity())
	}

	_, err := r.Run(context.Background(), turn.New("s1", nil, "q"))
	if err == nil {
		t.Fatal("expected error from panicking turn")
	}
	if r.InFlight() != 0 {
		t.Error("slot not released after panic")
	}
}

func TestRunnerPassesThrough(t *testing.T) {
	want := errors.New("completion service unavailable")
	r := New(funcRunner(func(ctx context.Context, st *turn.State) (*supervisor.Result, error) {
		return nil, want
	}), 1)
	if _, err := r.Run(context.Background(), turn.New("s", nil, "q")); !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}
}
