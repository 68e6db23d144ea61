package shutdown

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestShutdown_RunsHandlersInOrder(t *testing.T) {
	coord := NewCoordinator(DefaultConfig())

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	coord.RegisterFunc("first", record("first"))
	coord.RegisterFunc("second", record("second"))
	coord.RegisterFunc("third", record("third"))

	if err := coord.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestShutdown_RunsOnce(t *testing.T) {
	coord := NewCoordinator(DefaultConfig())

	calls := 0
	coord.RegisterFunc("counter", func(ctx context.Context) error {
		calls++
		return nil
	})

	coord.Shutdown(context.Background())
	coord.Shutdown(context.Background())

	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestShutdown_ContinuesPastFailure(t *testing.T) {
	coord := NewCoordinator(DefaultConfig())

	secondRan := false
	coord.RegisterFunc("failing", func(ctx context.Context) error {
		return fmt.Errorf("boom")
	})
	coord.RegisterFunc("after", func(ctx context.Context) error {
		secondRan = true
		return nil
	})

	err := coord.Shutdown(context.Background())
	if err != ErrHandlerFailed {
		t.Errorf("Shutdown = %v, want ErrHandlerFailed", err)
	}
	if !secondRan {
		t.Error("handler after the failure did not run")
	}

	results := coord.Results()
	if len(results) != 2 {
		t.Fatalf("Results = %d entries, want 2", len(results))
	}
	if results[0].Err == nil || results[1].Err != nil {
		t.Errorf("results = %+v", results)
	}
}

func TestShutdown_Timeout(t *testing.T) {
	coord := NewCoordinator(DefaultConfig())

	coord.RegisterFunc("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	coord.RegisterFunc("never", func(ctx context.Context) error {
		t.Error("handler after timeout should not run")
		return nil
	})

	err := coord.ShutdownWithTimeout(20 * time.Millisecond)
	if err == nil {
		t.Fatal("expected shutdown error on timeout")
	}
}

func TestTrigger(t *testing.T) {
	coord := NewCoordinator(DefaultConfig())

	ran := make(chan struct{})
	coord.RegisterFunc("handler", func(ctx context.Context) error {
		close(ran)
		return nil
	})

	coord.HandleSignals()
	coord.Trigger()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Trigger did not initiate shutdown")
	}

	select {
	case <-coord.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after shutdown")
	}
}

func TestErr_BeforeShutdown(t *testing.T) {
	coord := NewCoordinator(DefaultConfig())
	if coord.Err() != nil {
		t.Error("Err before shutdown should be nil")
	}
	if coord.Results() != nil {
		t.Error("Results before shutdown should be nil")
	}
}
