package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func checkStatus(t *testing.T, l *ImportLimiter, active, available int) {
	t.Helper()
	got := l.Status()
	if got.Active != active || got.Available != available {
		t.Errorf("Status = %d active / %d available, want %d / %d", got.Active, got.Available, active, available)
	}
	if got.Active != l.ActiveCount() || got.Available != l.Available() {
		t.Errorf("Status %+v disagrees with ActiveCount %d / Available %d", got, l.ActiveCount(), l.Available())
	}
}

func TestImportLimiter_Occupancy(t *testing.T) {
	l := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	checkStatus(t, l, 0, 2)
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !l.TryAcquire() {
		t.Fatal("TryAcquire with a free slot = false")
	}
	checkStatus(t, l, 2, 0)

	if l.TryAcquire() {
		t.Fatal("TryAcquire on a full limiter = true")
	}

	l.Release()
	checkStatus(t, l, 1, 1)
	l.Release()
	checkStatus(t, l, 0, 2)

	if got := l.MaxConcurrent(); got != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", got)
	}
}

func TestImportLimiter_Defaults(t *testing.T) {
	l := NewImportLimiter(-1, 0)
	if got := l.MaxConcurrent(); got != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentImports)
	}
	if l.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWaitTime)
	}
}

func TestImportLimiter_AcquireWhenFull(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name:    "wait expires",
			ctx:     func() (context.Context, context.CancelFunc) { return context.Background(), func() {} },
			wantErr: ErrTooManyImports,
		},
		{
			name:    "caller cancelled",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			wantErr: context.Canceled,
		},
		{
			name: "caller deadline shorter than wait",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 20*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewImportLimiter(1, 100*time.Millisecond)
			if !l.TryAcquire() {
				t.Fatal("TryAcquire on an empty limiter = false")
			}
			defer l.Release()

			ctx, cancel := tt.ctx()
			defer cancel()
			if tt.wantErr == context.Canceled {
				cancel()
			}

			start := time.Now()
			err := l.Acquire(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Acquire = %v, want %v", err, tt.wantErr)
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("Acquire took %v", elapsed)
			}
			checkStatus(t, l, 1, 0)
		})
	}
}

func TestImportLimiter_WaiterGetsReleasedSlot(t *testing.T) {
	l := NewImportLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan error, 1)
	go func() { acquired <- l.Acquire(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	l.Release()

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("waiting Acquire = %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("waiter did not get the released slot")
	}
	checkStatus(t, l, 1, 0)
	l.Release()
}

func TestImportLimiter_NeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	l := NewImportLimiter(capacity, 2*time.Second)

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer l.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > capacity {
		t.Errorf("peak concurrency = %d, want <= %d", got, capacity)
	}
	checkStatus(t, l, 0, capacity)
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	t.Run("idle returns at once", func(t *testing.T) {
		l := NewImportLimiter(2, time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := l.WaitForDrain(ctx); err != nil {
			t.Errorf("WaitForDrain on idle limiter = %v", err)
		}
	})

	t.Run("waits for every holder", func(t *testing.T) {
		l := NewImportLimiter(2, time.Second)
		l.TryAcquire()
		l.TryAcquire()

		done := make(chan error, 1)
		go func() { done <- l.WaitForDrain(context.Background()) }()

		l.Release()
		select {
		case err := <-done:
			t.Fatalf("WaitForDrain returned %v with one holder left", err)
		case <-time.After(150 * time.Millisecond):
		}

		l.Release()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("WaitForDrain = %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("WaitForDrain did not return after the last release")
		}
	})

	t.Run("gives up with the context", func(t *testing.T) {
		l := NewImportLimiter(1, time.Second)
		l.TryAcquire()
		defer l.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("WaitForDrain = %v, want deadline exceeded", err)
		}
	})
}
