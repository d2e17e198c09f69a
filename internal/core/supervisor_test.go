package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSupervisorCancelOnError(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background(), WithCancelOnError(true))

	boom := errors.New("boom")
	s.Go("failing", func(ctx context.Context) error { return boom })
	s.Go("blocked", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(waitCtx)
	if !errors.Is(err, boom) {
		t.Fatalf("Wait returned %v, want wrapped boom", err)
	}
}

func TestSupervisorRecoversPanic(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background(), WithCancelOnError(true))

	s.Go("panicky", func(ctx context.Context) error {
		panic("lost the plot")
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(waitCtx)
	if err == nil || !strings.Contains(err.Error(), "panic in panicky") {
		t.Fatalf("Wait returned %v, want panic error", err)
	}
}

func TestSupervisorStopUnblocksGoroutines(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background())

	started := make(chan struct{})
	s.Go0("sleeper", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSupervisorWaitHonorsDeadline(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background())

	release := make(chan struct{})
	s.Go0("stuck", func(ctx context.Context) { <-release })

	waitCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait returned %v, want deadline exceeded", err)
	}
	close(release)
}
