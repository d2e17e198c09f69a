// Package notify mirrors fired scheduler tasks to external sinks, so a
// timer that goes off while nobody is in the room still reaches a phone.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"veer/internal/sched"
	"veer/pkg/logx"
)

// Sink delivers one notification line.
type Sink interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Service fans fired-task events out to all registered sinks. Delivery
// is asynchronous and best effort; a failing sink never blocks or
// silences the spoken announcement.
type Service struct {
	log logx.Logger

	mu    sync.Mutex
	sinks []Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(log logx.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{log: log, ctx: ctx, cancel: cancel}
}

func (s *Service) Add(sink Sink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
	s.log.Info("notification sink registered", logx.String("sink", sink.Name()))
}

// TaskFired is the scheduler's fire hook.
func (s *Service) TaskFired(e sched.Event) {
	s.mu.Lock()
	sinks := append([]Sink(nil), s.sinks...)
	s.mu.Unlock()
	if len(sinks) == 0 {
		return
	}

	text := formatEvent(e)
	for _, sink := range sinks {
		sink := sink
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
			defer cancel()
			if err := sink.Send(ctx, text); err != nil {
				s.log.Warn("notification delivery failed",
					logx.String("sink", sink.Name()), logx.Err(err))
			}
		}()
	}
}

func formatEvent(e sched.Event) string {
	return fmt.Sprintf("[%s] %s %s", e.Kind, e.At.Format("15:04"), e.Message)
}

// Close stops in-flight deliveries.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
