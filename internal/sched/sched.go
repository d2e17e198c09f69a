package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"veer/pkg/logx"
)

// Kind identifies one category of scheduled task.
type Kind int

const (
	KindTimer Kind = iota
	KindReminder
	KindFixedReminder
	KindAlarm
)

func (k Kind) String() string {
	switch k {
	case KindTimer:
		return "timer"
	case KindReminder:
		return "reminder"
	case KindFixedReminder:
		return "fixed_reminder"
	case KindAlarm:
		return "alarm"
	default:
		return "unknown"
	}
}

var (
	ErrTimerActive    = errors.New("a timer is already running")
	ErrAlarmActive    = errors.New("an alarm is already set")
	ErrAlarmNotActive = errors.New("no alarm is set")
	ErrNotStarted     = errors.New("scheduler not started")
)

// Speaker announces fired tasks out loud.
type Speaker interface {
	Speak(text string)
}

// Ringer plays and stops the audible alarm sound.
type Ringer interface {
	Ring() error
	Silence()
}

// Event describes a task transition, handed to the optional fire hook
// (used to mirror announcements to external sinks).
type Event struct {
	Kind    Kind
	At      time.Time
	Message string
}

// Service owns all scheduled tasks.
type Service struct {
	log   logx.Logger
	speak Speaker
	ring  Ringer

	// now is swappable for tests.
	now func() time.Time

	// onFire, if set, observes every fired task.
	onFire func(Event)

	mu sync.Mutex
	// Per-kind liveness. Reminder and FixedReminder share one flag:
	// cancelling a reminder silences every outstanding reminder.
	timerActive    bool
	reminderActive bool
	alarmActive    bool

	timerFireAt time.Time
	alarmFireAt time.Time

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func New(speak Speaker, ring Ringer, log logx.Logger) *Service {
	return &Service{
		log:   log,
		speak: speak,
		ring:  ring,
		now:   time.Now,
	}
}

// SetFireHook installs an observer for fired tasks. Must be called before Start.
func (s *Service) SetFireHook(fn func(Event)) { s.onFire = fn }

// Start makes the service accept tasks. Background units are tied to ctx:
// process shutdown interrupts sleeps, cancellation never does.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.log.Info("scheduler started")
}

// Stop cancels all background units and waits for them, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel := s.runCancel
	s.runCtx = nil
	s.runCancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; tasks abandoned")
	}
}

// ---- Timer ----

// ScheduleTimer activates the singleton timer. A second timer while one is
// active is refused and leaves the running timer's deadline unchanged.
func (s *Service) ScheduleTimer(d time.Duration) (time.Time, error) {
	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return time.Time{}, ErrNotStarted
	}
	if s.timerActive {
		s.mu.Unlock()
		return time.Time{}, ErrTimerActive
	}
	fireAt := s.now().Add(d)
	s.timerActive = true
	s.timerFireAt = fireAt
	s.mu.Unlock()

	s.log.Info("timer scheduled", logx.Time("fire_at", fireAt), logx.Duration("in", d))
	s.runAt(KindTimer, fireAt, func() bool {
		s.mu.Lock()
		ok := s.timerActive
		if ok {
			s.timerActive = false
		}
		s.mu.Unlock()
		return ok
	}, "टाइमर पूरा हो गया", nil)
	return fireAt, nil
}

// StopTimer flips the timer flag. The sleeping unit is not woken; it will
// observe the flag at its deadline and stay silent.
func (s *Service) StopTimer() {
	s.mu.Lock()
	s.timerActive = false
	s.mu.Unlock()
	s.log.Info("timer cancelled")
}

// TimerActive reports whether a timer is currently pending.
func (s *Service) TimerActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timerActive
}

// ---- Reminders ----

// ScheduleReminder schedules a relative reminder. Reminders are not
// singletons, but every instance shares the one reminder flag.
func (s *Service) ScheduleReminder(d time.Duration, task string) (time.Time, error) {
	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return time.Time{}, ErrNotStarted
	}
	fireAt := s.now().Add(d)
	s.reminderActive = true
	s.mu.Unlock()

	s.log.Info("reminder scheduled", logx.Time("fire_at", fireAt), logx.String("task", task))
	s.runAt(KindReminder, fireAt, s.takeReminder,
		fmt.Sprintf("%s करने का समय हो गया है", task), nil)
	return fireAt, nil
}

// ScheduleFixedReminder schedules a reminder at the next occurrence of the
// given wall-clock time, rolling to tomorrow when it already passed today.
func (s *Service) ScheduleFixedReminder(hour, minute int, task string) (time.Time, error) {
	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return time.Time{}, ErrNotStarted
	}
	fireAt, err := s.nextWallClock(hour, minute)
	if err != nil {
		s.mu.Unlock()
		return time.Time{}, err
	}
	s.reminderActive = true
	s.mu.Unlock()

	s.log.Info("fixed reminder scheduled", logx.Time("fire_at", fireAt), logx.String("task", task))
	s.runAt(KindFixedReminder, fireAt, s.takeReminder,
		fmt.Sprintf("याद दिला रहा हूँ, %s", task), nil)
	return fireAt, nil
}

// CancelReminder silences every outstanding reminder (shared flag).
func (s *Service) CancelReminder() {
	s.mu.Lock()
	s.reminderActive = false
	s.mu.Unlock()
	s.log.Info("reminders cancelled")
}

// ReminderActive reports whether any reminder is pending.
func (s *Service) ReminderActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reminderActive
}

// takeReminder is the shared fire-check: consume the flag if still set.
func (s *Service) takeReminder() bool {
	s.mu.Lock()
	ok := s.reminderActive
	if ok {
		s.reminderActive = false
	}
	s.mu.Unlock()
	return ok
}

// ---- Alarm ----

// ScheduleAlarm activates the singleton alarm at the next occurrence of
// the given wall-clock time.
func (s *Service) ScheduleAlarm(hour, minute int) (time.Time, error) {
	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return time.Time{}, ErrNotStarted
	}
	if s.alarmActive {
		s.mu.Unlock()
		return time.Time{}, ErrAlarmActive
	}
	fireAt, err := s.nextWallClock(hour, minute)
	if err != nil {
		s.mu.Unlock()
		return time.Time{}, err
	}
	s.alarmActive = true
	s.alarmFireAt = fireAt
	s.mu.Unlock()

	s.log.Info("alarm scheduled", logx.Time("fire_at", fireAt))
	s.runAt(KindAlarm, fireAt, func() bool {
		// The alarm stays active while it rings; only StopAlarm clears it,
		// which is also what terminates the ringing process.
		s.mu.Lock()
		ok := s.alarmActive
		s.mu.Unlock()
		return ok
	}, "अलार्म बज रहा है", func() {
		if s.ring == nil {
			return
		}
		if err := s.ring.Ring(); err != nil {
			s.log.Error("alarm sound failed", logx.Err(err))
		}
	})
	return fireAt, nil
}

// StopAlarm clears the alarm flag and terminates the ringing sound, if any.
// Returns ErrAlarmNotActive when no alarm is set or ringing.
func (s *Service) StopAlarm() error {
	s.mu.Lock()
	if !s.alarmActive {
		s.mu.Unlock()
		return ErrAlarmNotActive
	}
	s.alarmActive = false
	s.mu.Unlock()

	if s.ring != nil {
		s.ring.Silence()
	}
	s.log.Info("alarm stopped")
	return nil
}

// AlarmActive reports whether an alarm is pending or ringing.
func (s *Service) AlarmActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alarmActive
}

// ---- internals ----

// nextWallClock computes the next future occurrence of hour:minute via a
// daily cron schedule, which also validates the pair. Callers hold s.mu.
func (s *Service) nextWallClock(hour, minute int) (time.Time, error) {
	schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %02d:%02d: %w", hour, minute, err)
	}
	return schedule.Next(s.now()), nil
}

// runAt starts the background wait unit for one task. stillActive is the
// deadline-time liveness check; message is spoken only when it passes;
// after (optional) runs after the announcement.
func (s *Service) runAt(kind Kind, fireAt time.Time, stillActive func() bool, message string, after func()) {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		t := time.NewTimer(time.Until(fireAt))
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if !stillActive() {
			s.log.Debug("task cancelled before deadline", logx.String("kind", kind.String()))
			return
		}

		s.log.Info("task fired", logx.String("kind", kind.String()), logx.Time("fire_at", fireAt))
		if s.speak != nil {
			s.speak.Speak(message)
		}
		if after != nil {
			after()
		}
		if s.onFire != nil {
			s.onFire(Event{Kind: kind, At: fireAt, Message: message})
		}
	}()
}
