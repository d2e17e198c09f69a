package speech

import (
	"strings"
	"sync"
	"time"

	"veer/pkg/logx"
)

// Synthesizer renders text as audible speech. Implementations may return
// before the audio finishes playing; the Session's cooldown covers the tail.
type Synthesizer interface {
	Speak(text string) error
}

// Session is the single process-wide speech turn state. It wraps the
// synthesizer and gates captured utterances so the assistant does not
// react to its own voice.
//
// Three filters apply to every recognized utterance, in order: while a
// response is being spoken all input is discarded, a cooldown window
// after each response discards input, and any utterance that contains
// the last spoken text (case-folded) is discarded as echo.
type Session struct {
	engine Synthesizer
	log    logx.Logger

	// sleep is swappable for tests.
	sleep func(time.Duration)

	mu              sync.Mutex
	cooldown        time.Duration
	speaking        bool
	lastSpokenLower string
	lastResponseAt  time.Time
}

func NewSession(engine Synthesizer, cooldown time.Duration, log logx.Logger) *Session {
	return &Session{
		engine:   engine,
		log:      log,
		sleep:    time.Sleep,
		cooldown: cooldown,
	}
}

// SetCooldown updates the suppression window. Safe during a hot reload.
func (s *Session) SetCooldown(d time.Duration) {
	s.mu.Lock()
	s.cooldown = d
	s.mu.Unlock()
}

// Speak renders one response. It blocks for the cooldown after handing the
// text to the synthesizer so the tail of the playback never re-enters the
// recognizer as a command.
func (s *Session) Speak(text string) {
	s.mu.Lock()
	s.speaking = true
	s.lastSpokenLower = strings.ToLower(text)
	cooldown := s.cooldown
	s.mu.Unlock()

	s.log.Info("speaking", logx.String("text", text))
	if err := s.engine.Speak(text); err != nil {
		s.log.Error("speech synthesis failed", logx.Err(err))
	}

	s.mu.Lock()
	s.lastResponseAt = time.Now()
	s.mu.Unlock()

	s.sleep(cooldown)

	s.mu.Lock()
	s.speaking = false
	s.mu.Unlock()
}

// Speaking reports whether a response is currently being rendered. The
// capture layer drops raw audio while this is true, so self-speech is
// never even enqueued.
func (s *Session) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Accept decides whether a recognized utterance may be processed.
func (s *Session) Accept(heard string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.speaking {
		return false
	}
	if !s.lastResponseAt.IsZero() && now.Sub(s.lastResponseAt) < s.cooldown {
		s.log.Debug("utterance inside cooldown window", logx.String("heard", heard))
		return false
	}
	if s.lastSpokenLower != "" && strings.Contains(strings.ToLower(heard), s.lastSpokenLower) {
		s.log.Debug("self echo ignored", logx.String("heard", heard))
		return false
	}
	return true
}

// StripWakeWord checks that the utterance opens with one of the wake words
// and returns the remaining command text. The wake word must be the first
// token; a wake word buried mid-sentence does not activate the assistant.
func StripWakeWord(text string, wakeWords []string) (string, bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", false
	}
	for _, w := range wakeWords {
		if words[0] == w {
			return strings.Join(words[1:], " "), true
		}
	}
	return "", false
}
