package player

import (
	"fmt"
	"sync"

	"veer/pkg/logx"
)

// Bell plays the alarm sound file in its own external process. It backs
// the scheduler's ringer so a stop command can kill the sound mid-ring.
type Bell struct {
	log  logx.Logger
	path string

	// spawn is swappable for tests.
	spawn func(path string) (handle, error)

	mu   sync.Mutex
	proc handle
}

func NewBell(path string, log logx.Logger) *Bell {
	return &Bell{log: log, path: path, spawn: spawnMpg123}
}

// Ring starts the alarm sound, replacing a still-running one.
func (b *Bell) Ring() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc != nil {
		b.proc.Terminate()
		b.proc = nil
	}
	proc, err := b.spawn(b.path)
	if err != nil {
		return fmt.Errorf("start alarm sound %q: %w", b.path, err)
	}
	b.proc = proc
	b.log.Info("alarm sound started", logx.String("file", b.path))
	return nil
}

// Silence stops the alarm sound. Best effort; no-op when nothing rings.
func (b *Bell) Silence() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc == nil {
		return
	}
	b.proc.Terminate()
	b.proc = nil
	b.log.Info("alarm sound stopped")
}
