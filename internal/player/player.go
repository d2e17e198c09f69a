// Package player drives song playback and the audible alarm through an
// external mpg123 process. Pause and resume use job-control signals on
// the running process rather than restarting it.
package player

import (
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"veer/pkg/logx"
)

// Speaker voices the controller's responses.
type Speaker interface {
	Speak(text string)
}

// handle is the lifecycle surface of one external playback process.
type handle interface {
	Signal(sig os.Signal) error
	// Terminate is best effort; the process may already have exited.
	Terminate()
}

type procHandle struct{ cmd *exec.Cmd }

func (h procHandle) Signal(sig os.Signal) error { return h.cmd.Process.Signal(sig) }

func (h procHandle) Terminate() {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}
}

func spawnMpg123(path string) (handle, error) {
	cmd := exec.Command("mpg123", path)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// Reap the process so finished songs do not linger as zombies.
	go func() { _ = cmd.Wait() }()
	return procHandle{cmd: cmd}, nil
}

// Player owns the song list and the current playback process. All state
// is mutated by the command loop only, but the mutex keeps shutdown safe.
type Player struct {
	log   logx.Logger
	speak Speaker
	dir   string

	// spawn and pick are swappable for tests.
	spawn func(path string) (handle, error)
	pick  func(n int) int

	mu      sync.Mutex
	songs   []string
	index   int
	playing bool
	paused  bool
	proc    handle
}

func New(dir string, speak Speaker, log logx.Logger) *Player {
	return &Player{
		log:   log,
		speak: speak,
		dir:   dir,
		spawn: spawnMpg123,
		pick:  rand.Intn,
		index: -1,
	}
}

// SetDir points the controller at a new song directory. Takes effect on
// the next playback, not the current one.
func (p *Player) SetDir(dir string) {
	p.mu.Lock()
	p.dir = dir
	p.mu.Unlock()
}

// PlayRandom rescans the song directory and starts a random song,
// replacing whatever is currently playing. Missing directory and empty
// list are spoken apologies, not errors.
func (p *Player) PlayRandom() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playLocked()
}

func (p *Player) playLocked() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.speak.Speak("सॉन्ग फोल्डर नहीं मिला")
		return
	}
	var songs []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".wav") {
			songs = append(songs, name)
		}
	}
	if len(songs) == 0 {
		p.speak.Speak("कोई गाना नहीं मिला")
		return
	}

	p.songs = songs
	p.index = p.pick(len(songs))
	path := filepath.Join(p.dir, songs[p.index])

	if p.proc != nil {
		p.proc.Terminate()
		p.proc = nil
	}
	p.playing = true
	p.paused = false

	p.log.Info("playing song", logx.String("file", songs[p.index]))
	p.speak.Speak("गाना चला रहा हूँ")

	proc, err := p.spawn(path)
	if err != nil {
		p.log.Error("song player failed to start", logx.Err(err))
		p.playing = false
		return
	}
	p.proc = proc
}

// Stop terminates the current song, or reports that nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc == nil {
		p.speak.Speak("कोई गाना चालू नहीं है")
		return
	}
	p.proc.Terminate()
	p.proc = nil
	p.playing = false
	p.paused = false
	p.speak.Speak("गाना बंद कर दिया")
}

// Pause suspends the running song. Silent no-op when nothing is playing
// or the song is already paused.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc == nil || p.paused {
		return
	}
	if err := p.proc.Signal(syscall.SIGSTOP); err != nil {
		p.log.Warn("pause signal failed", logx.Err(err))
		return
	}
	p.paused = true
	p.speak.Speak("गाना रोक दिया")
}

// Resume continues a paused song. Silent no-op otherwise.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc == nil || !p.paused {
		return
	}
	if err := p.proc.Signal(syscall.SIGCONT); err != nil {
		p.log.Warn("resume signal failed", logx.Err(err))
		return
	}
	p.paused = false
	p.speak.Speak("गाना फिर से चालू किया")
}

// Next advances the song index and starts another playback. The moved
// index does not select the song; playback re-resolves with a fresh
// random pick. Silent no-op before the first scan.
func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.songs) == 0 {
		return
	}
	p.index = (p.index + 1) % len(p.songs)
	p.playLocked()
}

// Previous steps the song index back and starts another playback, with
// the same random re-resolution as Next.
func (p *Player) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.songs) == 0 {
		return
	}
	p.index = (p.index - 1 + len(p.songs)) % len(p.songs)
	p.playLocked()
}

// Playing reports whether a song process is active (paused counts).
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil
}

// Close terminates any running song without a spoken response.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proc != nil {
		p.proc.Terminate()
		p.proc = nil
	}
	p.playing = false
	p.paused = false
}
