package speech

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"veer/pkg/logx"
)

// piperSampleRate is the raw output rate of the piper voice models.
const piperSampleRate = "22050"

// PiperEngine is a long-running TTS pipeline: one piper process emitting
// raw samples piped into one aplay process. Both live for the whole
// daemon; Speak only writes a line of text into piper's stdin.
type PiperEngine struct {
	log logx.Logger

	mu    sync.Mutex
	stdin io.WriteCloser
	piper *exec.Cmd
	aplay *exec.Cmd
}

// NewPiperEngine starts the piper and aplay processes. An engine that
// fails to start is fatal; the assistant has no silent mode.
func NewPiperEngine(bin, model, device string, log logx.Logger) (*PiperEngine, error) {
	piper := exec.Command(bin, "--model", model, "--output-raw")
	stdin, err := piper.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("piper stdin pipe: %w", err)
	}
	stdout, err := piper.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piper stdout pipe: %w", err)
	}

	aplay := exec.Command("aplay", "-D", device, "-r", piperSampleRate, "-f", "S16_LE", "-t", "raw")
	aplay.Stdin = stdout

	if err := piper.Start(); err != nil {
		return nil, fmt.Errorf("start piper %q: %w", bin, err)
	}
	if err := aplay.Start(); err != nil {
		_ = piper.Process.Kill()
		_ = piper.Wait()
		return nil, fmt.Errorf("start aplay: %w", err)
	}

	log.Info("tts pipeline started", logx.String("bin", bin), logx.String("model", model))
	return &PiperEngine{log: log, stdin: stdin, piper: piper, aplay: aplay}, nil
}

// Speak queues one utterance. piper synthesizes line by line, so a
// trailing newline is the flush.
func (e *PiperEngine) Speak(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stdin == nil {
		return fmt.Errorf("tts pipeline is closed")
	}
	if _, err := io.WriteString(e.stdin, text+"\n"); err != nil {
		return fmt.Errorf("write to piper: %w", err)
	}
	return nil
}

// Close tears the pipeline down. Termination is best effort; the
// processes may already be gone.
func (e *PiperEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stdin == nil {
		return nil
	}
	_ = e.stdin.Close()
	e.stdin = nil

	stopProcess(e.piper)
	stopProcess(e.aplay)
	e.log.Info("tts pipeline stopped")
	return nil
}

func stopProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1200 * time.Millisecond):
		_ = cmd.Process.Kill()
		<-done
	}
}
