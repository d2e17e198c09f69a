// Package audio captures microphone input through PortAudio and hands it
// to the recognizer as 16-bit little-endian mono PCM.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"veer/pkg/logx"
)

// Capture owns one PortAudio input stream. Chunks are delivered on
// Output; a full channel drops the chunk rather than stalling the
// audio callback path.
type Capture struct {
	log logx.Logger

	sampleRate      int
	framesPerBuffer int

	// gate, when it returns true, discards captured audio at the source.
	// The speech session sets it while the assistant is talking.
	gate func() bool

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool

	out chan []byte
}

type Config struct {
	SampleRate      int
	FramesPerBuffer int
}

func NewCapture(cfg Config, gate func() bool, log logx.Logger) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	if gate == nil {
		gate = func() bool { return false }
	}
	return &Capture{
		log:             log,
		sampleRate:      cfg.SampleRate,
		framesPerBuffer: cfg.FramesPerBuffer,
		gate:            gate,
		out:             make(chan []byte, 64),
	}, nil
}

// Start opens the default mono input stream and begins delivering chunks
// until ctx is cancelled or Stop is called.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]int16, c.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.framesPerBuffer, buffer)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	c.stream = stream
	c.running = true
	c.log.Info("microphone capture started",
		logx.Int("sample_rate", c.sampleRate), logx.Int("frames", c.framesPerBuffer))

	go c.loop(ctx, stream, buffer)
	return nil
}

func (c *Capture) loop(ctx context.Context, stream *portaudio.Stream, buffer []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		running := c.running
		c.mu.Unlock()
		if !running {
			return
		}

		if err := stream.Read(); err != nil {
			// Overflows are routine when the consumer lags; anything else
			// during an active session is worth a line in the log.
			if err != portaudio.InputOverflowed {
				c.log.Warn("audio read failed", logx.Err(err))
			}
			continue
		}

		if c.gate() {
			continue
		}

		chunk := make([]byte, len(buffer)*2)
		for i, s := range buffer {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(s))
		}
		select {
		case c.out <- chunk:
		default:
			c.log.Debug("audio chunk dropped, consumer behind")
		}
	}
}

// Output is the stream of captured PCM chunks.
func (c *Capture) Output() <-chan []byte { return c.out }

// Flush discards chunks already buffered but not yet consumed. Called when
// a response starts, so audio captured just before the assistant began
// speaking does not reach the recognizer afterwards.
func (c *Capture) Flush() {
	for {
		select {
		case <-c.out:
		default:
			return
		}
	}
}

// Stop halts delivery and closes the stream.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false

	if c.stream != nil {
		_ = c.stream.Stop()
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("close input stream: %w", err)
		}
		c.stream = nil
	}
	c.log.Info("microphone capture stopped")
	return nil
}

// Close stops the stream and releases PortAudio.
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
