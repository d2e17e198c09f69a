package audio

import (
	"testing"

	"veer/pkg/logx"
)

func TestFlushDiscardsBufferedChunks(t *testing.T) {
	t.Parallel()
	c := &Capture{log: logx.Nop(), out: make(chan []byte, 8)}
	for i := 0; i < 3; i++ {
		c.out <- []byte{1, 2, 3, 4}
	}

	c.Flush()

	select {
	case chunk := <-c.out:
		t.Fatalf("chunk survived flush: %v", chunk)
	default:
	}
}

func TestFlushOnEmptyBufferReturns(t *testing.T) {
	t.Parallel()
	c := &Capture{log: logx.Nop(), out: make(chan []byte, 8)}
	c.Flush()
}
