package speech

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	vosk "github.com/alphacep/vosk-api/go"

	"veer/pkg/logx"
)

// Transcriber turns raw PCM chunks into finalized utterances.
type Transcriber interface {
	// Accept feeds one chunk of 16-bit little-endian mono PCM. final is
	// true when the chunk completed an utterance; text may still be empty
	// for a finalized silence.
	Accept(pcm []byte) (text string, final bool)
	Close()
}

// VoskTranscriber wraps an offline Vosk model. A missing model directory
// is fatal at construction; there is no degraded mode without recognition.
type VoskTranscriber struct {
	model *vosk.VoskModel
	rec   *vosk.VoskRecognizer
	log   logx.Logger
}

func NewVoskTranscriber(modelPath string, sampleRate int, log logx.Logger) (*VoskTranscriber, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("recognition model %q: %w", modelPath, err)
	}

	vosk.SetLogLevel(-1)
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load recognition model %q: %w", modelPath, err)
	}
	rec, err := vosk.NewRecognizer(model, float64(sampleRate))
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create recognizer: %w", err)
	}
	return &VoskTranscriber{model: model, rec: rec, log: log}, nil
}

func (t *VoskTranscriber) Accept(pcm []byte) (string, bool) {
	if t.rec.AcceptWaveform(pcm) == 0 {
		return "", false
	}
	var res struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(t.rec.Result()), &res); err != nil {
		t.log.Warn("unreadable recognizer result", logx.Err(err))
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(res.Text)), true
}

func (t *VoskTranscriber) Close() {
	t.rec.Free()
	t.model.Free()
}
