package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Config is the full daemon configuration.
//
// The file may be JSON or YAML (YAML is coerced to JSON before decoding so
// both formats go through the same strict decoder).
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Speech    SpeechConfig    `json:"speech"`
	Audio     AudioConfig     `json:"audio"`
	Songs     SongsConfig     `json:"songs"`
	Alarm     AlarmConfig     `json:"alarm"`
	Light     LightConfig     `json:"light"`
	Notify    NotifyConfig    `json:"notify"`
	History   HistoryConfig   `json:"history"`
	Speedtest SpeedtestConfig `json:"speedtest"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type SpeechConfig struct {
	// ModelPath is the Vosk model directory. Missing model is fatal at startup.
	ModelPath string `json:"model_path"`
	// NumbersPath is the numeral word<->digit JSON table. Missing file only
	// degrades numeral parsing.
	NumbersPath string   `json:"numbers_path"`
	PiperBin    string   `json:"piper_bin"`
	PiperModel  string   `json:"piper_model"`
	AplayDevice string   `json:"aplay_device"`
	WakeWords   []string `json:"wake_words"`
	// Cooldown is a Go duration string (e.g. "700ms"): the window after a
	// spoken response during which recognized utterances are discarded.
	Cooldown string `json:"cooldown"`
}

type AudioConfig struct {
	SampleRate      int `json:"sample_rate"`
	FramesPerBuffer int `json:"frames_per_buffer"`
}

type SongsConfig struct {
	Dir string `json:"dir"`
}

type AlarmConfig struct {
	SoundPath string `json:"sound_path"`
}

type LightConfig struct {
	Enabled bool `json:"enabled"`
	Pin     int  `json:"pin"`
}

type NotifyConfig struct {
	Telegram TelegramNotify `json:"telegram"`
}

type TelegramNotify struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	RatePerSec int    `json:"rate_per_sec"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	MaxRows int    `json:"max_rows"`
}

type SpeedtestConfig struct {
	Enabled bool `json:"enabled"`
	// Timeout is a Go duration string (e.g. "90s").
	Timeout string `json:"timeout"`
}

// Default returns the built-in configuration used when fields are absent.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Speech: SpeechConfig{
			ModelPath:   "model",
			NumbersPath: "config_data.json",
			PiperBin:    "piper/piper",
			PiperModel:  "hi_IN-pratham-medium.onnx",
			AplayDevice: "default",
			WakeWords:   []string{"veer", "वीर"},
			Cooldown:    "700ms",
		},
		Audio:     AudioConfig{SampleRate: 44100, FramesPerBuffer: 4096},
		Songs:     SongsConfig{Dir: "songs"},
		Alarm:     AlarmConfig{SoundPath: "alarm.mp3"},
		Light:     LightConfig{Enabled: false, Pin: 17},
		History:   HistoryConfig{Enabled: false, Path: "veer.db", MaxRows: 5000},
		Speedtest: SpeedtestConfig{Enabled: true, Timeout: "90s"},
	}
}

// Validate rejects configs that would break a hot reload.
func (c *Config) Validate() error {
	if _, err := ParseDurationField("speech.cooldown", c.Speech.Cooldown); err != nil {
		return err
	}
	if _, err := ParseDurationField("speedtest.timeout", c.Speedtest.Timeout); err != nil {
		return err
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("audio.frames_per_buffer must be > 0")
	}
	if c.Light.Enabled && c.Light.Pin < 0 {
		return fmt.Errorf("light.pin must be >= 0")
	}
	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.Token) == "" {
			return fmt.Errorf("notify.telegram.token is required when enabled")
		}
		if c.Notify.Telegram.ChatID == 0 {
			return fmt.Errorf("notify.telegram.chat_id is required when enabled")
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return fmt.Errorf("history.path is required when enabled")
	}
	return nil
}

// decodeStrict decodes JSON bytes into cfg, rejecting unknown fields so
// typos and removed legacy keys are caught during reload.
func decodeStrict(b []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
