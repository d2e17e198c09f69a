package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"logging":{"level":"debug","console":true}}`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("Audio.SampleRate = %d, want default 44100", cfg.Audio.SampleRate)
	}
	if len(cfg.Speech.WakeWords) == 0 {
		t.Fatal("expected default wake words")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", "songs:\n  dir: /srv/songs\nspeech:\n  cooldown: 500ms\n")

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Songs.Dir != "/srv/songs" {
		t.Fatalf("Songs.Dir = %q", cfg.Songs.Dir)
	}
	if cfg.Speech.Cooldown != "500ms" {
		t.Fatalf("Speech.Cooldown = %q", cfg.Speech.Cooldown)
	}
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yml", "songz:\n  dir: /srv/songs\n")

	m := NewManager(path)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error: yaml must go through the strict decoder")
	}
}

func TestPublishDuringUnsubscribe(t *testing.T) {
	t.Parallel()
	m := NewManager("unused.json")
	cfg := Default()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					m.publish(&cfg)
				}
			}
		}()
	}

	// A send into a channel being closed panics; churn subscriptions
	// against the publishers to catch any send outside the lock.
	for i := 0; i < 500; i++ {
		sub := m.Subscribe(1)
		m.Unsubscribe(sub)
	}
	close(done)
	wg.Wait()
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"loging":{"level":"info"}}`)

	m := NewManager(path)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"speech":{"cooldown":"soon"}}`)

	m := NewManager(path)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for invalid cooldown")
	}
}

func TestValidateTelegramNotify(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Notify.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error: enabled telegram notify without token")
	}
	cfg.Notify.Telegram.Token = "123:abc"
	cfg.Notify.Telegram.ChatID = 42
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("x", "2m")
	if err != nil || d.Minutes() != 2 {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty should be 0, got %v, %v", d, err)
	}
}
