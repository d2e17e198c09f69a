// Package core wires the assistant together: config, speech in and out,
// the intent router, the scheduler and the supporting services, plus the
// supervisor that keeps the long-running loops alive.
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"veer/internal/audio"
	"veer/internal/config"
	"veer/internal/history"
	"veer/internal/lang"
	"veer/internal/light"
	"veer/internal/notify"
	"veer/internal/player"
	"veer/internal/router"
	"veer/internal/sched"
	"veer/internal/speech"
	"veer/internal/speedtest"
	"veer/pkg/logx"
)

// App owns every component of the assistant and their shutdown order.
type App struct {
	log  logx.Logger
	logs *logx.Service

	cfgMgr  *config.Manager
	numbers *lang.Table

	tts     *speech.PiperEngine
	session *speech.Session
	voice   *voiceOut
	stt     speech.Transcriber
	capture *audio.Capture

	sch     *sched.Service
	play    *player.Player
	bell    *player.Bell
	ind     *light.Indicator
	notify  *notify.Service
	journal *history.Journal   // nil when history is disabled
	net     *speedtest.Runner  // nil when speed tests are disabled
	router  *router.Router

	mu        sync.RWMutex
	wakeWords []string

	sup *Supervisor
}

// voiceOut fans speech through the session and remembers the last line so
// the interaction journal can record what was actually said. Buffered
// microphone audio is flushed before synthesis starts; the capture gate
// only covers frames read while the session is already speaking.
type voiceOut struct {
	session *speech.Session
	flush   func()

	mu   sync.Mutex
	last string
}

func (v *voiceOut) Speak(text string) {
	v.mu.Lock()
	v.last = text
	v.mu.Unlock()
	if v.flush != nil {
		v.flush()
	}
	v.session.Speak(text)
}

func (v *voiceOut) lastSpoken() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

func (v *voiceOut) reset() {
	v.mu.Lock()
	v.last = ""
	v.mu.Unlock()
}

// NewApp loads the config and constructs every component. Speech in and
// out are required; the numeral table, history and speed tests degrade or
// switch off individually.
func NewApp(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("component", "config")))

	a := &App{
		log:       log,
		logs:      logs,
		cfgMgr:    mgr,
		wakeWords: cfg.Speech.WakeWords,
	}

	a.numbers, err = lang.LoadTable(cfg.Speech.NumbersPath)
	if err != nil {
		// Arithmetic and number words degrade; everything else still works.
		log.Warn("numeral table unavailable",
			logx.String("path", cfg.Speech.NumbersPath), logx.Err(err))
		a.numbers = lang.NewTable(nil)
	}

	a.tts, err = speech.NewPiperEngine(
		cfg.Speech.PiperBin, cfg.Speech.PiperModel, cfg.Speech.AplayDevice,
		log.With(logx.String("component", "tts")))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("start tts: %w", err)
	}

	cooldown, _ := config.ParseDurationOrDefault(
		"speech.cooldown", cfg.Speech.Cooldown, 700*time.Millisecond)
	a.session = speech.NewSession(a.tts, cooldown, log.With(logx.String("component", "speech")))
	a.voice = &voiceOut{session: a.session}

	a.stt, err = speech.NewVoskTranscriber(
		cfg.Speech.ModelPath, cfg.Audio.SampleRate,
		log.With(logx.String("component", "stt")))
	if err != nil {
		a.tts.Close()
		logs.Close()
		return nil, fmt.Errorf("start stt: %w", err)
	}

	a.bell = player.NewBell(cfg.Alarm.SoundPath, log.With(logx.String("component", "bell")))
	a.sch = sched.New(a.voice, a.bell, log.With(logx.String("component", "sched")))
	a.play = player.New(cfg.Songs.Dir, a.voice, log.With(logx.String("component", "player")))

	a.ind, err = light.New(cfg.Light.Pin, cfg.Light.Enabled,
		log.With(logx.String("component", "light")))
	if err != nil {
		// GPIO trouble should not take the voice assistant down.
		log.Warn("light control unavailable", logx.Err(err))
		a.ind, _ = light.New(cfg.Light.Pin, false, logx.Nop())
	}

	a.notify = notify.NewService(log.With(logx.String("component", "notify")))
	if cfg.Notify.Telegram.Enabled {
		sink, err := notify.NewTelegramSink(cfg.Notify.Telegram,
			log.With(logx.String("component", "telegram")))
		if err != nil {
			log.Warn("telegram notifier unavailable", logx.Err(err))
		} else {
			a.notify.Add(sink)
		}
	}
	a.sch.SetFireHook(a.notify.TaskFired)

	if cfg.History.Enabled {
		a.journal, err = history.Open(cfg.History.Path, cfg.History.MaxRows,
			log.With(logx.String("component", "history")))
		if err != nil {
			log.Warn("interaction journal unavailable", logx.Err(err))
			a.journal = nil
		}
	}

	if cfg.Speedtest.Enabled {
		timeout, _ := config.ParseDurationOrDefault(
			"speedtest.timeout", cfg.Speedtest.Timeout, 90*time.Second)
		a.net = speedtest.NewRunner(timeout, log.With(logx.String("component", "speedtest")))
	}

	a.capture, err = audio.NewCapture(audio.Config{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	}, a.session.Speaking, log.With(logx.String("component", "audio")))
	if err != nil {
		a.notify.Close()
		a.journal.Close()
		a.stt.Close()
		a.tts.Close()
		logs.Close()
		return nil, fmt.Errorf("open audio capture: %w", err)
	}
	a.voice.flush = a.capture.Flush

	a.router = router.New(router.Deps{
		Log:       log.With(logx.String("component", "router")),
		Speak:     a.voice,
		Numbers:   a.numbers,
		Sched:     a.sch,
		Player:    a.play,
		Light:     a.ind,
		Speedtest: a.net,
	})

	return a, nil
}

// Start brings up the scheduler, audio capture and the long-running loops.
func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx,
		WithLogger(a.log.With(logx.String("component", "supervisor"))),
		WithCancelOnError(true))

	a.sch.Start(a.sup.Context())
	if err := a.capture.Start(a.sup.Context()); err != nil {
		a.sup.Cancel()
		return fmt.Errorf("start audio capture: %w", err)
	}

	a.sup.Go("listen", a.listen)
	a.sup.Go("config-watch", a.cfgMgr.Watch)
	a.sup.Go0("config-reload", a.reloadLoop)

	a.log.Info("assistant started")
	return nil
}

// Stop tears components down in dependency order, each stage bounded so a
// stuck subprocess cannot stall shutdown forever.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		if err := fn(stepCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", name, err)
		}
		if err := stepCtx.Err(); err != nil {
			a.log.Warn("shutdown step overran", logx.String("step", name))
		}
	}

	step("capture", 2*time.Second, func(context.Context) error { return a.capture.Stop() })
	if a.sup != nil {
		step("supervisor", 5*time.Second, a.sup.Stop)
	}
	step("scheduler", 2*time.Second, func(ctx context.Context) error {
		a.sch.Stop(ctx)
		return nil
	})
	step("player", 2*time.Second, func(context.Context) error {
		a.play.Close()
		a.bell.Silence()
		return nil
	})
	step("tts", 3*time.Second, func(context.Context) error { return a.tts.Close() })
	step("stt", 2*time.Second, func(context.Context) error {
		a.stt.Close()
		return nil
	})
	step("audio", 2*time.Second, func(context.Context) error { return a.capture.Close() })
	step("light", time.Second, func(context.Context) error { return a.ind.Close() })
	step("notify", 2*time.Second, func(context.Context) error {
		a.notify.Close()
		return nil
	})
	if a.journal != nil {
		step("history", 2*time.Second, func(context.Context) error { return a.journal.Close() })
	}
	step("logging", time.Second, func(context.Context) error { return a.logs.Close() })

	return firstErr
}

// reloadLoop applies config changes published by the watcher. Only the
// fields that are safe to swap at runtime are applied; the rest need a
// restart and are logged as such.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.applyConfig(cfg)
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if d, err := config.ParseDurationOrDefault(
		"speech.cooldown", cfg.Speech.Cooldown, 700*time.Millisecond); err == nil {
		a.session.SetCooldown(d)
	}
	a.play.SetDir(cfg.Songs.Dir)

	a.mu.Lock()
	a.wakeWords = cfg.Speech.WakeWords
	a.mu.Unlock()

	a.log.Info("configuration reloaded")
}

func (a *App) currentWakeWords() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.wakeWords
}

// lowerWakeWords returns the wake words lowercased once per utterance so
// Latin-script variants match case-insensitively.
func lowerWakeWords(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
