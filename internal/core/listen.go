package core

import (
	"context"
	"time"

	"veer/internal/history"
	"veer/internal/lang"
	"veer/internal/speech"
	"veer/pkg/logx"
)

// listen is the main recognition loop: PCM chunks in, routed commands out.
func (a *App) listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-a.capture.Output():
			if !ok {
				return nil
			}
			text, final := a.stt.Accept(chunk)
			if !final || text == "" {
				continue
			}
			a.handleUtterance(ctx, text)
		}
	}
}

func (a *App) handleUtterance(ctx context.Context, heard string) {
	if !a.session.Accept(heard, time.Now()) {
		return
	}
	a.log.Debug("utterance", logx.String("text", heard))

	wake := lowerWakeWords(a.currentWakeWords())
	command, ok := speech.StripWakeWord(heard, wake)
	if !ok {
		return
	}

	a.voice.reset()
	intent := a.router.Route(ctx, lang.Normalize(command))
	if intent == "" {
		return
	}
	a.log.Info("command handled",
		logx.String("intent", intent), logx.String("heard", heard))

	if a.journal == nil {
		return
	}
	recCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	err := a.journal.Record(recCtx, history.Entry{
		Heard:    heard,
		Intent:   intent,
		Response: a.voice.lastSpoken(),
	})
	if err != nil {
		a.log.Warn("journal write failed", logx.Err(err))
	}
}
