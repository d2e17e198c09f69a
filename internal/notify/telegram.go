package notify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"veer/internal/config"
	"veer/pkg/logx"
)

// TelegramSink sends fired-task lines to one chat. Sends are rate
// limited so a burst of tasks cannot trip the Bot API flood control.
type TelegramSink struct {
	log     logx.Logger
	bot     *tele.Bot
	chat    tele.ChatID
	limiter *rate.Limiter
}

func NewTelegramSink(cfg config.TelegramNotify, log logx.Logger) (*TelegramSink, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &TelegramSink{
		log:     log,
		bot:     bot,
		chat:    tele.ChatID(cfg.ChatID),
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
	}, nil
}

func (t *TelegramSink) Name() string { return "telegram" }

func (t *TelegramSink) Send(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, text)
	return err
}
