// Package bot runs the Telegram surface: a getUpdates long-poll loop that
// dispatches commands and plain-text analysis requests.
package bot

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"kriptobot/internal/svc"
)

// pollRetryWait spaces out retries after a failed getUpdates call.
const pollRetryWait = 5 * time.Second

// Sender is the outbound half of the Telegram client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Poller is the inbound half of the Telegram client.
type Poller interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Bot wires the Telegram transport to the analysis pipeline.
type Bot struct {
	svcCtx      *svc.ServiceContext
	sender      Sender
	poller      Poller
	pollTimeout int
}

// New constructs a Bot over an existing Telegram client.
func New(svcCtx *svc.ServiceContext, tg *Telegram) *Bot {
	return &Bot{
		svcCtx:      svcCtx,
		sender:      tg,
		poller:      tg,
		pollTimeout: svcCtx.Config.Telegram.PollTimeout,
	}
}

// Run long-polls until ctx is cancelled. Each update is handled in its own
// goroutine so a slow analysis never stalls the poll loop.
func (b *Bot) Run(ctx context.Context) {
	logx.WithContext(ctx).Infof("bot: polling started timeout=%ds", b.pollTimeout)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			logx.WithContext(ctx).Info("bot: polling stopped")
			return
		default:
		}

		updates, err := b.poller.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithContext(ctx).Errorf("bot: poll failed err=%v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryWait):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			go b.handleMessage(ctx, update.Message.Chat.ID, update.Message.Text)
		}
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.sender.SendMessage(ctx, chatID, text); err != nil {
		logx.WithContext(ctx).Errorf("bot: send failed chat=%d err=%v", chatID, err)
	}
}
