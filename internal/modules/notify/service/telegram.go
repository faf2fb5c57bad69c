package service

import (
	"context"
	"fmt"
	"strings"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type statsSource interface {
	Get(ctx context.Context) models.TopStats
}

type trendingSource interface {
	Get(ctx context.Context) models.TrendingSnapshot
	Reset()
}

type sessionStore interface {
	ResetSession(ctx context.Context) error
}

// Telegram sends alerts to a fixed chat and answers /top, /trending and
// /reset commands from it.
type Telegram struct {
	bot      *tgbot.BotAPI
	chatID   int64
	stats    statsSource
	trending trendingSource
	session  sessionStore
}

func NewTelegram(token string, chatID int64, stats statsSource, trending trendingSource, session sessionStore) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID, stats: stats, trending: trending, session: session}, nil
}

func (t *Telegram) Send(_ context.Context, text string) error {
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, text))
	return err
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) error {
	return t.Send(ctx, fmt.Sprintf(format, args...))
}

// Start runs the update loop until the updates channel closes.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	for update := range t.bot.GetUpdatesChan(u) {
		t.handleUpdate(ctx, update)
	}
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "top":
		if err := t.Send(ctx, formatTopStats(t.stats.Get(ctx))); err != nil {
			logger.Error("send /top reply: %v", err)
		}
	case "trending":
		if err := t.Send(ctx, formatTrending(t.trending.Get(ctx))); err != nil {
			logger.Error("send /trending reply: %v", err)
		}
	case "reset":
		// clear stored session data first so a new baseline cannot be
		// computed from ticks of the old session
		if err := t.session.ResetSession(ctx); err != nil {
			logger.Error("reset session: %v", err)
			if err := t.Send(ctx, "session reset failed"); err != nil {
				logger.Error("send /reset reply: %v", err)
			}
			return
		}
		t.trending.Reset()
		if err := t.Send(ctx, "session reset, trending baselines cleared"); err != nil {
			logger.Error("send /reset reply: %v", err)
		}
	}
}

func formatTopStats(ts models.TopStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "24h movers (universe %d, as of %s UTC",
		ts.UniverseSize, ts.UpdatedAt.Format("15:04:05"))
	if ts.Stale {
		b.WriteString(", stale")
	}
	b.WriteString(")\n")

	b.WriteString("Gainers:\n")
	writeMovers(&b, ts.Gainers)
	b.WriteString("Losers:\n")
	writeMovers(&b, ts.Losers)
	return b.String()
}

func formatTrending(snap models.TrendingSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s trending (as of %s UTC",
		snap.Meta.Label, snap.UpdatedAt.Format("15:04:05"))
	if snap.Stale {
		b.WriteString(", stale")
	}
	b.WriteString(")\n")

	b.WriteString("Leaders:\n")
	writeMovers(&b, snap.Gainers)
	b.WriteString("Laggards:\n")
	writeMovers(&b, snap.Losers)
	return b.String()
}

func writeMovers(b *strings.Builder, movers []models.Mover) {
	if len(movers) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, m := range movers {
		fmt.Fprintf(b, "  %s %+.2f%% @ %.8g\n", m.Symbol, m.PriceChangePercent, m.LastPrice)
	}
}
