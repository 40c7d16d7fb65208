// Package notify delivers alerts to external channels.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"solana-token-radar/internal/broadcast"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// Sender is the slice of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram pushes alerts to configured Telegram channels, pacing each chat
// by its configured message budget and recording delivery stats.
type Telegram struct {
	bot      Sender
	channels storage.ChannelStore
	log      zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewTelegram(bot Sender, channels storage.ChannelStore, log zerolog.Logger) *Telegram {
	return &Telegram{
		bot:      bot,
		channels: channels,
		log:      log.With().Str("component", "notify.telegram").Logger(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Attach subscribes the notifier to the hub's alert stream.
func (t *Telegram) Attach(hub *broadcast.Hub) string {
	return hub.Subscribe(broadcast.TopicAlerts, func(event broadcast.Event) error {
		alert, ok := event.Payload.(*domain.Alert)
		if !ok {
			return nil
		}
		t.Deliver(context.Background(), alert)
		return nil
	})
}

// Deliver sends one alert to every active Telegram channel whose minimum
// priority admits it. Per-channel failures are counted, not propagated, so
// one broken chat does not stop the rest.
func (t *Telegram) Deliver(ctx context.Context, alert *domain.Alert) {
	channels, err := t.channels.GetActive(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("load notification channels")
		return
	}

	text := FormatAlert(alert)
	for _, ch := range channels {
		if ch.Type != domain.ChannelTelegram {
			continue
		}
		if !domain.PriorityAtLeast(alert.Priority, ch.MinPriority) {
			continue
		}
		if err := t.limiter(ch).Wait(ctx); err != nil {
			return
		}

		err := t.send(ch.Identifier, text)
		if err != nil {
			t.log.Warn().Err(err).Str("channel", ch.ID).Msg("telegram delivery failed")
		}
		if recErr := t.channels.RecordDelivery(ctx, ch.ID, err == nil, time.Now().UTC()); recErr != nil {
			t.log.Error().Err(recErr).Str("channel", ch.ID).Msg("record delivery")
		}
	}
}

func (t *Telegram) send(chatIdentifier, text string) error {
	chatID, err := strconv.ParseInt(chatIdentifier, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatIdentifier, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	_, err = t.bot.Send(msg)
	return err
}

// limiter returns the pacing limiter for a channel, creating it on first
// use from the channel's per-minute budget.
func (t *Telegram) limiter(ch *domain.Channel) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if lim, ok := t.limiters[ch.ID]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if ch.MessagesPerMinute > 0 {
		lim = rate.NewLimiter(rate.Limit(float64(ch.MessagesPerMinute)/60), 1)
	}
	t.limiters[ch.ID] = lim
	return lim
}

// priorityEmoji maps alert priorities to their message markers.
var priorityEmoji = map[domain.AlertPriority]string{
	domain.PriorityLow:      "ℹ️",
	domain.PriorityMedium:   "🔔",
	domain.PriorityHigh:     "🚨",
	domain.PriorityCritical: "☠️",
}

// FormatAlert renders an alert as a Telegram MarkdownV2 message.
func FormatAlert(a *domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s alert* \\[%s\\]\n",
		priorityEmoji[a.Priority], escapeMarkdownV2(string(a.Kind)), escapeMarkdownV2(string(a.Priority)))
	fmt.Fprintf(&b, "`%s`\n", escapeMarkdownV2(a.TokenAddress))
	fmt.Fprintf(&b, "%s\n", escapeMarkdownV2(a.Message))
	fmt.Fprintf(&b, "📅 %s", escapeMarkdownV2(a.CreatedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
