package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage/memory"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func testAlert(priority domain.AlertPriority) *domain.Alert {
	return &domain.Alert{
		ID:           "a-1",
		TokenAddress: "So11111111111111111111111111111111111111112",
		Kind:         domain.AlertPrice,
		Priority:     priority,
		Message:      "price moved +60.0%",
		Value:        60,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func addChannel(t *testing.T, store *memory.ChannelStore, minPriority domain.AlertPriority) *domain.Channel {
	t.Helper()
	ch := &domain.Channel{
		ID:          "ch-" + string(minPriority),
		Type:        domain.ChannelTelegram,
		Identifier:  "12345",
		Active:      true,
		MinPriority: minPriority,
	}
	if err := store.Insert(context.Background(), ch); err != nil {
		t.Fatalf("insert channel: %v", err)
	}
	return ch
}

func TestDeliverRespectsMinPriority(t *testing.T) {
	store := memory.NewChannelStore()
	addChannel(t, store, domain.PriorityLow)
	addChannel(t, store, domain.PriorityCritical)

	bot := &fakeBot{}
	tg := NewTelegram(bot, store, zerolog.Nop())
	tg.Deliver(context.Background(), testAlert(domain.PriorityHigh))

	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 (critical-only channel must be skipped)", len(bot.sent))
	}
	if bot.sent[0].ChatID != 12345 {
		t.Errorf("ChatID = %d, want 12345", bot.sent[0].ChatID)
	}
	if bot.sent[0].ParseMode != "MarkdownV2" {
		t.Errorf("ParseMode = %q, want MarkdownV2", bot.sent[0].ParseMode)
	}
}

func TestDeliverRecordsStats(t *testing.T) {
	store := memory.NewChannelStore()
	ch := addChannel(t, store, domain.PriorityLow)

	bot := &fakeBot{err: errors.New("telegram 502")}
	tg := NewTelegram(bot, store, zerolog.Nop())
	tg.Deliver(context.Background(), testAlert(domain.PriorityMedium))

	channels, err := store.GetActive(context.Background())
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	var got *domain.Channel
	for _, c := range channels {
		if c.ID == ch.ID {
			got = c
		}
	}
	if got == nil {
		t.Fatal("channel missing")
	}
	if got.TotalFailed != 1 || got.TotalSent != 0 {
		t.Errorf("stats sent=%d failed=%d, want 0/1", got.TotalSent, got.TotalFailed)
	}
}

func TestFormatAlertEscapesMarkdown(t *testing.T) {
	text := FormatAlert(testAlert(domain.PriorityHigh))

	if !strings.Contains(text, "PRICE alert") {
		t.Errorf("kind missing from message:\n%s", text)
	}
	if !strings.Contains(text, `price moved \+60\.0%`) {
		t.Errorf("message body not escaped:\n%s", text)
	}
	if strings.Contains(text, "+60.0%") {
		t.Errorf("raw unescaped body leaked:\n%s", text)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := escapeMarkdownV2("a_b*c[d]e(f)g.h-i!j")
	want := `a\_b\*c\[d\]e\(f\)g\.h\-i\!j`
	if got != want {
		t.Errorf("escapeMarkdownV2 = %q, want %q", got, want)
	}
}
