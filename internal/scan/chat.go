package scan

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"solana-token-radar/internal/domain"
)

// ChatScanner collects Telegram messages. Bot updates arrive as a stream,
// so a background pump buffers them per chat and Scan drains whatever
// accumulated for the source since the previous scan. The source
// identifier is the chat id or the @username.
type ChatScanner struct {
	bot *tgbotapi.BotAPI

	mu      sync.Mutex
	pending map[string][]domain.Mention
	maxBuf  int
}

func NewChatScanner(bot *tgbotapi.BotAPI) *ChatScanner {
	return &ChatScanner{
		bot:     bot,
		pending: make(map[string][]domain.Mention),
		maxBuf:  500,
	}
}

func (s *ChatScanner) Type() domain.SourceType { return domain.SourceChat }

// Run consumes bot updates until ctx is done. Call it once, in its own
// goroutine, before any chat source is scanned.
func (s *ChatScanner) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := s.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.buffer(update)
		}
	}
}

func (s *ChatScanner) buffer(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.Text == "" {
		return
	}

	author := ""
	if msg.From != nil {
		author = msg.From.UserName
	}
	mention := domain.Mention{
		SourceType: domain.SourceChat,
		ItemID:     strconv.FormatInt(msg.Chat.ID, 10) + ":" + strconv.Itoa(msg.MessageID),
		Text:       msg.Text,
		Author:     author,
		SeenAt:     time.Unix(int64(msg.Date), 0).UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range chatKeys(msg.Chat) {
		buf := append(s.pending[key], mention)
		if len(buf) > s.maxBuf {
			buf = buf[len(buf)-s.maxBuf:]
		}
		s.pending[key] = buf
	}
}

// chatKeys returns every identifier form a source may have used for a chat.
func chatKeys(chat *tgbotapi.Chat) []string {
	keys := []string{strconv.FormatInt(chat.ID, 10)}
	if chat.UserName != "" {
		keys = append(keys, "@"+chat.UserName)
	}
	return keys
}

func (s *ChatScanner) Scan(ctx context.Context, src *domain.MonitoredSource) ([]domain.Mention, error) {
	key := src.Identifier
	if !strings.HasPrefix(key, "@") {
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			key = "@" + key
		}
	}

	s.mu.Lock()
	buffered := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	mentions := make([]domain.Mention, len(buffered))
	copy(mentions, buffered)
	for i := range mentions {
		mentions[i].SourceID = src.ID
	}
	return mentions, nil
}
