package scan

import (
	"context"
	"strings"
	"sync"
	"time"

	"solana-token-radar/internal/domain"
)

// Sentiment word lists for the mention tally. Crude, but mention text in
// this corner of the market is not subtle.
var (
	positiveWords = []string{"moon", "gem", "bullish", "pump", "100x", "lfg", "ape", "early"}
	negativeWords = []string{"rug", "scam", "dump", "honeypot", "avoid", "bearish", "exit"}
)

type tallyEntry struct {
	at        time.Time
	sentiment float64
	author    string
}

// MentionTally accumulates scanner mentions per token and serves them as
// social stats. It stands in for a social data API: the scanners already
// see the chatter, so the tally just keeps score.
type MentionTally struct {
	window time.Duration

	mu      sync.Mutex
	entries map[string][]tallyEntry
	now     func() time.Time
}

func NewMentionTally(window time.Duration) *MentionTally {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &MentionTally{
		window:  window,
		entries: make(map[string][]tallyEntry),
		now:     time.Now,
	}
}

// Record attributes a mention to every token address found in it.
func (t *MentionTally) Record(mention domain.Mention, addresses []string) {
	if len(addresses) == 0 {
		return
	}
	entry := tallyEntry{
		at:        mention.SeenAt,
		sentiment: scoreSentiment(mention.Text),
		author:    mention.Author,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, addr := range addresses {
		t.entries[addr] = append(t.entries[addr], entry)
	}
}

// TokenSocial reports mention stats for a token over the tally window.
func (t *MentionTally) TokenSocial(ctx context.Context, address string) (*domain.SocialStats, error) {
	cutoff := t.now().Add(-t.window)

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.entries[address][:0]
	for _, e := range t.entries[address] {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(t.entries, address)
	} else {
		t.entries[address] = kept
	}

	stats := &domain.SocialStats{
		TokenAddress: address,
		FetchedAt:    t.now().UTC(),
	}
	authors := make(map[string]struct{})
	var sentimentSum float64
	for _, e := range kept {
		stats.Mentions24h++
		sentimentSum += e.sentiment
		if e.author != "" {
			authors[e.author] = struct{}{}
		}
	}
	if stats.Mentions24h > 0 {
		stats.Sentiment = sentimentSum / float64(stats.Mentions24h)
	}
	stats.UniqueAuthors = int64(len(authors))
	return stats, nil
}

// scoreSentiment returns a polarity in [-1, 1] from word hits.
func scoreSentiment(text string) float64 {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}
