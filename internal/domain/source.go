package domain

import (
	"fmt"
	"time"
)

// SourceType identifies the scanning strategy for a monitored source.
type SourceType string

const (
	SourceChat       SourceType = "chat"
	SourceFeed       SourceType = "feed"
	SourceRepository SourceType = "repository"
	SourceSocial     SourceType = "social"
	SourceDex        SourceType = "dex"
)

// Scan interval bounds for monitored sources.
const (
	MinScanInterval = 10 * time.Second
	MaxScanInterval = 24 * time.Hour
)

// MaxSourceWeight bounds the source trust weight.
const MaxSourceWeight = 10.0

// MonitoredSource is a place the scanner watches for token mentions.
// Corresponds to monitored_sources table in PostgreSQL.
type MonitoredSource struct {
	ID            string // uuid
	Type          SourceType
	Identifier    string // chat id, feed URL, owner/repo, subreddit...
	Name          string
	Active        bool
	Weight        float64 // 0..10, trust multiplier
	ScanInterval  time.Duration
	Keywords      []string // case-insensitive substring filters
	Patterns      []string // regex filters
	ErrorCount    int
	LastError     string
	LastScannedAt time.Time
	LastSeenID    string // cursor into the source's item stream
	AddedAt       time.Time
}

// Validate checks configured bounds before a source is accepted.
func (s *MonitoredSource) Validate() error {
	switch s.Type {
	case SourceChat, SourceFeed, SourceRepository, SourceSocial, SourceDex:
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	if s.Identifier == "" {
		return fmt.Errorf("source identifier is required")
	}
	if s.ScanInterval < MinScanInterval || s.ScanInterval > MaxScanInterval {
		return fmt.Errorf("scan interval %s outside [%s, %s]", s.ScanInterval, MinScanInterval, MaxScanInterval)
	}
	if s.Weight < 0 || s.Weight > MaxSourceWeight {
		return fmt.Errorf("weight %.2f outside [0, %.0f]", s.Weight, MaxSourceWeight)
	}
	return nil
}

// Mention is one item pulled from a source that may reference tokens.
type Mention struct {
	SourceID   string
	SourceType SourceType
	ItemID     string // unique within the source, dedup key with SourceID
	Text       string
	Author     string
	URL        string
	SeenAt     time.Time
}
