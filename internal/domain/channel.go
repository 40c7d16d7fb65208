package domain

import "time"

// ChannelType identifies a delivery mechanism for notifications.
type ChannelType string

const (
	ChannelTelegram  ChannelType = "telegram"
	ChannelWebhook   ChannelType = "webhook"
	ChannelDashboard ChannelType = "dashboard"
)

// Channel is a notification destination with its own pacing and stats.
// Corresponds to notification_channels table in PostgreSQL.
type Channel struct {
	ID                string // uuid
	Type              ChannelType
	Identifier        string // chat id or URL
	Active            bool
	MessagesPerMinute int // 0 means unlimited
	MinPriority       AlertPriority
	TotalSent         int64
	TotalFailed       int64
	LastSentAt        time.Time
	AddedAt           time.Time
}

// PriorityAtLeast reports whether p is at or above min.
func PriorityAtLeast(p, min AlertPriority) bool {
	rank := map[AlertPriority]int{
		PriorityLow:      0,
		PriorityMedium:   1,
		PriorityHigh:     2,
		PriorityCritical: 3,
	}
	return rank[p] >= rank[min]
}
