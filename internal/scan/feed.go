package scan

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"solana-token-radar/internal/domain"
)

// Fetcher is the slice of the fetch client the scanners need.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// FeedScanner reads RSS and Atom feeds. The source identifier is the feed
// path relative to the fetch client's base URL, or a full URL when the
// client was built with an empty base.
type FeedScanner struct {
	client Fetcher
	limit  int
}

func NewFeedScanner(client Fetcher) *FeedScanner {
	return &FeedScanner{client: client, limit: 50}
}

func (s *FeedScanner) Type() domain.SourceType { return domain.SourceFeed }

type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	// Atom documents carry entries at the top level.
	Entries []atomEntry `xml:"entry"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Author      string `xml:"creator"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	ID      string `xml:"id"`
	Updated string `xml:"updated"`
	Link    struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Author struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

func (s *FeedScanner) Scan(ctx context.Context, src *domain.MonitoredSource) ([]domain.Mention, error) {
	body, err := s.client.Get(ctx, src.Identifier, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	var doc rssDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var mentions []domain.Mention
	for i, item := range doc.Channel.Items {
		if i >= s.limit {
			break
		}
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		mentions = append(mentions, domain.Mention{
			SourceID:   src.ID,
			SourceType: domain.SourceFeed,
			ItemID:     id,
			Text:       item.Title + "\n\n" + item.Description,
			Author:     item.Author,
			URL:        item.Link,
			SeenAt:     parseFeedTime(item.PubDate),
		})
	}
	for i, entry := range doc.Entries {
		if i >= s.limit {
			break
		}
		mentions = append(mentions, domain.Mention{
			SourceID:   src.ID,
			SourceType: domain.SourceFeed,
			ItemID:     entry.ID,
			Text:       entry.Title + "\n\n" + entry.Summary,
			Author:     entry.Author.Name,
			URL:        entry.Link.Href,
			SeenAt:     parseFeedTime(entry.Updated),
		})
	}
	return mentions, nil
}

// parseFeedTime tries the formats feeds use in the wild. Unparseable dates
// fall back to now so dedup still works off the item id.
func parseFeedTime(s string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
