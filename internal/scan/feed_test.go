package scan

import (
	"context"
	"net/url"
	"testing"

	"solana-token-radar/internal/domain"
)

type staticFetcher struct {
	body []byte
	path string
}

func (f *staticFetcher) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	f.path = path
	return f.body, nil
}

func TestFeedScannerParsesRSS(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <item>
      <title>New token spotted</title>
      <description>presale live now</description>
      <link>https://example.com/post/1</link>
      <guid>post-1</guid>
      <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/post/2</link>
    </item>
  </channel>
</rss>`)

	fetcher := &staticFetcher{body: body}
	s := NewFeedScanner(fetcher)
	src := &domain.MonitoredSource{ID: "src-1", Type: domain.SourceFeed, Identifier: "/feed.xml"}

	mentions, err := s.Scan(context.Background(), src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if fetcher.path != "/feed.xml" {
		t.Errorf("fetched %q, want /feed.xml", fetcher.path)
	}
	if len(mentions) != 2 {
		t.Fatalf("got %d mentions, want 2", len(mentions))
	}
	if mentions[0].ItemID != "post-1" {
		t.Errorf("ItemID = %q, want post-1 from guid", mentions[0].ItemID)
	}
	if mentions[0].Text != "New token spotted\n\npresale live now" {
		t.Errorf("unexpected text %q", mentions[0].Text)
	}
	if mentions[0].SeenAt.IsZero() {
		t.Error("pubDate not parsed")
	}
	// No guid falls back to the link.
	if mentions[1].ItemID != "https://example.com/post/2" {
		t.Errorf("ItemID = %q, want the link", mentions[1].ItemID)
	}
}

func TestSocialScannerParsesListing(t *testing.T) {
	body := []byte(`{"data":{"children":[
{"data":{"id":"abc","title":"found a gem","selftext":"look at this","author":"u1","permalink":"/r/x/abc","created_utc":1700000000}}
]}}`)

	s := NewSocialScanner(&staticFetcher{body: body})
	src := &domain.MonitoredSource{ID: "src-2", Type: domain.SourceSocial, Identifier: "solana"}

	mentions, err := s.Scan(context.Background(), src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(mentions) != 1 {
		t.Fatalf("got %d mentions, want 1", len(mentions))
	}
	m := mentions[0]
	if m.ItemID != "abc" || m.Author != "u1" {
		t.Errorf("unexpected mention %+v", m)
	}
	if m.URL != "https://reddit.com/r/x/abc" {
		t.Errorf("URL = %q", m.URL)
	}
	if m.Text != "found a gem\n\nlook at this" {
		t.Errorf("Text = %q", m.Text)
	}
}
