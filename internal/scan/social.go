package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"solana-token-radar/internal/domain"
)

// SocialScanner reads new posts from a subreddit listing. The source
// identifier is the subreddit name.
type SocialScanner struct {
	client Fetcher
	limit  int
}

func NewSocialScanner(client Fetcher) *SocialScanner {
	return &SocialScanner{client: client, limit: 50}
}

func (s *SocialScanner) Type() domain.SourceType { return domain.SourceSocial }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				SelfText   string  `json:"selftext"`
				Author     string  `json:"author"`
				Permalink  string  `json:"permalink"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *SocialScanner) Scan(ctx context.Context, src *domain.MonitoredSource) ([]domain.Mention, error) {
	query := url.Values{"limit": {strconv.Itoa(s.limit)}}
	body, err := s.client.Get(ctx, "/r/"+src.Identifier+"/new.json", query)
	if err != nil {
		return nil, fmt.Errorf("fetch subreddit %s: %w", src.Identifier, err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse subreddit listing: %w", err)
	}

	var mentions []domain.Mention
	for _, child := range listing.Data.Children {
		post := child.Data
		mentions = append(mentions, domain.Mention{
			SourceID:   src.ID,
			SourceType: domain.SourceSocial,
			ItemID:     post.ID,
			Text:       post.Title + "\n\n" + post.SelfText,
			Author:     post.Author,
			URL:        "https://reddit.com" + post.Permalink,
			SeenAt:     time.Unix(int64(post.CreatedUTC), 0).UTC(),
		})
	}
	return mentions, nil
}
