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

// RepositoryScanner reads recent commits from a GitHub repository. The
// source identifier is "owner/repo".
type RepositoryScanner struct {
	client Fetcher
	limit  int
}

func NewRepositoryScanner(client Fetcher) *RepositoryScanner {
	return &RepositoryScanner{client: client, limit: 30}
}

func (s *RepositoryScanner) Type() domain.SourceType { return domain.SourceRepository }

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
}

func (s *RepositoryScanner) Scan(ctx context.Context, src *domain.MonitoredSource) ([]domain.Mention, error) {
	query := url.Values{"per_page": {strconv.Itoa(s.limit)}}
	body, err := s.client.Get(ctx, "/repos/"+src.Identifier+"/commits", query)
	if err != nil {
		return nil, fmt.Errorf("fetch commits for %s: %w", src.Identifier, err)
	}

	var commits []githubCommit
	if err := json.Unmarshal(body, &commits); err != nil {
		return nil, fmt.Errorf("parse commit list: %w", err)
	}

	var mentions []domain.Mention
	for _, c := range commits {
		seenAt := time.Now().UTC()
		if t, err := time.Parse(time.RFC3339, c.Commit.Author.Date); err == nil {
			seenAt = t.UTC()
		}
		mentions = append(mentions, domain.Mention{
			SourceID:   src.ID,
			SourceType: domain.SourceRepository,
			ItemID:     c.SHA,
			Text:       c.Commit.Message,
			Author:     c.Commit.Author.Name,
			URL:        c.HTMLURL,
			SeenAt:     seenAt,
		})
	}
	return mentions, nil
}
