package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// PumpFunBaseURL is the public pump.fun frontend API root.
const PumpFunBaseURL = "https://frontend-api.pump.fun"

// PumpFun adapts the pump.fun launch feed to LaunchProvider.
// It feeds the dex source scanner with freshly created tokens.
type PumpFun struct {
	client *Client
}

// NewPumpFun creates the adapter on top of a fetch client.
func NewPumpFun(client *Client) *PumpFun {
	return &PumpFun{client: client}
}

// Compile-time interface check.
var _ LaunchProvider = (*PumpFun)(nil)

type pumpfunCoin struct {
	Mint             string `json:"mint"`
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	CreatedTimestamp int64  `json:"created_timestamp"` // milliseconds
}

// RecentLaunches lists the most recently created tokens, newest first.
func (p *PumpFun) RecentLaunches(ctx context.Context, limit int) ([]Launch, error) {
	body, err := p.client.Get(ctx, "/coins", url.Values{
		"sort":   {"created_timestamp"},
		"order":  {"DESC"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {"0"},
	})
	if err != nil {
		return nil, err
	}

	var coins []pumpfunCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("pumpfun: decode coins: %w", err)
	}

	launches := make([]Launch, 0, len(coins))
	for _, c := range coins {
		if c.Mint == "" {
			continue
		}
		launches = append(launches, Launch{
			Address:   c.Mint,
			Name:      c.Name,
			Symbol:    c.Symbol,
			CreatedAt: time.UnixMilli(c.CreatedTimestamp).UTC(),
		})
	}
	return launches, nil
}
