package domain

import "time"

// Field identifies a single metric inside a MarketSnapshot.
type Field uint16

const (
	FieldPrice Field = 1 << iota
	FieldMarketCap
	FieldVolume24h
	FieldLiquidity
	FieldHolderCount
	FieldBuyCount24h
	FieldSellCount24h
	FieldPriceChange24h
)

// FieldMask records which snapshot fields were actually reported upstream.
// A zero bit means "no value", which is distinct from a reported zero.
type FieldMask uint16

// Has reports whether f was reported.
func (m FieldMask) Has(f Field) bool { return uint16(m)&uint16(f) != 0 }

// With returns a copy of the mask with f set.
func (m FieldMask) With(f Field) FieldMask { return FieldMask(uint16(m) | uint16(f)) }

// IsEmpty reports whether no field was reported at all.
func (m FieldMask) IsEmpty() bool { return m == 0 }

// MarketSnapshot is one observation of a token's market state, merged from
// one or more providers. Fields whose mask bit is unset hold zero values
// that must not be interpreted as data.
type MarketSnapshot struct {
	TokenAddress   string
	CapturedAt     time.Time
	Price          float64
	MarketCap      float64
	Volume24h      float64
	Liquidity      float64
	HolderCount    int64
	BuyCount24h    int64
	SellCount24h   int64
	PriceChange24h float64 // percent
	Fields         FieldMask
	Providers      []string // providers that contributed at least one field
	Stale          bool     // true when this is retained state after a total provider failure
}

// SecurityReport holds contract-level facts from a security provider.
type SecurityReport struct {
	TokenAddress     string
	MintAuthority    bool    // mint authority still enabled
	FreezeAuthority  bool    // freeze authority still enabled
	LiquidityLockPct float64 // 0..100
	BuyTaxPct        float64
	SellTaxPct       float64
	Audited          bool
	AuditPassed      bool
	TopHolderPct     float64 // share held by the largest non-pool holder, 0..1
	Honeypot         bool
	FetchedAt        time.Time
}

// SocialStats holds mention counts and sentiment for the social checks.
type SocialStats struct {
	TokenAddress  string
	Mentions24h   int64
	Sentiment     float64 // -1..1
	UniqueAuthors int64
	FetchedAt     time.Time
}

// WhaleStats summarizes large-transfer activity for the trend engine.
type WhaleStats struct {
	TokenAddress string
	BuyCount     int64 // transfers above the whale threshold, inbound
	SellCount    int64
	LargestUSD   float64
	FetchedAt    time.Time
}
