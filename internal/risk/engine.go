// Package risk scores token safety through eight weighted checks over
// security, market, and social data.
package risk

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"solana-token-radar/internal/cache"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/provider"
)

// MarketSource supplies merged market snapshots. Satisfied by
// aggregate.Aggregator.
type MarketSource interface {
	Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error)
}

// Options configures the engine.
type Options struct {
	CacheTTL     time.Duration
	CacheEntries int
	MinLiquidity float64 // liquidity floor for the volume health check, USD
}

func (o *Options) withDefaults() {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.CacheEntries <= 0 {
		o.CacheEntries = 1024
	}
	if o.MinLiquidity <= 0 {
		o.MinLiquidity = 10_000
	}
}

// Engine runs the weighted risk checks. Assessments are cached and
// concurrent callers for the same token share one computation.
type Engine struct {
	security provider.SecurityProvider
	market   MarketSource
	social   provider.SocialProvider
	opts     Options

	group singleflight.Group
	cache *cache.Cache[*domain.RiskAssessment]
	log   zerolog.Logger
	now   func() time.Time
}

// NewEngine creates a risk engine over the given data sources.
func NewEngine(security provider.SecurityProvider, market MarketSource, social provider.SocialProvider, opts Options, log zerolog.Logger) *Engine {
	opts.withDefaults()
	return &Engine{
		security: security,
		market:   market,
		social:   social,
		opts:     opts,
		cache:    cache.New[*domain.RiskAssessment](opts.CacheTTL, opts.CacheEntries),
		log:      log.With().Str("component", "risk").Logger(),
		now:      time.Now,
	}
}

// Assess returns the weighted risk assessment for a token, computing it at
// most once per cache TTL.
func (e *Engine) Assess(ctx context.Context, address string) (*domain.RiskAssessment, error) {
	if cached, ok := e.cache.Get(address); ok {
		return cached, nil
	}

	v, err, _ := e.group.Do(address, func() (any, error) {
		if cached, ok := e.cache.Get(address); ok {
			return cached, nil
		}
		assessment := e.assess(ctx, address)
		e.cache.Set(address, assessment)
		return assessment, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.RiskAssessment), nil
}

// assess fetches the three inputs concurrently, then derives every check.
// A missing input degrades its checks to score 0, confidence 0.
func (e *Engine) assess(ctx context.Context, address string) *domain.RiskAssessment {
	var (
		wg       sync.WaitGroup
		report   *domain.SecurityReport
		snapshot *domain.MarketSnapshot
		stats    *domain.SocialStats

		reportErr, snapErr, statsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		report, reportErr = e.security.TokenSecurity(ctx, address)
	}()
	go func() {
		defer wg.Done()
		snapshot, snapErr = e.market.Snapshot(ctx, address)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = e.social.TokenSocial(ctx, address)
	}()
	wg.Wait()

	checks := make(map[domain.CheckKind]domain.CheckResult, len(checkWeights))

	if reportErr != nil {
		e.log.Warn().Err(reportErr).Str("token", address).Msg("security fetch failed")
		reason := reportErr.Error()
		for _, kind := range []domain.CheckKind{
			domain.CheckMintAuthority,
			domain.CheckLiquidityLock,
			domain.CheckHolderConcentration,
			domain.CheckContractAudit,
			domain.CheckTax,
		} {
			checks[kind] = failedCheck(kind, reason)
		}
	} else {
		checks[domain.CheckMintAuthority] = checkMintAuthority(report)
		checks[domain.CheckLiquidityLock] = checkLiquidityLock(report)
		checks[domain.CheckHolderConcentration] = checkHolderConcentration(report)
		checks[domain.CheckContractAudit] = checkContractAudit(report)
		checks[domain.CheckTax] = checkTax(report)
	}

	if snapErr != nil {
		e.log.Warn().Err(snapErr).Str("token", address).Msg("market fetch failed")
		checks[domain.CheckVolumeHealth] = failedCheck(domain.CheckVolumeHealth, snapErr.Error())
		checks[domain.CheckVolatility] = failedCheck(domain.CheckVolatility, snapErr.Error())
	} else {
		checks[domain.CheckVolumeHealth] = checkVolumeHealth(snapshot, e.opts.MinLiquidity)
		checks[domain.CheckVolatility] = checkVolatility(snapshot)
	}

	if statsErr != nil {
		e.log.Warn().Err(statsErr).Str("token", address).Msg("social fetch failed")
		checks[domain.CheckSocialSentiment] = failedCheck(domain.CheckSocialSentiment, statsErr.Error())
	} else {
		checks[domain.CheckSocialSentiment] = checkSocialSentiment(stats)
	}

	return e.combine(address, checks)
}

// combine folds check results into the overall assessment.
func (e *Engine) combine(address string, checks map[domain.CheckKind]domain.CheckResult) *domain.RiskAssessment {
	var (
		weighted    float64
		totalWeight float64
		confSum     float64
		failed      []string
	)
	for kind, weight := range checkWeights {
		res := checks[kind]
		weighted += res.Score * res.Confidence * weight
		totalWeight += weight
		confSum += res.Confidence
		if res.Err != "" {
			failed = append(failed, string(kind))
		}
	}
	observability.RecordRiskAssessment(failed)

	assessment := &domain.RiskAssessment{
		TokenAddress:   address,
		OverallScore:   weighted / totalWeight,
		Checks:         checks,
		DataConfidence: confSum / float64(len(checkWeights)),
		AssessedAt:     e.now().UTC(),
	}

	// Stable warning order regardless of map iteration.
	kinds := make([]domain.CheckKind, 0, len(checks))
	for kind := range checks {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		if checks[kind].Score < warningThreshold {
			assessment.Warnings = append(assessment.Warnings, checkWarnings[kind])
			assessment.Recommendations = append(assessment.Recommendations, checkRecommendations[kind])
		}
	}
	return assessment
}

// Invalidate drops the cached assessment for a token.
func (e *Engine) Invalidate(address string) {
	e.cache.Delete(address)
}
