// Package alert evaluates movement rules over consecutive token states and
// persists the alerts that fire.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/storage"
)

// Thresholds are the minimum movements that fire each rule.
type Thresholds struct {
	PriceChangePct    float64 // percent move since previous snapshot
	VolumeRatio       float64 // current/previous volume
	HolderGrowthPct   float64
	ScoreDrop         float64 // combined score points lost
	LiquidityDrainPct float64 // percent of liquidity removed
	Cooldown          time.Duration
}

// DefaultThresholds returns the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceChangePct:    20,
		VolumeRatio:       3,
		HolderGrowthPct:   10,
		ScoreDrop:         20,
		LiquidityDrainPct: 30,
		Cooldown:          30 * time.Minute,
	}
}

// highPriceChangePct is the move at which a price or volume alert is
// upgraded from MEDIUM to HIGH.
const highPriceChangePct = 50

// State is one observation the rules compare against the previous one.
type State struct {
	Snapshot *domain.MarketSnapshot
	Score    *domain.CompositeScore
}

// Engine evaluates alert rules. Fired alerts are deduplicated per
// (token, kind) within the cooldown window and persisted.
type Engine struct {
	store      storage.AlertStore
	thresholds Thresholds
	log        zerolog.Logger
	now        func() time.Time
}

func NewEngine(store storage.AlertStore, thresholds Thresholds, log zerolog.Logger) *Engine {
	if thresholds.Cooldown <= 0 {
		thresholds.Cooldown = 30 * time.Minute
	}
	return &Engine{
		store:      store,
		thresholds: thresholds,
		log:        log.With().Str("component", "alert").Logger(),
		now:        time.Now,
	}
}

// Evaluate runs every rule over (prev, cur) and returns the alerts that
// fired and survived cooldown dedup. prev may hold nil members on the
// first observation; rules needing them are skipped.
func (e *Engine) Evaluate(ctx context.Context, address string, prev, cur State) ([]*domain.Alert, error) {
	var fired []*domain.Alert
	for _, candidate := range e.rules(address, prev, cur) {
		ok, err := e.admit(ctx, candidate)
		if err != nil {
			return fired, err
		}
		if !ok {
			observability.RecordAlertSuppressed(string(candidate.Kind))
			continue
		}
		if err := e.store.Insert(ctx, candidate); err != nil {
			return fired, fmt.Errorf("persist alert: %w", err)
		}
		observability.RecordAlert(string(candidate.Kind), string(candidate.Priority))
		e.log.Info().
			Str("token", address).
			Str("kind", string(candidate.Kind)).
			Str("priority", string(candidate.Priority)).
			Float64("value", candidate.Value).
			Msg("alert fired")
		fired = append(fired, candidate)
	}
	return fired, nil
}

func (e *Engine) rules(address string, prev, cur State) []*domain.Alert {
	var out []*domain.Alert
	add := func(kind domain.AlertKind, priority domain.AlertPriority, value float64, format string, args ...any) {
		out = append(out, &domain.Alert{
			ID:           uuid.NewString(),
			TokenAddress: address,
			Kind:         kind,
			Priority:     priority,
			Message:      fmt.Sprintf(format, args...),
			Value:        value,
			CreatedAt:    e.now().UTC(),
		})
	}

	prevSnap, curSnap := prev.Snapshot, cur.Snapshot
	if prevSnap != nil && curSnap != nil {
		if prevSnap.Fields.Has(domain.FieldPrice) && curSnap.Fields.Has(domain.FieldPrice) && prevSnap.Price > 0 {
			change := (curSnap.Price - prevSnap.Price) / prevSnap.Price * 100
			if abs(change) >= e.thresholds.PriceChangePct {
				priority := domain.PriorityMedium
				if abs(change) >= highPriceChangePct {
					priority = domain.PriorityHigh
				}
				add(domain.AlertPrice, priority, change, "price moved %+.1f%%", change)
			}
		}

		if prevSnap.Fields.Has(domain.FieldVolume24h) && curSnap.Fields.Has(domain.FieldVolume24h) && prevSnap.Volume24h > 0 {
			ratio := curSnap.Volume24h / prevSnap.Volume24h
			if ratio >= e.thresholds.VolumeRatio {
				priority := domain.PriorityMedium
				if ratio >= e.thresholds.VolumeRatio*2 {
					priority = domain.PriorityHigh
				}
				add(domain.AlertVolume, priority, ratio, "volume spiked %.1fx", ratio)
			}
		}

		if prevSnap.Fields.Has(domain.FieldHolderCount) && curSnap.Fields.Has(domain.FieldHolderCount) && prevSnap.HolderCount > 0 {
			change := float64(curSnap.HolderCount-prevSnap.HolderCount) / float64(prevSnap.HolderCount) * 100
			if abs(change) >= e.thresholds.HolderGrowthPct {
				verb := "grew"
				if change < 0 {
					verb = "fell"
				}
				add(domain.AlertHolders, domain.PriorityMedium, change, "holders %s %.1f%% to %d", verb, abs(change), curSnap.HolderCount)
			}
		}

		if prevSnap.Fields.Has(domain.FieldLiquidity) && curSnap.Fields.Has(domain.FieldLiquidity) && prevSnap.Liquidity > 0 {
			drain := (prevSnap.Liquidity - curSnap.Liquidity) / prevSnap.Liquidity * 100
			if drain >= e.thresholds.LiquidityDrainPct {
				add(domain.AlertLiquidity, domain.PriorityCritical, drain, "liquidity drained %.1f%%", drain)
			}
		}
	}

	if prev.Score != nil && cur.Score != nil {
		delta := cur.Score.Combined - prev.Score.Combined
		if abs(delta) >= e.thresholds.ScoreDrop {
			if delta < 0 {
				add(domain.AlertSecurity, domain.PriorityHigh, delta, "composite score dropped %.0f points to %.0f", -delta, cur.Score.Combined)
			} else {
				add(domain.AlertSecurity, domain.PriorityMedium, delta, "composite score rose %.0f points to %.0f", delta, cur.Score.Combined)
			}
		}
	}
	return out
}

// admit reports whether the alert passes the cooldown window for its
// (token, kind) pair.
func (e *Engine) admit(ctx context.Context, a *domain.Alert) (bool, error) {
	since := e.now().Add(-e.thresholds.Cooldown)
	exists, err := e.store.ExistsSince(ctx, a.TokenAddress, a.Kind, since)
	if err != nil {
		return false, fmt.Errorf("cooldown lookup: %w", err)
	}
	return !exists, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
