package domain

import "time"

// AlertKind classifies what condition fired.
type AlertKind string

const (
	AlertPrice     AlertKind = "PRICE"
	AlertVolume    AlertKind = "VOLUME"
	AlertHolders   AlertKind = "HOLDERS"
	AlertSecurity  AlertKind = "SECURITY"
	AlertLiquidity AlertKind = "LIQUIDITY"
)

// AlertPriority orders alerts by urgency.
type AlertPriority string

const (
	PriorityLow      AlertPriority = "LOW"
	PriorityMedium   AlertPriority = "MEDIUM"
	PriorityHigh     AlertPriority = "HIGH"
	PriorityCritical AlertPriority = "CRITICAL"
)

// Alert is a persisted, deliverable notification.
// Corresponds to alerts table in PostgreSQL.
type Alert struct {
	ID           string // uuid
	TokenAddress string
	Kind         AlertKind
	Priority     AlertPriority
	Message      string
	Value        float64 // the measured change that fired the rule
	CreatedAt    time.Time
	Delivered    bool
}

// RiskVerdict is the aggregate stance implied by a batch of alerts.
type RiskVerdict string

const (
	RiskClear  RiskVerdict = "CLEAR"
	RiskLow    RiskVerdict = "LOW_RISK"
	RiskMedium RiskVerdict = "MEDIUM_RISK"
	RiskHigh   RiskVerdict = "HIGH_RISK"
)

// VerdictForAlerts maps the worst priority present to a risk verdict.
func VerdictForAlerts(alerts []*Alert) RiskVerdict {
	verdict := RiskClear
	for _, a := range alerts {
		switch a.Priority {
		case PriorityCritical:
			return RiskHigh
		case PriorityHigh:
			verdict = RiskMedium
		default:
			if verdict == RiskClear {
				verdict = RiskLow
			}
		}
	}
	return verdict
}
