package domain

import (
	"testing"
	"time"
)

func TestMonitoredSourceValidate(t *testing.T) {
	valid := MonitoredSource{
		Type:         SourceFeed,
		Identifier:   "https://example.com/feed.xml",
		ScanInterval: time.Minute,
		Weight:       1.0,
	}

	tests := []struct {
		name    string
		mutate  func(*MonitoredSource)
		wantErr bool
	}{
		{"valid", func(s *MonitoredSource) {}, false},
		{"interval at lower bound", func(s *MonitoredSource) { s.ScanInterval = MinScanInterval }, false},
		{"interval at upper bound", func(s *MonitoredSource) { s.ScanInterval = MaxScanInterval }, false},
		{"interval too short", func(s *MonitoredSource) { s.ScanInterval = 5 * time.Second }, true},
		{"interval too long", func(s *MonitoredSource) { s.ScanInterval = 25 * time.Hour }, true},
		{"negative weight", func(s *MonitoredSource) { s.Weight = -1 }, true},
		{"weight too large", func(s *MonitoredSource) { s.Weight = 11 }, true},
		{"unknown type", func(s *MonitoredSource) { s.Type = "carrier-pigeon" }, true},
		{"missing identifier", func(s *MonitoredSource) { s.Identifier = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := valid
			tt.mutate(&src)
			err := src.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerdictForAlerts(t *testing.T) {
	tests := []struct {
		name       string
		priorities []AlertPriority
		want       RiskVerdict
	}{
		{"no alerts", nil, RiskClear},
		{"single low", []AlertPriority{PriorityLow}, RiskLow},
		{"medium only", []AlertPriority{PriorityMedium, PriorityMedium}, RiskLow},
		{"high present", []AlertPriority{PriorityLow, PriorityHigh}, RiskMedium},
		{"critical wins", []AlertPriority{PriorityHigh, PriorityCritical, PriorityLow}, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var alerts []*Alert
			for _, p := range tt.priorities {
				alerts = append(alerts, &Alert{Priority: p})
			}
			if got := VerdictForAlerts(alerts); got != tt.want {
				t.Errorf("VerdictForAlerts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldMask(t *testing.T) {
	var m FieldMask
	if !m.IsEmpty() {
		t.Error("zero mask should be empty")
	}
	m = m.With(FieldPrice).With(FieldLiquidity)
	if !m.Has(FieldPrice) || !m.Has(FieldLiquidity) {
		t.Error("expected set bits to be reported")
	}
	if m.Has(FieldHolderCount) {
		t.Error("unset bit reported as present")
	}
}
