package impactmetrics

import (
	"strings"
	"sync"
)

// Recorder receives derived-metric results for push-based export.
type Recorder interface {
	RecordImpact(orgID string, co2Kg float64, unusedSeats int)
	RecordEfficiency(orgID, departmentID string, score int)
	RecordInsightsGenerated(orgID, insightType string, count int)
}

type recorder struct {
	metrics *metrics
}

type noopRecorder struct{}

func (noopRecorder) RecordImpact(string, float64, int)           {}
func (noopRecorder) RecordEfficiency(string, string, int)        {}
func (noopRecorder) RecordInsightsGenerated(string, string, int) {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

func current() Recorder {
	recorderMu.RLock()
	defer recorderMu.RUnlock()
	return activeRecorder
}

func RecordImpact(orgID string, co2Kg float64, unusedSeats int) {
	current().RecordImpact(orgID, co2Kg, unusedSeats)
}

func RecordEfficiency(orgID, departmentID string, score int) {
	current().RecordEfficiency(orgID, departmentID, score)
}

func RecordInsightsGenerated(orgID, insightType string, count int) {
	current().RecordInsightsGenerated(orgID, insightType, count)
}

func (r *recorder) RecordImpact(orgID string, co2Kg float64, unusedSeats int) {
	if r == nil || r.metrics == nil {
		return
	}
	if unusedSeats < 0 {
		unusedSeats = 0
	}
	org := normalizeLabel(orgID)
	r.metrics.co2Saved.WithLabelValues(org).Set(co2Kg)
	r.metrics.unusedSeats.WithLabelValues(org).Set(float64(unusedSeats))
}

func (r *recorder) RecordEfficiency(orgID, departmentID string, score int) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.efficiencyScore.WithLabelValues(normalizeLabel(orgID), normalizeLabel(departmentID)).Set(float64(score))
}

func (r *recorder) RecordInsightsGenerated(orgID, insightType string, count int) {
	if r == nil || r.metrics == nil || count <= 0 {
		return
	}
	r.metrics.insightsGenerated.WithLabelValues(normalizeLabel(orgID), normalizeLabel(insightType)).Add(float64(count))
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
