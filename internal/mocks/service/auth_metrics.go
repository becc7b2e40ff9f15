package service

import (
	"sync"
	"time"

	"school/internal/domain/service"
)

// RecordingMetrics counts observations by label for assertions.
type RecordingMetrics struct {
	mu             sync.Mutex
	logins         map[[2]string]int
	refreshes      map[string]int
	authorizations map[string]int
	externalVerify map[[2]string]int
}

var _ service.AuthMetrics = (*RecordingMetrics)(nil)

// NewRecordingMetrics returns an empty recorder.
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		logins:         make(map[[2]string]int),
		refreshes:      make(map[string]int),
		authorizations: make(map[string]int),
		externalVerify: make(map[[2]string]int),
	}
}

func (r *RecordingMetrics) ObserveLogin(flow, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[[2]string{flow, outcome}]++
}

func (r *RecordingMetrics) ObserveRefresh(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes[outcome]++
}

func (r *RecordingMetrics) ObserveAuthorize(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorizations[outcome]++
}

func (r *RecordingMetrics) ObserveExternalVerify(provider, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.externalVerify[[2]string{provider, outcome}]++
}

// Logins returns how often ObserveLogin saw flow and outcome.
func (r *RecordingMetrics) Logins(flow, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.logins[[2]string{flow, outcome}]
}

// Refreshes returns how often ObserveRefresh saw outcome.
func (r *RecordingMetrics) Refreshes(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.refreshes[outcome]
}

// Authorizations returns how often ObserveAuthorize saw outcome.
func (r *RecordingMetrics) Authorizations(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.authorizations[outcome]
}

// ExternalVerifications returns how often ObserveExternalVerify saw provider and outcome.
func (r *RecordingMetrics) ExternalVerifications(provider, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.externalVerify[[2]string{provider, outcome}]
}
