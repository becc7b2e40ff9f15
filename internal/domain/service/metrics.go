package service

import "time"

// Login flows and outcomes recorded by AuthMetrics.
const (
	FlowPassword  = "password"
	FlowFederated = "federated"

	OutcomeSuccess = "success"
)

// AuthMetrics records authentication outcomes. Outcomes other than OutcomeSuccess are
// error kind labels.
type AuthMetrics interface {
	ObserveLogin(flow, outcome string)
	ObserveRefresh(outcome string)
	ObserveAuthorize(outcome string)
	ObserveExternalVerify(provider, outcome string, elapsed time.Duration)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveLogin(string, string)                         {}
func (NopMetrics) ObserveRefresh(string)                               {}
func (NopMetrics) ObserveAuthorize(string)                             {}
func (NopMetrics) ObserveExternalVerify(string, string, time.Duration) {}
