package service

import "time"

// Metrics helpers. Every helper tolerates a nil metrics registry so tests
// can construct the service without one.

func (s *Service) observeIssueDuration(start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IssueDurationMs.Observe(float64(s.now().Sub(start).Milliseconds()))
}

func (s *Service) observeRenderDuration(start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RenderDurationMs.Observe(float64(s.now().Sub(start).Milliseconds()))
}

func (s *Service) recordIssueFailure(reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IssueFailures.WithLabelValues(reason).Inc()
}

func (s *Service) recordValidation(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Validations.WithLabelValues(outcome).Inc()
	s.metrics.ValidationDurationMs.Observe(float64(s.now().Sub(start).Milliseconds()))
}

func (s *Service) recordValidationLogError() {
	if s.metrics == nil {
		return
	}
	s.metrics.ValidationLogErrors.Inc()
}
