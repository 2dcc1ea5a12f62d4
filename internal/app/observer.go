package service

import (
	"time"

	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/pkg/metrics"
)

// metricsObserver forwards rule and frame outcomes to Prometheus.
type metricsObserver struct{}

func (metricsObserver) RuleSkipped(_ model.Mode, rule string) {
	metrics.RecordRuleSkipped(rule)
}

func (metricsObserver) FrameEvaluated(mode model.Mode, violations []model.Violation, elapsed time.Duration) {
	metrics.RecordFrameProcessed(mode.String(), len(violations) > 0)
	for _, v := range violations {
		metrics.RecordViolation(string(v.Type), v.Severity.String())
	}
	metrics.RecordEvaluationLatency(float64(elapsed.Microseconds()) / 1000)
}

func (metricsObserver) FrameDropped(mode model.Mode, reason string) {
	metrics.RecordFrameDropped(mode.String(), reason)
}

func (metricsObserver) SinkFailed(model.Mode) {
	metrics.RecordErrorByComponent("sink", "emit_failed")
}
