package metrics

// Frame pipeline.

// RecordFrameProcessed counts a frame evaluated in mode.
func RecordFrameProcessed(mode string, violating bool) {
	if m := active(); m != nil {
		m.framesProcessed.WithLabelValues(mode).Inc()
		if violating {
			m.framesViolating.WithLabelValues(mode).Inc()
		}
	}
}

// RecordFrameDropped counts a frame that was received but not counted.
func RecordFrameDropped(mode, reason string) {
	if m := active(); m != nil {
		m.framesDropped.WithLabelValues(mode, reason).Inc()
	}
}

// RecordFrameDuplicate counts an asynchronous frame rejected as a retry.
func RecordFrameDuplicate() {
	if m := active(); m != nil {
		m.framesDuplicate.Inc()
	}
}

// RecordViolation counts one emitted violation.
func RecordViolation(violationType, severity string) {
	if m := active(); m != nil {
		m.violations.WithLabelValues(violationType, severity).Inc()
	}
}

// RecordRuleSkipped counts a rule skipped for lack of visible landmarks.
func RecordRuleSkipped(rule string) {
	if m := active(); m != nil {
		m.rulesSkipped.WithLabelValues(rule).Inc()
	}
}

// RecordEvaluationLatency records rule evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.evaluationLatency.Observe(latencyMs)
	}
}

// Sessions.

// RecordSessionStarted counts a started session and marks it active.
func RecordSessionStarted(mode string) {
	if m := active(); m != nil {
		m.sessionsStarted.WithLabelValues(mode).Inc()
		m.sessionsActive.Inc()
	}
}

// RecordSessionEnded counts an ended session with its final accuracy.
func RecordSessionEnded(mode string, accuracyPercent int) {
	if m := active(); m != nil {
		m.sessionsEnded.WithLabelValues(mode).Inc()
		m.sessionsActive.Dec()
		m.sessionAccuracy.WithLabelValues(mode).Observe(float64(accuracyPercent))
	}
}

// UpdateHistoryRetained sets the number of summaries in the history store.
func UpdateHistoryRetained(count int) {
	if m := active(); m != nil {
		m.historyRetained.Set(float64(count))
	}
}

// Queue.

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueSize sets the queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
		if capacity > 0 {
			m.queueUtilization.Set(float64(size) / float64(capacity))
		}
	}
}

// RecordQueueEnqueue counts an accepted frame.
func RecordQueueEnqueue() {
	if m := active(); m != nil {
		m.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue counts a frame handed to a worker.
func RecordQueueDequeue() {
	if m := active(); m != nil {
		m.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	if m := active(); m != nil {
		m.queueEnqueueErrors.Inc()
	}
}

// Workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	if m := active(); m != nil {
		m.workerActiveCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records per-frame worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a queued frame that failed processing.
func RecordWorkerError() {
	if m := active(); m != nil {
		m.workerErrors.Inc()
	}
}

// Emitter.

// RecordEmitterPublished counts a published violation event.
func RecordEmitterPublished(sink, violationType string) {
	if m := active(); m != nil {
		m.emitterPublished.WithLabelValues(sink, violationType).Inc()
	}
}

// RecordEmitterError counts a failed publish.
func RecordEmitterError(sink string) {
	if m := active(); m != nil {
		m.emitterErrors.WithLabelValues(sink).Inc()
	}
}

// HTTP.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an HTTP error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}
