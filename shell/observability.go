package shell

const (
	// DeferredDrainDurationMetric tracks how long a post-response queue drain took.
	DeferredDrainDurationMetric = "deferred_queue_drain_duration_seconds"

	// DeferredDrainEventsMetric tracks how many events one request deferred.
	DeferredDrainEventsMetric = "deferred_queue_drained_events_total"

	// DispatchFailuresMetric tracks handler failures swallowed at the dispatch boundary.
	DispatchFailuresMetric = "event_dispatch_failures_total"

	// ExpirySweepDurationMetric tracks the duration of one full scheduler sweep.
	ExpirySweepDurationMetric = "expiry_sweep_duration_seconds"

	// ExpiryReservationsReconciledMetric tracks reservations fully reconciled per sweep.
	ExpiryReservationsReconciledMetric = "expiry_reservations_reconciled_total"

	// ExpiryReservationFailuresMetric tracks reservations whose reconciliation raised a warning.
	ExpiryReservationFailuresMetric = "expiry_reservation_failures_total"
)

// Log attribute keys shared across the pipeline so that log aggregation can
// correlate entries from the committer, the middleware, and the scheduler.
const (
	LogAttrError         = "error"
	LogAttrEventType     = "event_type"
	LogAttrEventPayload  = "event_payload"
	LogAttrHandlerName   = "handler"
	LogAttrBookID        = "book_id"
	LogAttrReservationID = "reservation_id"
	LogAttrCustomerID    = "customer_id"
	LogAttrEventCount    = "event_count"
)
