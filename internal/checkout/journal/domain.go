// Package journal defines the domain types for the checkout attempt log.
//
// Every confirmation attempt leaves a durable trail of its state
// transitions. It serves two purposes:
//
//  1. Observability: querying the log shows exactly how far an attempt got
//     (intent created, card confirmed, invoice created) and the trace_id
//     field joins it with the distributed trace.
//
//  2. Post-mortems: a card charged without an invoice is visible as an
//     attempt stuck after the confirm step, with the processor's message in
//     error_messages.
package journal

import "time"

// Status represents the lifecycle state of a checkout attempt.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusStepDone  Status = "STEP_DONE"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Entry is a single row in the checkout_logs table, a point-in-time snapshot
// of one attempt.
type Entry struct {
	// AttemptID identifies the confirmation attempt. One cart can produce
	// several attempts (user resubmits after a decline), each with its own id.
	AttemptID string

	// CartID joins the attempt with the cart snapshot it was confirming.
	CartID string

	// Status is the lifecycle state at the time this row was written.
	Status Status

	// Step is the name of the step that just executed (or failed).
	Step string

	// Payload is the JSON-serialised confirmation input, written once on
	// STARTED so the attempt can be reconstructed from the log. Card details
	// are never part of it.
	Payload string

	// ErrorMessages accumulates failure details as a JSON array of strings.
	ErrorMessages string

	// TraceID is the W3C trace ID from the active span when this row was
	// written; empty when tracing is not configured.
	TraceID string

	// SpanID pinpoints the exact span within the trace.
	SpanID string

	// UpdatedAt is the wall-clock time of this log entry.
	UpdatedAt time.Time
}
