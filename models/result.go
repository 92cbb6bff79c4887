package models

// TripFailure is one skipped trip in the run's failure log.
type TripFailure struct {
	Handle TripHandle

	// Code is the pipeline error code that classified the failure
	// (FETCH_TRANSIENT, LLM_RATE_LIMITED, ...).
	Code string

	// Reason is the human-readable cause, preserved from the underlying error.
	Reason string
}

// RunResult accumulates the output of one pipeline execution: accepted records
// in trip-processing order plus a parallel log of per-trip failures. It is
// built incrementally, handed to the exporter at the end of the run, and
// discarded afterwards — there is no cross-run memory.
type RunResult struct {
	Records  []FlightRecord
	Failures []TripFailure

	// PagesWalked and TripsSeen are operator-facing counters.
	PagesWalked int
	TripsSeen   int

	// DroppedRecords counts individual segments that failed format
	// validation and were dropped from otherwise-successful trips.
	DroppedRecords int

	// ResumePage is set when the run ended early on throttling: the 1-based
	// listing page to restart from. Zero on normal termination.
	ResumePage int
}

// AddRecord appends an accepted record, preserving processing order.
func (r *RunResult) AddRecord(rec FlightRecord) {
	r.Records = append(r.Records, rec)
}

// AddFailure logs a skipped trip with its classified reason.
func (r *RunResult) AddFailure(h TripHandle, code, reason string) {
	r.Failures = append(r.Failures, TripFailure{Handle: h, Code: code, Reason: reason})
}

// Truncated reports whether the run ended at a throttling checkpoint rather
// than by exhausting the listing.
func (r *RunResult) Truncated() bool {
	return r.ResumePage > 0
}
