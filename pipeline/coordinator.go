// Package pipeline sequences the pagination walker and the record extractor,
// isolating per-trip failures so one bad trip never aborts the run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/triprip/config"
	"github.com/use-agent/triprip/models"
	"github.com/use-agent/triprip/pager"
)

// Extractor converts one trip page into validated flight records. The second
// return is the number of malformed segments dropped from the trip.
type Extractor interface {
	Extract(ctx context.Context, raw *models.RawPage) ([]models.FlightRecord, int, error)
}

// Coordinator drives one full export run over a single browsing session.
// Everything happens strictly sequentially: one trip is fully resolved
// (fetched, extracted, recorded) before the next begins, because the session
// underneath is a single stateful resource.
type Coordinator struct {
	fetcher   pager.Fetcher
	extractor Extractor
	walkerCfg config.WalkerConfig
	startPage int

	// sleep is a seam for tests; defaults to a context-aware timer wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a coordinator starting at startPage (1-based).
func New(fetcher pager.Fetcher, extractor Extractor, walkerCfg config.WalkerConfig, startPage int) *Coordinator {
	return &Coordinator{
		fetcher:   fetcher,
		extractor: extractor,
		walkerCfg: walkerCfg,
		startPage: startPage,
		sleep:     sleepCtx,
	}
}

// Run walks the listing from the configured start page, extracts each trip,
// and accumulates results. It always returns a consistent, exportable
// RunResult: per-trip failures are logged and skipped, and an early end
// (throttle ceiling or cancellation) keeps everything accumulated so far,
// with ResumePage reporting the checkpoint to restart from.
//
// Every invocation starts from an empty RunResult; there is no persisted
// dedup state, so re-running re-emits all trips from the start page forward.
func (c *Coordinator) Run(ctx context.Context) *models.RunResult {
	result := &models.RunResult{}
	walker := pager.NewWalker(c.fetcher, c.walkerCfg, c.startPage)

	for {
		handle, err := walker.Next(ctx)
		if err != nil {
			var te *pager.ThrottleError
			switch {
			case errors.Is(err, pager.ErrExhausted):
				slog.Info("listing exhausted, run complete")
			case errors.As(err, &te):
				result.ResumePage = te.ResumePage
				slog.Warn("run ended early on throttling",
					"resumePage", te.ResumePage, "retries", te.Retries)
			default:
				result.ResumePage = walker.CurrentPage()
				slog.Warn("run interrupted", "resumePage", result.ResumePage, "error", err)
			}
			result.PagesWalked = walker.PagesWalked()
			return result
		}

		result.TripsSeen++
		if stop := c.processTrip(ctx, handle, result); stop {
			result.ResumePage = walker.CurrentPage()
			result.PagesWalked = walker.PagesWalked()
			slog.Warn("run ended early on detail-page throttling",
				"resumePage", result.ResumePage)
			return result
		}

		if ctx.Err() != nil {
			result.ResumePage = walker.CurrentPage()
			result.PagesWalked = walker.PagesWalked()
			slog.Warn("run canceled", "resumePage", result.ResumePage)
			return result
		}
	}
}

// processTrip fetches and extracts a single trip. Fetch or extraction
// failures are recorded in the failure log and the run moves on; no per-trip
// retries. The one exception is host throttling on the detail fetch: that is
// pagination-level pressure, so it re-enters the same bounded backoff as the
// walker and, past the ceiling, stops the run (returns true) so the operator
// gets a checkpoint instead of a wall of skipped trips.
func (c *Coordinator) processTrip(ctx context.Context, handle models.TripHandle, result *models.RunResult) (stop bool) {
	raw, err := c.fetchWithBackoff(ctx, handle)
	if err != nil {
		if models.IsThrottled(err) {
			return true
		}
		code, reason := classify(err)
		result.AddFailure(handle, code, reason)
		slog.Warn("skipping trip: detail fetch failed",
			"trip", handle.ID, "code", code, "reason", reason)
		return false
	}

	records, dropped, err := c.extractor.Extract(ctx, raw)
	if err != nil {
		code, reason := classify(err)
		result.AddFailure(handle, code, reason)
		slog.Warn("skipping trip: extraction failed",
			"trip", handle.ID, "code", code, "reason", reason)
		return false
	}

	result.DroppedRecords += dropped
	for _, rec := range records {
		result.AddRecord(rec)
	}

	slog.Info("trip processed",
		"trip", handle.ID, "name", raw.Title, "flights", len(records), "dropped", dropped)
	return false
}

// fetchWithBackoff loads the trip detail page, retrying only throttled
// fetches with bounded exponential backoff. Transient failures return
// immediately; the retry loop belongs to the throttling case alone.
func (c *Coordinator) fetchWithBackoff(ctx context.Context, handle models.TripHandle) (*models.RawPage, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		raw, err := c.fetcher.FetchTrip(ctx, handle)
		if err == nil {
			return raw, nil
		}
		if !models.IsThrottled(err) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.walkerCfg.MaxRetries {
			return nil, lastErr
		}

		delay := c.walkerCfg.BackoffBase << uint(attempt)
		if c.walkerCfg.BackoffCap > 0 && delay > c.walkerCfg.BackoffCap {
			delay = c.walkerCfg.BackoffCap
		}
		slog.Warn("detail fetch throttled, backing off",
			"trip", handle.ID, "attempt", attempt+1, "delay", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, lastErr
		}
	}
}

// classify maps an error to the failure-log code and reason.
func classify(err error) (code, reason string) {
	if code := models.ErrorCode(err); code != "" {
		return code, err.Error()
	}
	return models.ErrCodeFetchTransient, err.Error()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
