// Package pager walks the paginated trip listing and yields trip handles in
// strict page-then-position order, applying bounded backoff when the host
// throttles.
package pager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/triprip/config"
	"github.com/use-agent/triprip/models"
)

// Fetcher is the narrow view of the browsing session the pipeline needs. The
// session behind it is a single stateful resource; callers must not invoke it
// concurrently.
type Fetcher interface {
	FetchListing(ctx context.Context, page int) (*models.RawPage, error)
	FetchTrip(ctx context.Context, h models.TripHandle) (*models.RawPage, error)
}

// ErrExhausted signals normal end of pagination: the listing ran out of
// pages or trips.
var ErrExhausted = errors.New("pager: listing exhausted")

// ThrottleError ends a run early when host throttling outlasts the retry
// ceiling. ResumePage is the 1-based listing page to restart the run from.
type ThrottleError struct {
	ResumePage int
	Retries    int
	Err        error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("pager: throttled %d times at page %d, checkpoint and stop", e.Retries, e.ResumePage)
}

func (e *ThrottleError) Unwrap() error { return e.Err }

type walkState int

const (
	stateFetching walkState = iota
	stateYielding
	stateExhausted
	stateThrottled
)

// Walker drives the fetcher across listing pages from a configured start
// offset, buffering at most one page's worth of handles. It performs no
// semantic validation on handles; that is the extractor's concern.
type Walker struct {
	fetcher Fetcher
	cfg     config.WalkerConfig

	state   walkState
	page    int
	walked  int
	buf     []models.TripHandle
	bufIdx  int
	seen    map[string]bool
	stopErr error

	// sleep is a seam for tests; defaults to a context-aware timer wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWalker creates a walker starting at startPage (1-based).
func NewWalker(fetcher Fetcher, cfg config.WalkerConfig, startPage int) *Walker {
	if startPage < 1 {
		startPage = 1
	}
	return &Walker{
		fetcher: fetcher,
		cfg:     cfg,
		state:   stateFetching,
		page:    startPage,
		seen:    make(map[string]bool),
		sleep:   sleepCtx,
	}
}

// Next yields the next trip handle in page-then-position order. It returns
// ErrExhausted on normal end of the listing, or a *ThrottleError when the
// throttle retry ceiling is exceeded; either error is sticky.
func (w *Walker) Next(ctx context.Context) (models.TripHandle, error) {
	for {
		switch w.state {
		case stateYielding:
			if w.bufIdx < len(w.buf) {
				h := w.buf[w.bufIdx]
				w.bufIdx++
				return h, nil
			}
			// Page drained: advance the cursor and re-fetch.
			w.page++
			w.state = stateFetching

		case stateFetching:
			if err := w.fetchPage(ctx); err != nil {
				return models.TripHandle{}, err
			}

		case stateExhausted:
			return models.TripHandle{}, ErrExhausted

		case stateThrottled:
			return models.TripHandle{}, w.stopErr
		}
	}
}

// fetchPage loads the current listing page, retrying throttled and transient
// fetches with bounded exponential backoff. On success it fills the yield
// buffer; on NotFound or an empty trip list it exhausts the walk.
func (w *Walker) fetchPage(ctx context.Context) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		raw, err := w.fetcher.FetchListing(ctx, w.page)
		if err == nil {
			return w.fillBuffer(raw)
		}

		if models.IsNotFound(err) {
			slog.Info("listing page not found, pagination complete", "page", w.page)
			w.state = stateExhausted
			return ErrExhausted
		}
		if ctx.Err() != nil {
			w.state = stateThrottled
			w.stopErr = &ThrottleError{ResumePage: w.page, Retries: attempt, Err: ctx.Err()}
			return w.stopErr
		}

		lastErr = err
		if attempt >= w.cfg.MaxRetries {
			slog.Warn("retry ceiling exceeded, checkpointing",
				"page", w.page, "retries", attempt, "error", err)
			w.state = stateThrottled
			w.stopErr = &ThrottleError{ResumePage: w.page, Retries: attempt, Err: err}
			return w.stopErr
		}

		delay := w.backoff(attempt)
		slog.Warn("listing fetch failed, backing off",
			"page", w.page, "attempt", attempt+1, "delay", delay,
			"throttled", models.IsThrottled(err), "error", err)
		if err := w.sleep(ctx, delay); err != nil {
			w.state = stateThrottled
			w.stopErr = &ThrottleError{ResumePage: w.page, Retries: attempt, Err: lastErr}
			return w.stopErr
		}
	}
}

// fillBuffer parses the fetched listing into the yield buffer. Handles
// already yielded earlier in the run are skipped so a handle is never
// yielded twice; if the page repeats entirely, the walker advances.
func (w *Walker) fillBuffer(raw *models.RawPage) error {
	handles, err := ParseHandles(raw)
	if err != nil {
		w.state = stateExhausted
		return ErrExhausted
	}
	if len(handles) == 0 {
		slog.Info("no trips on listing page, pagination complete", "page", w.page)
		w.state = stateExhausted
		return ErrExhausted
	}

	w.walked++
	buf := handles[:0:0]
	for _, h := range handles {
		if w.seen[h.URL] {
			continue
		}
		w.seen[h.URL] = true
		buf = append(buf, h)
	}

	slog.Info("listing page scanned", "page", w.page, "trips", len(buf))

	if len(buf) == 0 {
		// Every handle was a repeat of an earlier page; move on.
		w.page++
		return nil
	}

	w.buf = buf
	w.bufIdx = 0
	w.state = stateYielding
	return nil
}

// backoff returns the bounded exponential delay for the given attempt.
func (w *Walker) backoff(attempt int) time.Duration {
	d := w.cfg.BackoffBase << uint(attempt)
	if w.cfg.BackoffCap > 0 && d > w.cfg.BackoffCap {
		d = w.cfg.BackoffCap
	}
	return d
}

// CurrentPage is the walker's pagination cursor, the operator-visible
// checkpoint unit.
func (w *Walker) CurrentPage() int { return w.page }

// PagesWalked is the number of listing pages scanned so far.
func (w *Walker) PagesWalked() int { return w.walked }

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
