package browser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/triprip/models"
	"golang.org/x/time/rate"
)

// navLimiter paces navigations against the host with a token bucket.
type navLimiter struct {
	*rate.Limiter
}

func newNavLimiter(rps float64) navLimiter {
	if rps <= 0 {
		rps = 1
	}
	return navLimiter{rate.NewLimiter(rate.Limit(rps), 1)}
}

// FetchListing loads the trip listing at the given 1-based page number and
// returns its rendered content. A 404/410 response is reported as
// FETCH_NOT_FOUND, which the walker treats as the end of the listing.
func (s *Session) FetchListing(ctx context.Context, pageNum int) (*models.RawPage, error) {
	return s.fetch(ctx, s.trips.ListingURL(pageNum))
}

// FetchTrip loads one trip's detail page and returns its rendered content,
// with Title set to the trip name scraped from the page header.
func (s *Session) FetchTrip(ctx context.Context, h models.TripHandle) (*models.RawPage, error) {
	raw, err := s.fetch(ctx, h.URL)
	if err != nil {
		return nil, err
	}
	if name := s.tripName(); name != "" {
		raw.Title = name
	}
	return raw, nil
}

// fetch navigates the session's single page to url, waits for dynamic content
// to settle, and extracts the rendered HTML plus visible text. A premature
// read is indistinguishable from a parse failure downstream, so the settle
// wait happens here, not in callers.
//
// Lifecycle:
//  1. Rate gate      – token-bucket wait, polite pacing against the host
//  2. Timeout guard  – hard deadline on navigation + settle + extraction
//  3. Navigate       – mutates the session's shared page state
//  4. Settle         – WaitDOMStable until the DOM stops changing
//  5. Status check   – classify throttling / missing targets
//  6. Extract        – rendered HTML + visible text of the main region
func (s *Session) fetch(ctx context.Context, url string) (*models.RawPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeFetchTransient, "rate gate interrupted", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout+s.cfg.SettleTimeout)
	defer cancel()

	p := s.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return nil, classifyNavError(err, url)
	}

	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("DOM did not converge, proceeding with current content", "url", url, "error", err)
	}

	status := navigationStatus(p)
	switch {
	case status == 429 || status == 503:
		return nil, models.NewPipelineError(models.ErrCodeFetchThrottled,
			"host throttled the request", nil)
	case status == 404 || status == 410:
		return nil, models.NewPipelineError(models.ErrCodeFetchNotFound,
			"target does not exist", nil)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, classifyNavError(err, url)
	}

	return &models.RawPage{
		URL:   url,
		Title: evalString(p, `() => document.title`),
		HTML:  html,
		Text:  evalString(p, mainTextJS),
	}, nil
}

// mainTextJS pulls the visible text of the page's main region; the full body
// is the fallback. Text is cheaper for the model to read than HTML.
const mainTextJS = `() => {
	const main = document.querySelector('main, [role="main"], .container');
	return main ? main.innerText : document.body.innerText;
}`

// tripName resolves the trip name from the detail page header, trying the
// host's known markup variants in order.
func (s *Session) tripName() string {
	const js = `() => {
		let name = document.querySelector('h1')?.textContent?.trim();
		if (!name) {
			name = document.querySelector('[data-cy="trip-list-item-name"]')?.textContent?.trim();
		}
		if (!name) {
			name = document.querySelector('a[class*="tripName"]')?.textContent?.trim();
		}
		return name || '';
	}`
	return evalString(s.page, js)
}

// navigationStatus reads the HTTP status of the last navigation from the
// performance timeline. This avoids CDP network event listeners, which
// conflict with other Fetch-domain users on recent Chromium.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalString evaluates a JS expression and returns the string result,
// swallowing errors (used for optional metadata).
func evalString(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// classifyNavError wraps raw navigation errors into typed pipeline errors.
// Connection-level refusals and resets are how the host's rate limiting
// manifests, so they map to FETCH_THROTTLED; everything else that isn't a
// missing target is transient.
func classifyNavError(err error, url string) *models.PipelineError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ERR_CONNECTION_REFUSED"),
		strings.Contains(msg, "ERR_CONNECTION_RESET"),
		strings.Contains(msg, "ERR_CONNECTION_CLOSED"),
		strings.Contains(msg, "ERR_TOO_MANY_REQUESTS"):
		return models.NewPipelineError(models.ErrCodeFetchThrottled,
			"connection failure consistent with host rate limiting", err)
	case strings.Contains(msg, "ERR_NAME_NOT_RESOLVED"),
		strings.Contains(msg, "ERR_FILE_NOT_FOUND"):
		return models.NewPipelineError(models.ErrCodeFetchNotFound,
			"target does not exist", err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrCodeFetchTransient,
			"navigation timed out: "+url, err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrCodeFetchTransient,
			"navigation canceled", err)
	default:
		return models.NewPipelineError(models.ErrCodeFetchTransient,
			"navigation failed: "+url, err)
	}
}
