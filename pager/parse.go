package pager

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/triprip/models"
)

// tripLinkSelector matches the trip name anchors on a listing page. The host
// tags them with a stable data-cy attribute.
const tripLinkSelector = `a[data-cy="trip-list-item-name"]`

// ParseHandles extracts trip handles from a listing page's rendered HTML, in
// document order. Duplicate hrefs within the page are collapsed to the first
// occurrence. Relative hrefs are resolved against the page's own URL.
func ParseHandles(raw *models.RawPage) ([]models.TripHandle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw.HTML))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(raw.URL)

	var handles []models.TripHandle
	seen := make(map[string]bool)

	doc.Find(tripLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		abs := href
		if base != nil {
			if u, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(u).String()
			}
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		handles = append(handles, models.TripHandle{
			ID:  handleID(abs),
			URL: abs,
		})
	})

	return handles, nil
}

// handleID is the trailing path segment of the trip URL, the host's stable
// trip identifier.
func handleID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
