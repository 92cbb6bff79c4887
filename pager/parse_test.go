package pager

import (
	"testing"

	"github.com/use-agent/triprip/models"
)

func TestParseHandles(t *testing.T) {
	raw := &models.RawPage{
		URL: "https://www.tripit.com/app/trips?trips_filter=past&page=1",
		HTML: `<html><body>
			<a data-cy="trip-list-item-name" href="/app/trips/aaa-111">Tokyo</a>
			<a href="/app/trips/zzz-999">not a trip card</a>
			<a data-cy="trip-list-item-name" href="https://www.tripit.com/app/trips/bbb-222">Lisbon</a>
			<a data-cy="trip-list-item-name" href="/app/trips/aaa-111">Tokyo again</a>
		</body></html>`,
	}

	handles, err := ParseHandles(raw)
	if err != nil {
		t.Fatalf("ParseHandles: %v", err)
	}

	if len(handles) != 2 {
		t.Fatalf("got %d handles, want 2: %v", len(handles), handles)
	}
	if handles[0].ID != "aaa-111" || handles[1].ID != "bbb-222" {
		t.Errorf("wrong order or IDs: %v", handles)
	}
	if handles[0].URL != "https://www.tripit.com/app/trips/aaa-111" {
		t.Errorf("relative href not resolved: %q", handles[0].URL)
	}
}

func TestParseHandles_Empty(t *testing.T) {
	raw := &models.RawPage{
		URL:  "https://www.tripit.com/app/trips?page=9",
		HTML: `<html><body><p>No trips here.</p></body></html>`,
	}
	handles, err := ParseHandles(raw)
	if err != nil {
		t.Fatalf("ParseHandles: %v", err)
	}
	if len(handles) != 0 {
		t.Errorf("got %d handles, want 0", len(handles))
	}
}
