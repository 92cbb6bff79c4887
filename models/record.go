package models

import (
	"fmt"
	"regexp"
	"time"
)

// Format invariants for an accepted FlightRecord.
var (
	airportRe = regexp.MustCompile(`^[A-Z]{3}$`)
	flightRe  = regexp.MustCompile(`^[A-Z0-9]{2,3}\d{1,4}$`)
)

// TripHandle is an opaque reference to one trip's detail page: a stable
// identifier plus the navigable location. Produced by the pagination walker,
// consumed exactly once by the extractor. Never persisted.
type TripHandle struct {
	// ID is the trailing path segment of the trip URL (a UUID on the host).
	ID string

	// URL is the absolute detail-page address.
	URL string
}

func (h TripHandle) String() string {
	return h.ID
}

// RawPage is the loaded content of one page, scoped to the lifetime of a
// single extraction attempt. Owned exclusively by the fetch call that
// produced it.
type RawPage struct {
	URL   string
	Title string

	// HTML is the rendered document, used for parsing trip links out of
	// listing pages.
	HTML string

	// Text is the visible text of the page's main region, what the
	// extractor hands to the model.
	Text string
}

// FlightRecord is one validated flight segment.
type FlightRecord struct {
	// Date is the departure date in ISO-8601 (YYYY-MM-DD).
	Date string `json:"flight_date"`

	// Origin and Destination are 3-letter IATA airport codes.
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	// FlightNumber is the carrier code plus numeric suffix, e.g. "UA794".
	FlightNumber string `json:"flight_number"`

	// TripName is carried for the operator-facing verification table only;
	// it is not part of the validated output schema and not exported.
	TripName string `json:"-"`
}

// Validate checks the record against the output format invariants: ISO date,
// [A-Z]{3} airports, carrier+digits flight number. A record must pass before
// it is accepted into the run's output set.
func (r FlightRecord) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", r.Date)
	}
	if !airportRe.MatchString(r.Origin) {
		return fmt.Errorf("invalid origin %q: want 3 uppercase letters", r.Origin)
	}
	if !airportRe.MatchString(r.Destination) {
		return fmt.Errorf("invalid destination %q: want 3 uppercase letters", r.Destination)
	}
	if !flightRe.MatchString(r.FlightNumber) {
		return fmt.Errorf("invalid flight number %q: want carrier code + digits", r.FlightNumber)
	}
	return nil
}
