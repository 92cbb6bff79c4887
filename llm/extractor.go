package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/use-agent/triprip/models"
)

// flightSchema is the fixed output shape the model is constrained to:
// one object per flight segment, four fields each.
const flightSchema = `{
  "flights": [
    {
      "flight_date": "departure date in YYYY-MM-DD",
      "origin": "origin airport IATA code, 3 uppercase letters",
      "destination": "destination airport IATA code, 3 uppercase letters",
      "flight_number": "airline code + number, e.g. UA794"
    }
  ]
}`

const systemPrompt = `You extract flight information from the text of a travel itinerary page.

Return ONLY a JSON object matching this schema, no markdown fences or explanation:

%s

Rules:
- Extract ONLY flights. Ignore hotels, rental cars, trains, and other activities.
- Each connecting flight segment is a separate entry.
- Ignore layover/connection time rows.
- Convert dates like "Thu, Nov 6" to YYYY-MM-DD using the trip's dates for the year.
- Route text like "SFO - PIT" gives origin and destination.
- Only include a flight when its date, origin, destination, and flight number are all
  present in the text. Omit anything uncertain rather than guessing.
- If the page has no flights at all, return {"flights": []}.`

// flightPayload is the envelope the model is asked to fill.
type flightPayload struct {
	Flights []models.FlightRecord `json:"flights"`
}

// Extractor turns one trip page's content into validated flight records via a
// structured-extraction call. It guarantees schema validity and format
// correctness of what it returns, not semantic ground truth; cross-run output
// is format-valid, not bit-for-bit repeatable.
type Extractor struct {
	completer Completer

	// maxChars caps the page text passed to the model.
	maxChars int
}

// NewExtractor wraps a completer. maxChars <= 0 disables the content cap.
func NewExtractor(completer Completer, maxChars int) *Extractor {
	return &Extractor{completer: completer, maxChars: maxChars}
}

// Extract asks the model for the page's flight segments and validates each
// candidate against the record format invariants. Records failing validation
// are dropped and logged individually; the rest of the trip's segments
// survive. The returned count is the number of dropped segments.
//
// A failed inference call (transport, provider throttling, malformed
// response) fails the whole trip; retrying is the caller's call, not ours.
func (e *Extractor) Extract(ctx context.Context, raw *models.RawPage) ([]models.FlightRecord, int, error) {
	text := raw.Text
	if e.maxChars > 0 && len(text) > e.maxChars {
		text = text[:e.maxChars]
	}

	user := fmt.Sprintf("Trip name: %s\n\nPage text:\n%s", raw.Title, text)

	data, err := e.completer.Complete(ctx, fmt.Sprintf(systemPrompt, flightSchema), user)
	if err != nil {
		return nil, 0, err
	}

	var payload flightPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, 0, models.NewPipelineError(models.ErrCodeLLMMalformed,
			"extraction response does not match the flight schema", err)
	}

	records := make([]models.FlightRecord, 0, len(payload.Flights))
	dropped := 0
	for _, rec := range payload.Flights {
		if err := rec.Validate(); err != nil {
			dropped++
			slog.Warn("dropping malformed segment", "trip", raw.Title, "error", err)
			continue
		}
		rec.TripName = raw.Title
		records = append(records, rec)
	}

	return records, dropped, nil
}
