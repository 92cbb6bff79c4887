// Package export writes the run's accepted records to the tabular output and
// renders the operator-facing verification table.
package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/use-agent/triprip/models"
)

// openFlightsHeader is the fixed column schema downstream consumers expect.
// Only the first four columns are populated; the rest are written empty for
// manual entry.
var openFlightsHeader = []string{
	"Date", "From", "To", "Flight_Number", "Airline", "Distance", "Duration",
	"Seat", "Seat_Type", "Class", "Reason", "Plane", "Registration", "Trip",
	"Note", "From_OID", "To_OID", "Airline_OID", "Plane_OID",
}

// WriteCSV writes the records to path in the order given, header included.
// One run produces one full file: the target is overwritten, never appended,
// consistent with the no-dedup re-run policy. Rows reach this writer already
// validated; no formatting decisions are made here.
func WriteCSV(path string, records []models.FlightRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(openFlightsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(openFlightsHeader))
	for _, rec := range records {
		for i := range row {
			row[i] = ""
		}
		row[0] = rec.Date
		row[1] = rec.Origin
		row[2] = rec.Destination
		row[3] = rec.FlightNumber
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}
