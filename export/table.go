package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/use-agent/triprip/models"
)

// RenderSummary prints the extracted flights and the failure log so the
// operator can eyeball the run before trusting the CSV.
func RenderSummary(w io.Writer, result *models.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Extracted flights")
	t.AppendHeader(table.Row{"Trip", "Date", "Route", "Flight"})

	for _, rec := range result.Records {
		t.AppendRow(table.Row{
			truncate(rec.TripName, 35),
			rec.Date,
			fmt.Sprintf("%s → %s", rec.Origin, rec.Destination),
			rec.FlightNumber,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(result.Failures) > 0 {
		f := table.NewWriter()
		f.SetOutputMirror(w)
		f.SetTitle("Skipped trips")
		f.AppendHeader(table.Row{"Trip", "Code", "Reason"})
		for _, fail := range result.Failures {
			f.AppendRow(table.Row{fail.Handle.ID, fail.Code, truncate(fail.Reason, 60)})
		}
		f.SetStyle(table.StyleRounded)
		f.Render()
	}

	fmt.Fprintf(w, "\n%d flight(s) from %d trip(s) across %d page(s); %d trip(s) skipped, %d segment(s) dropped.\n",
		len(result.Records), result.TripsSeen, result.PagesWalked,
		len(result.Failures), result.DroppedRecords)

	if result.Truncated() {
		fmt.Fprintf(w, "Run stopped early on throttling. Resume with --start-page %d and merge the outputs by hand.\n",
			result.ResumePage)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-2] + ".."
}
