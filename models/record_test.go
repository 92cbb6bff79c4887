package models

import "testing"

func TestFlightRecordValidate(t *testing.T) {
	valid := FlightRecord{
		Date:         "2024-03-01",
		Origin:       "SFO",
		Destination:  "JFK",
		FlightNumber: "UA123",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*FlightRecord)
	}{
		{"empty date", func(r *FlightRecord) { r.Date = "" }},
		{"non-iso date", func(r *FlightRecord) { r.Date = "03/01/2024" }},
		{"impossible date", func(r *FlightRecord) { r.Date = "2024-13-40" }},
		{"lowercase origin", func(r *FlightRecord) { r.Origin = "sfo" }},
		{"short origin", func(r *FlightRecord) { r.Origin = "SF" }},
		{"long destination", func(r *FlightRecord) { r.Destination = "JFKX" }},
		{"empty destination", func(r *FlightRecord) { r.Destination = "" }},
		{"flight number without digits", func(r *FlightRecord) { r.FlightNumber = "UA" }},
		{"flight number with space", func(r *FlightRecord) { r.FlightNumber = "UA 123" }},
		{"flight number too many digits", func(r *FlightRecord) { r.FlightNumber = "UA123456" }},
		{"empty flight number", func(r *FlightRecord) { r.FlightNumber = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			if err := rec.Validate(); err == nil {
				t.Errorf("expected validation failure for %+v", rec)
			}
		})
	}
}

func TestFlightRecordValidate_CarrierVariants(t *testing.T) {
	// Two-letter, alphanumeric, and three-letter carrier codes all occur.
	for _, fn := range []string{"UA794", "B61", "EZY1234", "9W12"} {
		rec := FlightRecord{Date: "2023-11-06", Origin: "SFO", Destination: "PIT", FlightNumber: fn}
		if err := rec.Validate(); err != nil {
			t.Errorf("flight number %q rejected: %v", fn, err)
		}
	}
}

func TestErrorCode(t *testing.T) {
	err := NewPipelineError(ErrCodeFetchThrottled, "slow down", nil)
	if got := ErrorCode(err); got != ErrCodeFetchThrottled {
		t.Errorf("ErrorCode = %q, want %q", got, ErrCodeFetchThrottled)
	}
	if !IsThrottled(err) {
		t.Error("IsThrottled should be true for a throttled error")
	}
	if IsNotFound(err) {
		t.Error("IsNotFound should be false for a throttled error")
	}
	if got := ErrorCode(nil); got != "" {
		t.Errorf("ErrorCode(nil) = %q, want empty", got)
	}
}
