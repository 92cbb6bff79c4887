package config

import "testing"

func TestListingURL(t *testing.T) {
	c := TripsConfig{BaseURL: "https://www.tripit.com", Filter: "past"}
	got := c.ListingURL(3)
	want := "https://www.tripit.com/app/trips?trips_filter=past&page=3"
	if got != want {
		t.Errorf("ListingURL(3) = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Load()
		c.LLM.APIKey = "sk-test"
		return c
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("default config with key should validate: %v", err)
	}

	c := valid()
	c.LLM.APIKey = ""
	if err := c.Validate(); err == nil {
		t.Error("missing API key should fail validation")
	}

	c = valid()
	c.Trips.Filter = "cancelled"
	if err := c.Validate(); err == nil {
		t.Error("unknown filter should fail validation")
	}

	c = valid()
	c.Trips.StartPage = 0
	if err := c.Validate(); err == nil {
		t.Error("start page 0 should fail validation")
	}
}
