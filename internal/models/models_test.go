package models

import (
	"testing"
	"time"
)

func TestStringArrayRoundTrip(t *testing.T) {
	tags := StringArray{"anchor_spot_price", "spot_price_shock"}

	value, err := tags.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded StringArray
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "anchor_spot_price" || decoded[1] != "spot_price_shock" {
		t.Errorf("round trip mismatch: %v", decoded)
	}
}

func TestStringArrayEmpty(t *testing.T) {
	var decoded StringArray
	if err := decoded.Scan("{}"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected empty, got %v", decoded)
	}

	value, err := StringArray(nil).Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if value != "{}" {
		t.Errorf("nil array should encode as {}, got %v", value)
	}
}

func TestJSONMapRoundTrip(t *testing.T) {
	meta := JSONMap{"slug": "fed-december", "legs": []interface{}{"a", "b"}}

	value, err := meta.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded JSONMap
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if decoded["slug"] != "fed-december" {
		t.Errorf("round trip mismatch: %v", decoded)
	}
}

func TestDeltaWindowAccessors(t *testing.T) {
	d := &Delta{}
	v := 4.2
	for _, w := range Windows {
		d.SetWindow(w, &v)
	}
	for _, w := range Windows {
		got := d.ByWindow(w)
		if got == nil || *got != 4.2 {
			t.Errorf("window %s: got %v", w, got)
		}
	}

	m := d.WindowMap()
	if len(m) != len(Windows) {
		t.Errorf("window map has %d entries, want %d", len(m), len(Windows))
	}
}

func TestWindowColumnWhitelist(t *testing.T) {
	for _, w := range Windows {
		if w.Column() == "" {
			t.Errorf("window %s has no column", w)
		}
		if !ValidWindow(string(w)) {
			t.Errorf("window %s not valid", w)
		}
	}

	if ValidWindow("3h") {
		t.Error("legacy window 3h must not validate")
	}
	if Window("drop table").Column() != "" {
		t.Error("arbitrary input must not map to a column")
	}
}

func TestWindowDurations(t *testing.T) {
	if Window1m.Duration() != time.Minute {
		t.Errorf("1m duration = %v", Window1m.Duration())
	}
	if Window24h.Duration() != 24*time.Hour {
		t.Errorf("24h duration = %v", Window24h.Duration())
	}
}

func TestInsiderPossible(t *testing.T) {
	if InsiderPossible(AnchorSpotPrice) || InsiderPossible(AnchorLiveScore) {
		t.Error("exogenous anchors must not be insider-possible")
	}
	for _, anchor := range []string{AnchorMacroRelease, AnchorPolicy, AnchorSportsNews, AnchorCryptoNews, AnchorOtherUnknown} {
		if !InsiderPossible(anchor) {
			t.Errorf("anchor %s should be insider-possible", anchor)
		}
	}
}

func TestOutcomeSnapshotToRows(t *testing.T) {
	ts := time.Date(2026, 8, 6, 14, 3, 0, 0, time.UTC)
	rec := OutcomeSnapshot{
		TsMinute:           ts,
		Provider:           ProviderKalshi,
		MarketID:           "FED-DEC",
		MarketTitle:        "Fed cuts in December?",
		NormalizedCategory: CategoryMacro,
		OutcomeID:          "yes",
		OutcomeLabel:       "Yes",
		Probability:        0.61,
		LiquidityUSD:       12000,
	}

	market, outcome, snapshot := rec.ToRows()

	if market.Provider != ProviderKalshi || market.MarketID != "FED-DEC" {
		t.Errorf("market identity mismatch: %+v", market)
	}
	if outcome.OutcomeID != "yes" || outcome.Label != "Yes" {
		t.Errorf("outcome mismatch: %+v", outcome)
	}
	if !snapshot.TsMinute.Equal(ts) || snapshot.Probability != 0.61 {
		t.Errorf("snapshot mismatch: %+v", snapshot)
	}
	if snapshot.MarketTitle != market.Title {
		t.Error("snapshot must cache the market title")
	}
}
