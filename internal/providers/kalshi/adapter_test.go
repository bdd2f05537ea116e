package kalshi

import (
	"math"
	"testing"
)

func TestDeriveYesQuote_MidWhenBothSidesQuoted(t *testing.T) {
	m := KalshiMarket{YesBid: float64(40), YesAsk: float64(44), LastPrice: float64(99)}

	prob, spread := deriveYesQuote(m)

	if math.Abs(prob-0.42) > 1e-9 {
		t.Errorf("expected mid 0.42, got %v", prob)
	}
	if spread == nil || math.Abs(*spread-4) > 1e-9 {
		t.Errorf("expected 4 pp spread, got %v", spread)
	}
}

func TestDeriveYesQuote_SentinelFallsBackToLast(t *testing.T) {
	// 0 and 100 are absence-of-quote sentinels, not real prices.
	cases := []struct {
		name string
		bid  float64
		ask  float64
	}{
		{"zero bid", 0, 44},
		{"full ask", 40, 100},
		{"both sentinel", 0, 100},
	}

	for _, tc := range cases {
		m := KalshiMarket{YesBid: tc.bid, YesAsk: tc.ask, LastPrice: float64(37)}
		prob, spread := deriveYesQuote(m)
		if math.Abs(prob-0.37) > 1e-9 {
			t.Errorf("%s: expected last 0.37, got %v", tc.name, prob)
		}
		if spread != nil {
			t.Errorf("%s: expected nil spread, got %v", tc.name, *spread)
		}
	}
}

func TestDeriveYesQuote_StringNumbers(t *testing.T) {
	m := KalshiMarket{YesBid: "40", YesAsk: "44"}
	prob, _ := deriveYesQuote(m)
	if math.Abs(prob-0.42) > 1e-9 {
		t.Errorf("expected 0.42 from string cents, got %v", prob)
	}
}

func TestDetectCombo_SelectedLegs(t *testing.T) {
	legs := []interface{}{
		map[string]interface{}{"title": "Chiefs beat Bills"},
		map[string]interface{}{"title": "Lakers beat Celtics"},
		map[string]interface{}{"title": "Yankees beat Red Sox"},
	}

	combo := DetectCombo("KXCOMBO-123", "irrelevant", legs)
	if combo == nil {
		t.Fatal("expected combo detection")
	}
	if len(combo.Legs) != 3 {
		t.Fatalf("expected 3 legs, got %d", len(combo.Legs))
	}
	if combo.Summary != "Chiefs beat Bills (+2 legs)" {
		t.Errorf("unexpected summary: %q", combo.Summary)
	}
}

func TestDetectCombo_LongCommaTitle(t *testing.T) {
	title := "yes Chiefs win the Super Bowl, no Lakers make the playoffs, yes Yankees win the World Series"
	combo := DetectCombo("SOME-TICKER", title, nil)
	if combo == nil {
		t.Fatal("expected combo detection from title shape")
	}
	if len(combo.Legs) != 3 {
		t.Fatalf("expected 3 legs, got %d", len(combo.Legs))
	}
}

func TestDetectCombo_PlainMarket(t *testing.T) {
	if combo := DetectCombo("PRES-2028-DEM", "Will a Democrat win the 2028 election?", nil); combo != nil {
		t.Errorf("expected no combo, got %+v", combo)
	}

	// Short title with a comma is not a combo.
	if combo := DetectCombo("FED-DEC", "Fed cuts rates, then pauses?", nil); combo != nil {
		t.Errorf("expected no combo for short comma title, got %+v", combo)
	}
}
