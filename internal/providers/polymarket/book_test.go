package polymarket

import (
	"math"
	"testing"
)

func TestSummarize_BestQuotesRegardlessOfOrdering(t *testing.T) {
	book := &Book{
		Bids: []BookLevel{
			{Price: "0.40", Size: "100"},
			{Price: "0.44", Size: "50"}, // best bid, listed out of order
			{Price: "0.42", Size: "75"},
		},
		Asks: []BookLevel{
			{Price: "0.50", Size: "80"},
			{Price: "0.46", Size: "60"}, // best ask
		},
	}

	stats := book.Summarize(20)

	if stats.BestBid == nil || math.Abs(*stats.BestBid-0.44) > 1e-9 {
		t.Errorf("best bid = %v, want 0.44", stats.BestBid)
	}
	if stats.BestAsk == nil || math.Abs(*stats.BestAsk-0.46) > 1e-9 {
		t.Errorf("best ask = %v, want 0.46", stats.BestAsk)
	}

	// Depth = sum(price*size) over both sides.
	want := 0.40*100 + 0.44*50 + 0.42*75 + 0.50*80 + 0.46*60
	if math.Abs(stats.DepthUSD-want) > 1e-6 {
		t.Errorf("depth = %v, want %v", stats.DepthUSD, want)
	}
}

func TestSummarize_DepthLevelCap(t *testing.T) {
	book := &Book{}
	for i := 0; i < 30; i++ {
		book.Bids = append(book.Bids, BookLevel{Price: "0.50", Size: "10"})
	}

	stats := book.Summarize(20)

	// Only the top 20 levels count.
	want := 0.50 * 10 * 20
	if math.Abs(stats.DepthUSD-want) > 1e-6 {
		t.Errorf("depth = %v, want %v", stats.DepthUSD, want)
	}
}

func TestSummarize_SkipsGarbageLevels(t *testing.T) {
	book := &Book{
		Bids: []BookLevel{
			{Price: "not-a-price", Size: "10"},
			{Price: "0", Size: "10"},
			{Price: "0.30", Size: "10"},
		},
	}

	stats := book.Summarize(20)
	if stats.BestBid == nil || *stats.BestBid != 0.30 {
		t.Errorf("best bid = %v, want 0.30", stats.BestBid)
	}
	if stats.BestAsk != nil {
		t.Errorf("expected nil best ask, got %v", *stats.BestAsk)
	}
}

func TestParseStringList(t *testing.T) {
	if got := ParseStringList(`["Yes","No"]`); len(got) != 2 || got[0] != "Yes" {
		t.Errorf("stringified list: got %v", got)
	}
	if got := ParseStringList([]interface{}{"A", "B", "C"}); len(got) != 3 {
		t.Errorf("native list: got %v", got)
	}
	if got := ParseStringList(""); got != nil {
		t.Errorf("empty string: got %v", got)
	}
	if got := ParseStringList("{broken"); got != nil {
		t.Errorf("broken JSON: got %v", got)
	}
	if got := ParseStringList(nil); got != nil {
		t.Errorf("nil: got %v", got)
	}
}
