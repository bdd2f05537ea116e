package pipeline

import (
	"testing"

	"github.com/marketpulse-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestScore_CryptoSpotShock(t *testing.T) {
	// Spot-anchored market moving with a BTC shock reads as arbitrage.
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorSpotPrice,
		ProfileConfidence:  f(0.9),
		NormalizedCategory: models.CategoryCrypto,
		MarketTitle:        "Will Bitcoin trade above $120k?",
		Delta1m:            f(9),
		Volume24hUSD:       5000,
		Btc1mPct:           f(1.2),
	})

	assert.InDelta(t, 77.5, result.ExogenousScore, 1e-9) // 10 + 55*0.9 + 18
	assert.InDelta(t, 20, result.OpaqueScore, 1e-9)
	assert.Equal(t, models.LabelExogenousArbitrage, result.Label)
	assert.Contains(t, result.ReasonTags, "anchor_spot_price")
	assert.Contains(t, result.ReasonTags, "spot_price_shock")
}

func TestScore_OpaquePoliticsMove(t *testing.T) {
	result := Score(Features{
		HasProfile:         false,
		NormalizedCategory: models.CategoryPolitics,
		MarketTitle:        "Who will win the special election?",
		Delta1m:            f(6),
		Volume24hUSD:       50000,
		SpreadPP:           f(5),
	})

	assert.InDelta(t, 70, result.OpaqueScore, 1e-9) // 20 + 20 + 20 + 10
	assert.InDelta(t, 10, result.ExogenousScore, 1e-9)
	assert.Equal(t, models.LabelOpaqueInfoSensitive, result.Label)
	assert.Contains(t, result.ReasonTags, "opaque_info_prone_category")
	assert.Contains(t, result.ReasonTags, "meaningful_size_move")
	assert.Contains(t, result.ReasonTags, "tight_spread")
}

func TestScore_QuietOutcomeStaysUnclear(t *testing.T) {
	result := Score(Features{
		HasProfile:         false,
		NormalizedCategory: models.CategoryOther,
		MarketTitle:        "Will it rain in Paris tomorrow?",
		Delta1m:            f(1),
		SpreadPP:           f(20),
	})

	assert.InDelta(t, 40, result.OpaqueScore, 1e-9) // 20 + 20 category
	assert.InDelta(t, 10, result.ExogenousScore, 1e-9)
	assert.Equal(t, models.LabelUnclear, result.Label)
}

func TestScore_AbruptMoveConfidenceFloor(t *testing.T) {
	// The exogenous abrupt-move branch floors confidence at 0.9 even when
	// the profile itself is weaker.
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorLiveScore,
		ProfileConfidence:  f(0.6),
		NormalizedCategory: models.CategorySports,
		MarketTitle:        "Will the Lakers beat the Celtics?",
		Delta1m:            f(16),
	})

	// 10 + 60*0.6 + 12*0.9 = 56.8
	assert.InDelta(t, 56.8, result.ExogenousScore, 1e-9)
	assert.Contains(t, result.ReasonTags, "abrupt_micro_move")
	assert.Equal(t, models.LabelExogenousArbitrage, result.Label)
}

func TestScore_AbruptMoveOpaqueBranch(t *testing.T) {
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorMacroRelease,
		ProfileConfidence:  f(0.8),
		NormalizedCategory: models.CategoryMacro,
		MarketTitle:        "Will the Fed cut rates?",
		Delta1m:            f(-16),
	})

	// 20 + 35*0.8 + 20 category + 10 abrupt = 78
	assert.InDelta(t, 78, result.OpaqueScore, 1e-9)
	assert.Contains(t, result.ReasonTags, "abrupt_micro_move")
	assert.Equal(t, models.LabelOpaqueInfoSensitive, result.Label)
}

func TestScore_MissingConfidenceDefaults(t *testing.T) {
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorPolicy,
		ProfileConfidence:  nil, // present profile, missing confidence
		NormalizedCategory: models.CategorySports,
		MarketTitle:        "Will the league approve the expansion?",
	})

	// 20 + 30*0.7 = 41; sports category adds nothing to opaque.
	assert.InDelta(t, 41, result.OpaqueScore, 1e-9)
}

func TestScore_UnknownAnchorContextNudges(t *testing.T) {
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorOtherUnknown,
		ProfileConfidence:  f(0.3),
		NormalizedCategory: models.CategorySports,
		MarketTitle:        "Will the Yankees win the World Series?",
	})

	// 10 + 15 sports_related = 25
	assert.InDelta(t, 25, result.ExogenousScore, 1e-9)
	assert.Contains(t, result.ReasonTags, "sports_related")
}

func TestScore_ClampsToHundred(t *testing.T) {
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorCryptoNews,
		ProfileConfidence:  f(1.0),
		NormalizedCategory: models.CategoryOther,
		MarketTitle:        "Will the exchange be hacked?",
		Delta1m:            f(40),
		Volume24hUSD:       1e6,
		SpreadPP:           f(1),
	})

	// 20 + 45 + 20 + 20 + 10 + 10 = 125 before the clamp.
	require.Equal(t, 100.0, result.OpaqueScore)
	assert.Equal(t, models.LabelOpaqueInfoSensitive, result.Label)
}

func TestScore_LabelPrefersOpaqueOnTie(t *testing.T) {
	result := Score(Features{
		HasProfile:         true,
		AnchorType:         models.AnchorLiveScore,
		ProfileConfidence:  f(1.0),
		NormalizedCategory: models.CategoryPolitics,
		Delta1m:            f(5),
		Volume24hUSD:       20000,
		SpreadPP:           f(5),
	})

	// 20 + 20 category + 20 size move + 10 spread = 70 opaque vs
	// 10 + 60 live score = 70 exogenous; the tie goes to opaque.
	assert.InDelta(t, 70, result.OpaqueScore, 1e-9)
	assert.InDelta(t, 70, result.ExogenousScore, 1e-9)
	assert.Equal(t, models.LabelOpaqueInfoSensitive, result.Label)
}

func TestRoundPP(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{0.125, 0.13}, // half away from zero
		{-0.125, -0.13},
		{0, 0},
	}
	for _, tc := range cases {
		if got := RoundPP(tc.in); got != tc.want {
			t.Errorf("RoundPP(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
