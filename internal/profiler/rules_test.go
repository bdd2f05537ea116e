package profiler

import (
	"testing"

	"github.com/marketpulse-project/backend/internal/models"
)

func TestClassifyAnchor_CryptoPriceHardRule(t *testing.T) {
	doc := ProfileDoc{
		Title:              "Will Bitcoin trade above $120,000 on Friday?",
		NormalizedCategory: models.CategoryCrypto,
	}

	anchor, confidence := ClassifyAnchor(doc, nil)

	if anchor != models.AnchorSpotPrice {
		t.Errorf("anchor = %q, want spot_price_anchored", anchor)
	}
	if confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", confidence)
	}
}

func TestClassifyAnchor_LiveScoreHardRule(t *testing.T) {
	doc := ProfileDoc{
		Title:              "Will the Chiefs beat the Bills tonight?",
		NormalizedCategory: models.CategorySports,
	}

	anchor, confidence := ClassifyAnchor(doc, nil)

	if anchor != models.AnchorLiveScore {
		t.Errorf("anchor = %q, want live_score_anchored", anchor)
	}
	if confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", confidence)
	}
}

func TestClassifyAnchor_TeamNewsBlocksLiveScore(t *testing.T) {
	doc := ProfileDoc{
		Title:              "Will the Chiefs win after signing a new quarterback?",
		NormalizedCategory: models.CategorySports,
	}

	anchor, confidence := ClassifyAnchor(doc, nil)

	if anchor != models.AnchorSportsNews {
		t.Errorf("anchor = %q, want sports_team_news", anchor)
	}
	if confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", confidence)
	}
}

func TestClassifyAnchor_MacroLadder(t *testing.T) {
	doc := ProfileDoc{
		Title:              "Will CPI year-over-year exceed 3 percent in July?",
		NormalizedCategory: models.CategoryMacro,
	}

	anchor, confidence := ClassifyAnchor(doc, nil)

	if anchor != models.AnchorMacroRelease {
		t.Errorf("anchor = %q, want scheduled_macro_release", anchor)
	}
	if confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", confidence)
	}
}

func TestClassifyAnchor_PolicyLadder(t *testing.T) {
	doc := ProfileDoc{
		Title:              "Will the Senate confirm the nominee this month?",
		NormalizedCategory: models.CategoryPolitics,
	}

	anchor, confidence := ClassifyAnchor(doc, nil)

	if anchor != models.AnchorPolicy {
		t.Errorf("anchor = %q, want policy_regulatory_decision", anchor)
	}
	if confidence != 0.65 {
		t.Errorf("confidence = %v, want 0.65", confidence)
	}
}

func TestClassifyAnchor_Unknown(t *testing.T) {
	doc := ProfileDoc{
		Title:              "Will it snow in Denver on Christmas?",
		NormalizedCategory: models.CategoryOther,
	}

	anchor, confidence := ClassifyAnchor(doc, nil)

	if anchor != models.AnchorOtherUnknown {
		t.Errorf("anchor = %q, want other_unknown", anchor)
	}
	if confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", confidence)
	}
}

func TestClassifyAnchor_ModelVetoWithoutContext(t *testing.T) {
	// A model that always predicts spot_price_anchored with full confidence.
	model := biasedModel(t, models.AnchorSpotPrice)

	doc := ProfileDoc{
		Title:              "Will the Senate confirm the nominee this month?",
		NormalizedCategory: models.CategoryPolitics,
	}

	anchor, _ := ClassifyAnchor(doc, model)

	// No crypto context: the spot prediction is vetoed, the ladder decides.
	if anchor != models.AnchorPolicy {
		t.Errorf("anchor = %q, want policy_regulatory_decision after veto", anchor)
	}
}

func TestClassifyAnchor_ModelAcceptedWithContext(t *testing.T) {
	model := biasedModel(t, models.AnchorCryptoNews)

	doc := ProfileDoc{
		Title:              "Will a major exchange be hacked this quarter?",
		NormalizedCategory: models.CategoryCrypto,
	}

	anchor, confidence := ClassifyAnchor(doc, model)

	if anchor != models.AnchorCryptoNews {
		t.Errorf("anchor = %q, want crypto_news_security from model", anchor)
	}
	if confidence < mlAcceptThreshold {
		t.Errorf("confidence = %v, want >= %v", confidence, mlAcceptThreshold)
	}
}

// biasedModel builds a trivial artifact whose priors force one class.
func biasedModel(t *testing.T, winner string) *AnchorModel {
	t.Helper()

	logPrior := make([]float64, len(models.AnchorTypes))
	logProb := make([][]float64, len(models.AnchorTypes))
	for i, anchorType := range models.AnchorTypes {
		if anchorType == winner {
			logPrior[i] = -0.1
		} else {
			logPrior[i] = -20
		}
		logProb[i] = []float64{}
	}

	model := &AnchorModel{
		ModelVersion: "test-biased",
		AnchorTypes:  models.AnchorTypes,
		Vocab:        []string{},
		Alpha:        1.0,
		LogPrior:     logPrior,
		LogProb:      logProb,
	}
	if err := model.Validate(); err != nil {
		t.Fatalf("model validation failed: %v", err)
	}
	return model
}
