/**
 * @description
 * The hybrid anchor-type cascade: high-precision hard rules first, then the
 * trained classifier (with context veto), then a fallback rule ladder.
 */

package profiler

import "github.com/marketpulse-project/backend/internal/models"

// Confidence levels assigned by each cascade stage.
const (
	hardRuleConfidence = 0.95
	ladderConfidence   = 0.8
	policyConfidence   = 0.65
	unknownConfidence  = 0.3

	// mlAcceptThreshold gates classifier predictions.
	mlAcceptThreshold = 0.55
)

// ProfileDoc is everything the cascade sees about one market.
type ProfileDoc struct {
	Title              string
	OriginalTitle      string
	Legs               []string
	NormalizedCategory string
}

// ClassifyAnchor runs the cascade and returns the anchor type with its
// confidence. A nil model skips the ML step.
func ClassifyAnchor(doc ProfileDoc, model *AnchorModel) (string, float64) {
	parts := append([]string{doc.Title, doc.OriginalTitle}, doc.Legs...)
	text := NormalizeText(parts...)

	cryptoCtx := CryptoContext(doc.NormalizedCategory, text)
	sportsCtx := SportsContext(doc.NormalizedCategory, text)

	// Hard rules: price-anchored crypto and in-play sports dominate their
	// patterns so strongly that the classifier never gets a vote.
	if cryptoCtx && priceAnchorRe.MatchString(text) && digitRe.MatchString(text) {
		return models.AnchorSpotPrice, hardRuleConfidence
	}
	if sportsCtx && liveScoreRe.MatchString(text) && !teamNewsRe.MatchString(text) {
		return models.AnchorLiveScore, hardRuleConfidence
	}

	if model != nil {
		predicted, confidence := model.Predict(Tokenize(text))
		if confidence >= mlAcceptThreshold && !contextVeto(predicted, cryptoCtx, sportsCtx) {
			return predicted, confidence
		}
	}

	// Fallback ladder, first match wins.
	switch {
	case macroRe.MatchString(text):
		return models.AnchorMacroRelease, ladderConfidence
	case cryptoCtx && cryptoNewsRe.MatchString(text) && !liveScoreRe.MatchString(text):
		return models.AnchorCryptoNews, ladderConfidence
	case sportsCtx && teamNewsRe.MatchString(text):
		return models.AnchorSportsNews, ladderConfidence
	case policyRe.MatchString(text):
		return models.AnchorPolicy, policyConfidence
	}

	return models.AnchorOtherUnknown, unknownConfidence
}

// contextVeto rejects classifier predictions that map to an exogenous anchor
// without the matching market context.
func contextVeto(predicted string, cryptoCtx, sportsCtx bool) bool {
	switch predicted {
	case models.AnchorSpotPrice:
		return !cryptoCtx
	case models.AnchorLiveScore:
		return !sportsCtx
	}
	return false
}
