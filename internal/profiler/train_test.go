package profiler

import (
	"encoding/json"
	"testing"

	"github.com/marketpulse-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticSamples() []TrainingSample {
	var samples []TrainingSample
	cryptoTitles := []string{
		"will bitcoin close above $100k",
		"will bitcoin trade above $120k this week",
		"will ethereum close above $5000",
		"will bitcoin stay above $90k",
		"will solana trade above $300",
		"will bitcoin close above $110k friday",
	}
	macroTitles := []string{
		"will cpi exceed 3 percent",
		"will the fomc cut rates in september",
		"will nonfarm payrolls beat expectations",
		"will cpi come in below 2.5 percent",
		"will the fomc hold rates steady",
		"will payrolls exceed 200k",
	}
	for i, title := range cryptoTitles {
		samples = append(samples, TrainingSample{
			Provider:   "polymarket",
			MarketID:   string(rune('a'+i)) + "-crypto",
			Text:       NormalizeText(title),
			AnchorType: models.AnchorSpotPrice,
		})
	}
	for i, title := range macroTitles {
		samples = append(samples, TrainingSample{
			Provider:   "kalshi",
			MarketID:   string(rune('a'+i)) + "-macro",
			Text:       NormalizeText(title),
			AnchorType: models.AnchorMacroRelease,
		})
	}
	return samples
}

func TestTrain_PredictsTrainingDistribution(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.MinDF = 1
	opts.ModelVersion = "nb-test"

	model, report, err := Train(syntheticSamples(), models.AnchorTypes, opts)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Greater(t, report.TrainDocs, 0)
	assert.Greater(t, report.VocabSize, 0)

	anchor, confidence := model.Predict(Tokenize(NormalizeText("will bitcoin close above $95k")))
	assert.Equal(t, models.AnchorSpotPrice, anchor)
	assert.Greater(t, confidence, 0.5)

	anchor, _ = model.Predict(Tokenize(NormalizeText("will cpi exceed expectations")))
	assert.Equal(t, models.AnchorMacroRelease, anchor)
}

func TestTrain_Deterministic(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.MinDF = 1
	opts.ModelVersion = "nb-test"

	first, _, err := Train(syntheticSamples(), models.AnchorTypes, opts)
	require.NoError(t, err)
	second, _, err := Train(syntheticSamples(), models.AnchorTypes, opts)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestTrainBucket_StableSplit(t *testing.T) {
	// The split must be a pure function of identity.
	for i := 0; i < 50; i++ {
		id := string(rune('a'+i%26)) + "-market"
		first := TrainBucket("polymarket", id)
		second := TrainBucket("polymarket", id)
		assert.Equal(t, first, second)
	}

	// Roughly 80/20 over a larger population.
	train := 0
	total := 1000
	for i := 0; i < total; i++ {
		if TrainBucket("kalshi", "ticker-"+string(rune('a'+i%26))+string(rune('0'+i%10))+string(rune('a'+(i/26)%26))) {
			train++
		}
	}
	assert.Greater(t, train, total/2)
	assert.Less(t, train, total*19/20)
}

func TestTrain_RejectsUnknownClass(t *testing.T) {
	samples := []TrainingSample{{
		Provider:   "polymarket",
		MarketID:   "m1",
		Text:       "anything",
		AnchorType: "not_a_real_anchor",
	}}
	opts := DefaultTrainOptions()
	opts.ModelVersion = "nb-test"

	_, _, err := Train(samples, models.AnchorTypes, opts)
	require.Error(t, err)
}

func TestBuildVocab_MinDFAndTieBreak(t *testing.T) {
	samples := []TrainingSample{
		{Text: "alpha beta"},
		{Text: "alpha beta"},
		{Text: "alpha beta"},
		{Text: "alpha gamma"},
		{Text: "alpha gamma"},
		{Text: "delta"},
	}

	vocab := buildVocab(samples, 3, 1)

	// df: alpha=5, beta=3, alpha_beta=3, gamma=2, alpha_gamma=2, delta=1.
	// With minDF 3 the survivors are alpha, beta, alpha_beta; capped to the
	// single highest-df term, which is alpha.
	require.Len(t, vocab, 1)
	assert.Equal(t, "alpha", vocab[0])
}

func TestModelValidate_RejectsShapeMismatch(t *testing.T) {
	model := &AnchorModel{
		ModelVersion: "bad",
		AnchorTypes:  []string{"a", "b"},
		Vocab:        []string{"x"},
		LogPrior:     []float64{-1}, // wrong length
		LogProb:      [][]float64{{-1}, {-1}},
	}
	require.Error(t, model.Validate())
}
