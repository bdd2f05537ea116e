/**
 * @description
 * Offline training for the anchor classifier: vocabulary selection,
 * multinomial naive-Bayes estimation with Laplace smoothing, and a
 * deterministic 80/20 holdout split keyed by market identity.
 *
 * @notes
 * - The split hashes provider:market_id, not the text, so retraining with new
 *   labels keeps every market on its original side of the split.
 */

package profiler

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
)

// TrainingSample is one labeled market.
type TrainingSample struct {
	Provider   string
	MarketID   string
	Text       string // already-normalized document text
	AnchorType string
}

// TrainOptions carries the training hyperparameters.
type TrainOptions struct {
	MinDF        int
	MaxVocab     int
	Alpha        float64
	ModelVersion string
	CreatedAt    string
}

// DefaultTrainOptions returns the standard hyperparameters.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MinDF:    3,
		MaxVocab: 3500,
		Alpha:    1.0,
	}
}

// TrainReport summarizes a training run.
type TrainReport struct {
	TrainDocs       int
	TestDocs        int
	VocabSize       int
	HoldoutCorrect  int
	HoldoutAccuracy float64
}

// Train fits the model on the train buckets and evaluates on the holdout.
func Train(samples []TrainingSample, classes []string, opts TrainOptions) (*AnchorModel, *TrainReport, error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no training samples")
	}
	if opts.ModelVersion == "" {
		return nil, nil, fmt.Errorf("model version is required")
	}

	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	var train, test []TrainingSample
	for _, s := range samples {
		if _, ok := classIndex[s.AnchorType]; !ok {
			return nil, nil, fmt.Errorf("sample %s:%s has unknown anchor type %q", s.Provider, s.MarketID, s.AnchorType)
		}
		if TrainBucket(s.Provider, s.MarketID) {
			train = append(train, s)
		} else {
			test = append(test, s)
		}
	}
	if len(train) == 0 {
		return nil, nil, fmt.Errorf("all samples landed in the holdout split")
	}

	vocab := buildVocab(train, opts.MinDF, opts.MaxVocab)
	vocabIndex := make(map[string]int, len(vocab))
	for i, term := range vocab {
		vocabIndex[term] = i
	}

	classDocs := make([]int, len(classes))
	classTokenTotals := make([]float64, len(classes))
	counts := make([][]float64, len(classes))
	for c := range counts {
		counts[c] = make([]float64, len(vocab))
	}

	for _, s := range train {
		c := classIndex[s.AnchorType]
		classDocs[c]++
		for _, tok := range Tokenize(s.Text) {
			idx, ok := vocabIndex[tok]
			if !ok {
				continue
			}
			counts[c][idx]++
			classTokenTotals[c]++
		}
	}

	logPrior := make([]float64, len(classes))
	logProb := make([][]float64, len(classes))
	vocabSize := float64(len(vocab))
	totalDocs := float64(len(train))

	for c := range classes {
		docs := classDocs[c]
		if docs == 0 {
			// A class absent from training gets a floor prior so prediction
			// arithmetic stays finite.
			logPrior[c] = math.Log(1 / (totalDocs + 1))
		} else {
			logPrior[c] = math.Log(float64(docs) / totalDocs)
		}

		logProb[c] = make([]float64, len(vocab))
		denom := classTokenTotals[c] + opts.Alpha*vocabSize
		for t := range vocab {
			logProb[c][t] = math.Log((counts[c][t] + opts.Alpha) / denom)
		}
	}

	model := &AnchorModel{
		ModelVersion: opts.ModelVersion,
		CreatedAt:    opts.CreatedAt,
		AnchorTypes:  classes,
		Vocab:        vocab,
		Alpha:        opts.Alpha,
		LogPrior:     logPrior,
		LogProb:      logProb,
	}
	if err := model.Validate(); err != nil {
		return nil, nil, err
	}

	report := &TrainReport{
		TrainDocs: len(train),
		TestDocs:  len(test),
		VocabSize: len(vocab),
	}
	for _, s := range test {
		predicted, _ := model.Predict(Tokenize(s.Text))
		if predicted == s.AnchorType {
			report.HoldoutCorrect++
		}
	}
	if len(test) > 0 {
		report.HoldoutAccuracy = float64(report.HoldoutCorrect) / float64(len(test))
	}

	return model, report, nil
}

// TrainBucket reports whether a market falls in the 80% training split.
// Buckets 0–7 train, 8–9 hold out.
func TrainBucket(provider, marketID string) bool {
	h := fnv.New32a()
	h.Write([]byte(provider + ":" + marketID))
	return h.Sum32()%10 < 8
}

// buildVocab selects tokens by document frequency: df ≥ minDF, top maxVocab
// by df, ties broken lexicographically.
func buildVocab(train []TrainingSample, minDF, maxVocab int) []string {
	df := make(map[string]int)
	for _, s := range train {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(s.Text) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	var terms []string
	for term, count := range df {
		if count >= minDF {
			terms = append(terms, term)
		}
	}

	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxVocab {
		terms = terms[:maxVocab]
	}

	// The persisted vocab is sorted for stable artifacts and fast diffing.
	sort.Strings(terms)
	return terms
}
