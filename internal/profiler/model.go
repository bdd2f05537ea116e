/**
 * @description
 * Anchor classifier model: a multinomial naive-Bayes artifact persisted as a
 * versioned JSON blob, hot-reloadable without restart. Readers snapshot the
 * model through an atomic pointer; a failed reload keeps the previous model.
 *
 * @dependencies
 * - encoding/json
 * - sync/atomic
 */

package profiler

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// AnchorModel is the persisted classifier artifact.
type AnchorModel struct {
	ModelVersion string      `json:"modelVersion"`
	CreatedAt    string      `json:"createdAt"`
	AnchorTypes  []string    `json:"anchorTypes"`
	Vocab        []string    `json:"vocab"`
	Alpha        float64     `json:"alpha"`
	LogPrior     []float64   `json:"logPrior"`
	LogProb      [][]float64 `json:"logProb"`

	vocabIndex map[string]int
}

// Validate checks internal consistency and builds the vocab index.
func (m *AnchorModel) Validate() error {
	if m.ModelVersion == "" {
		return fmt.Errorf("model is missing modelVersion")
	}
	if len(m.AnchorTypes) == 0 {
		return fmt.Errorf("model has no anchor types")
	}
	if len(m.LogPrior) != len(m.AnchorTypes) {
		return fmt.Errorf("logPrior length %d != %d classes", len(m.LogPrior), len(m.AnchorTypes))
	}
	if len(m.LogProb) != len(m.AnchorTypes) {
		return fmt.Errorf("logProb rows %d != %d classes", len(m.LogProb), len(m.AnchorTypes))
	}
	for i, row := range m.LogProb {
		if len(row) != len(m.Vocab) {
			return fmt.Errorf("logProb row %d length %d != vocab size %d", i, len(row), len(m.Vocab))
		}
	}

	m.vocabIndex = make(map[string]int, len(m.Vocab))
	for i, term := range m.Vocab {
		m.vocabIndex[term] = i
	}
	return nil
}

// Predict sums log prior and per-token log likelihoods for every in-vocab
// token and returns the argmax class with its softmax confidence.
func (m *AnchorModel) Predict(tokens []string) (string, float64) {
	scores := make([]float64, len(m.AnchorTypes))
	copy(scores, m.LogPrior)

	for _, tok := range tokens {
		idx, ok := m.vocabIndex[tok]
		if !ok {
			continue
		}
		for c := range scores {
			scores[c] += m.LogProb[c][idx]
		}
	}

	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}

	// Softmax of the winning logit, shifted for stability.
	maxScore := scores[best]
	var denom float64
	for _, s := range scores {
		denom += math.Exp(s - maxScore)
	}
	confidence := 1.0 / denom

	return m.AnchorTypes[best], confidence
}

// LoadModel reads and validates a model artifact from disk.
func LoadModel(path string) (*AnchorModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var model AnchorModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	return &model, nil
}

// ModelLoader hot-reloads the artifact at a bounded interval.
// Get never blocks readers on I/O beyond the refresh attempt itself, and a
// failed attempt retains the previously loaded model.
type ModelLoader struct {
	path     string
	interval time.Duration

	current     atomic.Pointer[AnchorModel]
	mu          sync.Mutex
	lastAttempt time.Time
}

func NewModelLoader(path string, interval time.Duration) *ModelLoader {
	return &ModelLoader{
		path:     path,
		interval: interval,
	}
}

// Get returns the current model, refreshing from disk when the reload
// interval has elapsed. Returns nil when no artifact has ever loaded.
func (l *ModelLoader) Get() *AnchorModel {
	l.mu.Lock()
	if time.Since(l.lastAttempt) >= l.interval {
		l.lastAttempt = time.Now()
		if model, err := LoadModel(l.path); err == nil {
			l.current.Store(model)
		}
	}
	l.mu.Unlock()

	return l.current.Load()
}
