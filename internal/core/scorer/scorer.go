// Package scorer ranks collected keywords by combining search volume,
// growth, and difficulty into a single 0-100 score.
package scorer

import (
	"math"
	"sort"

	"github.com/kwradar/kwradar/internal/core"
)

// Default metric weights. Difficulty is inverted before weighting, a
// harder keyword scores lower.
const (
	DefaultVolumeWeight     = 0.4
	DefaultGrowthWeight     = 0.4
	DefaultDifficultyWeight = 0.2
)

// neutralScore is assigned when a metric cannot discriminate, either
// because every row carries the same value or the metric is missing.
const neutralScore = 50.0

// Input is one keyword row to score. Difficulty is optional; rows without
// it receive the neutral difficulty score.
type Input struct {
	Keyword       string
	Volume        float64
	Growth        float64
	Difficulty    float64
	HasDifficulty bool
}

// Scorer computes weighted composite scores over a batch of keywords.
// Weights that do not sum to one are normalized at construction.
type Scorer struct {
	volumeWeight     float64
	growthWeight     float64
	difficultyWeight float64
}

// New builds a scorer with the given weights. Non-positive totals fall
// back to the defaults.
func New(volumeWeight, growthWeight, difficultyWeight float64) *Scorer {
	total := volumeWeight + growthWeight + difficultyWeight
	if total <= 0 {
		volumeWeight = DefaultVolumeWeight
		growthWeight = DefaultGrowthWeight
		difficultyWeight = DefaultDifficultyWeight
		total = 1
	}
	return &Scorer{
		volumeWeight:     volumeWeight / total,
		growthWeight:     growthWeight / total,
		difficultyWeight: difficultyWeight / total,
	}
}

// Default returns a scorer with the standard 0.4/0.4/0.2 weights.
func Default() *Scorer {
	return New(DefaultVolumeWeight, DefaultGrowthWeight, DefaultDifficultyWeight)
}

// Score normalizes each metric across the batch, combines them with the
// configured weights, and returns rows sorted by score descending.
func (s *Scorer) Score(inputs []Input) []core.KeywordScore {
	if len(inputs) == 0 {
		return nil
	}

	volumes := make([]float64, len(inputs))
	growths := make([]float64, len(inputs))
	for i, in := range inputs {
		volumes[i] = in.Volume
		growths[i] = in.Growth
	}
	volumeScores := normalize(volumes)
	growthScores := normalize(growths)
	difficultyScores := s.difficultyScores(inputs)

	scores := make([]core.KeywordScore, len(inputs))
	for i, in := range inputs {
		composite := s.volumeWeight*volumeScores[i] +
			s.growthWeight*growthScores[i] +
			s.difficultyWeight*difficultyScores[i]
		composite = math.Round(composite)

		scores[i] = core.KeywordScore{
			Keyword:    in.Keyword,
			Volume:     in.Volume,
			Growth:     in.Growth,
			Difficulty: in.Difficulty,
			Score:      composite,
			Grade:      Grade(composite),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

func (s *Scorer) difficultyScores(inputs []Input) []float64 {
	values := make([]float64, 0, len(inputs))
	for _, in := range inputs {
		if in.HasDifficulty {
			values = append(values, in.Difficulty)
		}
	}
	// Without difficulty data for the whole batch, treat every row as
	// medium difficulty.
	if len(values) != len(inputs) {
		scores := make([]float64, len(inputs))
		for i := range scores {
			scores[i] = neutralScore
		}
		return scores
	}

	// Lower difficulty is better, so invert the normalized value.
	scores := normalize(values)
	for i := range scores {
		scores[i] = 100 - scores[i]
	}
	return scores
}

// Filter drops rows that fall below the given thresholds. Nil thresholds
// are ignored.
type Filter struct {
	MinScore      *float64
	MinVolume     *float64
	MinGrowth     *float64
	MaxDifficulty *float64
}

// Apply returns the rows that pass every configured threshold.
func (f Filter) Apply(scores []core.KeywordScore) []core.KeywordScore {
	kept := make([]core.KeywordScore, 0, len(scores))
	for _, row := range scores {
		if f.MinScore != nil && row.Score < *f.MinScore {
			continue
		}
		if f.MinVolume != nil && row.Volume < *f.MinVolume {
			continue
		}
		if f.MinGrowth != nil && row.Growth < *f.MinGrowth {
			continue
		}
		if f.MaxDifficulty != nil && row.Difficulty > *f.MaxDifficulty {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// Grade buckets a composite score: A above 70, B above 50, C above 30,
// D otherwise.
func Grade(score float64) string {
	switch {
	case score > 70:
		return "A"
	case score > 50:
		return "B"
	case score > 30:
		return "C"
	default:
		return "D"
	}
}

// normalize min-max scales values to 0-100. When every value is equal the
// metric cannot discriminate and each row gets the neutral score.
func normalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	scores := make([]float64, len(values))
	if hi == lo {
		for i := range scores {
			scores[i] = neutralScore
		}
		return scores
	}
	for i, v := range values {
		scores[i] = 100 * (v - lo) / (hi - lo)
	}
	return scores
}
