package scorer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreRanksByCompositeDescending(t *testing.T) {
	s := Default()

	scores := s.Score([]Input{
		{Keyword: "weak", Volume: 10, Growth: -5, Difficulty: 90, HasDifficulty: true},
		{Keyword: "strong", Volume: 1000, Growth: 120, Difficulty: 20, HasDifficulty: true},
		{Keyword: "middling", Volume: 400, Growth: 30, Difficulty: 55, HasDifficulty: true},
	})

	require.Len(t, scores, 3)
	require.Equal(t, "strong", scores[0].Keyword)
	require.Equal(t, "middling", scores[1].Keyword)
	require.Equal(t, "weak", scores[2].Keyword)

	// Best row maxes every normalized metric.
	require.Equal(t, 100.0, scores[0].Score)
	require.Equal(t, "A", scores[0].Grade)
	require.Equal(t, 0.0, scores[2].Score)
	require.Equal(t, "D", scores[2].Grade)
}

func TestScoreEqualValuesGetNeutralScore(t *testing.T) {
	s := Default()

	scores := s.Score([]Input{
		{Keyword: "one", Volume: 50, Growth: 10},
		{Keyword: "two", Volume: 50, Growth: 10},
	})

	require.Len(t, scores, 2)
	for _, row := range scores {
		require.Equal(t, 50.0, row.Score)
		require.Equal(t, "C", row.Grade)
	}
}

func TestScoreMissingDifficultyIsNeutral(t *testing.T) {
	s := New(0, 0, 1)

	scores := s.Score([]Input{
		{Keyword: "no-kd", Volume: 10, Growth: 5},
		{Keyword: "with-kd", Volume: 90, Growth: 80, Difficulty: 10, HasDifficulty: true},
	})

	// Difficulty is only partially known, so the whole batch falls back
	// to the neutral difficulty score.
	for _, row := range scores {
		require.Equal(t, 50.0, row.Score)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	require.Nil(t, Default().Score(nil))
}

func TestNewNormalizesWeights(t *testing.T) {
	s := New(4, 4, 2)
	require.InDelta(t, 0.4, s.volumeWeight, 0.0001)
	require.InDelta(t, 0.4, s.growthWeight, 0.0001)
	require.InDelta(t, 0.2, s.difficultyWeight, 0.0001)

	fallback := New(0, 0, 0)
	require.InDelta(t, DefaultVolumeWeight, fallback.volumeWeight, 0.0001)
}

func TestGradeBuckets(t *testing.T) {
	require.Equal(t, "A", Grade(71))
	require.Equal(t, "B", Grade(70))
	require.Equal(t, "B", Grade(51))
	require.Equal(t, "C", Grade(50))
	require.Equal(t, "C", Grade(31))
	require.Equal(t, "D", Grade(30))
	require.Equal(t, "D", Grade(0))
}

func TestFilterApply(t *testing.T) {
	s := Default()
	scores := s.Score([]Input{
		{Keyword: "strong", Volume: 1000, Growth: 120, Difficulty: 20, HasDifficulty: true},
		{Keyword: "middling", Volume: 400, Growth: 30, Difficulty: 55, HasDifficulty: true},
		{Keyword: "weak", Volume: 10, Growth: -5, Difficulty: 90, HasDifficulty: true},
	})

	minScore := 40.0
	maxDifficulty := 30.0
	kept := Filter{MinScore: &minScore, MaxDifficulty: &maxDifficulty}.Apply(scores)
	require.Len(t, kept, 1)
	require.Equal(t, "strong", kept[0].Keyword)

	require.Len(t, Filter{}.Apply(scores), 3)
}
