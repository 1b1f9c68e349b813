package engine_test

import (
	"context"
	"testing"

	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalScorer_Deterministic(t *testing.T) {
	scorer := engine.NewLocalHeuristicScorer(engine.LocalScorerConfig{})
	tx := txWithAmount(t, 5000)
	features := engine.Derive(tx, 2)

	first, err := scorer.Score(context.Background(), tx, features)
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), tx, features)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLocalScorer_LabelConsistentWithProbability(t *testing.T) {
	scorer := engine.NewLocalHeuristicScorer(engine.LocalScorerConfig{})
	tx := txWithAmount(t, 95000)
	features := engine.Derive(tx, 1)

	assessment, err := scorer.Score(context.Background(), tx, features)

	require.NoError(t, err)
	assert.Equal(t, engine.LabelFor(assessment.Probability), assessment.Label)
	assert.NotEmpty(t, assessment.Reasons)
}

func TestLocalScorer_CleanTransactionIsLowRisk(t *testing.T) {
	scorer := engine.NewLocalHeuristicScorer(engine.LocalScorerConfig{})
	amount := 2100.0
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceManual,
		PayeeID: "alice@okaxis",
		Amount:  &amount,
	})
	require.NoError(t, err)

	assessment, err := scorer.Score(context.Background(), tx, engine.Derive(tx, 2))

	require.NoError(t, err)
	assert.Equal(t, pkg.RiskLow, assessment.Label)
	assert.Contains(t, assessment.Reasons, "known bank domain")
}

func TestLocalScorer_LowConfidenceRaisesRisk(t *testing.T) {
	scorer := engine.NewLocalHeuristicScorer(engine.LocalScorerConfig{})

	clean, err := engine.Normalize(engine.RawInput{Source: pkg.SourceScanned, Payload: "shop@okaxis"})
	require.NoError(t, err)
	opaque, err := engine.Normalize(engine.RawInput{Source: pkg.SourceScanned, Payload: "merchant123"})
	require.NoError(t, err)

	cleanScore, err := scorer.Score(context.Background(), clean, engine.Derive(clean, 5))
	require.NoError(t, err)
	opaqueScore, err := scorer.Score(context.Background(), opaque, engine.Derive(opaque, 5))
	require.NoError(t, err)

	assert.Greater(t, opaqueScore.Probability, cleanScore.Probability)
	assert.Contains(t, opaqueScore.Reasons, "payee substituted from opaque merchant reference")
}

func TestLocalScorer_UnknownDeviationIsDistinctSignal(t *testing.T) {
	scorer := engine.NewLocalHeuristicScorer(engine.LocalScorerConfig{})
	amount := 2000.0
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceManual,
		PayeeID: "alice@okaxis",
		Amount:  &amount,
	})
	require.NoError(t, err)

	// Zero deviation: amount sits exactly on the rare-band baseline.
	known, err := scorer.Score(context.Background(), tx, engine.Derive(tx, 2))
	require.NoError(t, err)
	// Unknown deviation: no declared frequency.
	unknown, err := scorer.Score(context.Background(), tx, engine.Derive(tx, 0))
	require.NoError(t, err)

	assert.Greater(t, unknown.Probability, known.Probability,
		"unknown deviation must score differently from zero deviation")
	assert.Contains(t, unknown.Reasons, "spending deviation unknown")
}

func TestSimulatedScorer_SeedReplayable(t *testing.T) {
	tx := txWithAmount(t, 500)
	features := engine.Derive(tx, 2)

	a := engine.NewSimulatedScorer(42)
	b := engine.NewSimulatedScorer(42)

	for i := 0; i < 10; i++ {
		first, err := a.Score(context.Background(), tx, features)
		require.NoError(t, err)
		second, err := b.Score(context.Background(), tx, features)
		require.NoError(t, err)

		assert.Equal(t, first, second, "draw %d", i)
		assert.Equal(t, engine.LabelFor(first.Probability), first.Label)
		assert.NotEmpty(t, first.Reasons)
	}
}
