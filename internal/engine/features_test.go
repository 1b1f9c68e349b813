package engine_test

import (
	"testing"

	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txWithAmount(t *testing.T, amount float64) views.Transaction {
	t.Helper()
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceManual,
		PayeeID: "alice@bank",
		Amount:  &amount,
	})
	require.NoError(t, err)
	return tx
}

func TestBandFor_Boundaries(t *testing.T) {
	cases := []struct {
		frequency int
		band      pkg.FrequencyBand
	}{
		{0, pkg.BandUnknown},
		{-2, pkg.BandUnknown},
		{1, pkg.BandRare},
		{3, pkg.BandRare},
		{4, pkg.BandRegular},
		{10, pkg.BandRegular},
		{11, pkg.BandActive},
		{500, pkg.BandActive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.band, engine.BandFor(tc.frequency), "frequency %d", tc.frequency)
	}
}

func TestDerive_DeviationAgainstBandBaseline(t *testing.T) {
	cases := []struct {
		name      string
		amount    float64
		frequency int
		deviation float64
	}{
		{"rare below baseline", 5000, 2, 3000},
		{"rare above baseline", 2000, 3, 0},
		{"regular", 10000, 7, 5000},
		{"active", 100000, 25, 75000},
		{"active below baseline", 100, 12, 24900},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			features := engine.Derive(txWithAmount(t, tc.amount), tc.frequency)

			require.NotNil(t, features.AmountDeviation)
			assert.Equal(t, tc.deviation, *features.AmountDeviation)
			assert.GreaterOrEqual(t, *features.AmountDeviation, 0.0)
		})
	}
}

func TestDerive_UnknownFrequencyLeavesDeviationUnset(t *testing.T) {
	features := engine.Derive(txWithAmount(t, 5000), 0)

	assert.Equal(t, pkg.BandUnknown, features.FrequencyBand)
	assert.Nil(t, features.AmountDeviation, "unknown frequency must not be coerced to a zero deviation")
}

func TestDerive_UnspecifiedAmountLeavesDeviationUnset(t *testing.T) {
	tx, err := engine.Normalize(engine.RawInput{Source: pkg.SourceManual, PayeeID: "alice@bank"})
	require.NoError(t, err)

	features := engine.Derive(tx, 5)

	assert.Equal(t, pkg.BandRegular, features.FrequencyBand)
	assert.Nil(t, features.AmountDeviation)
}

func TestDerive_Idempotent(t *testing.T) {
	tx := txWithAmount(t, 7250)

	first := engine.Derive(tx, 6)
	second := engine.Derive(tx, 6)

	require.NotNil(t, first.AmountDeviation)
	require.NotNil(t, second.AmountDeviation)
	assert.Equal(t, *first.AmountDeviation, *second.AmountDeviation)
	assert.Equal(t, first.FrequencyBand, second.FrequencyBand)
	assert.Equal(t, first.MonthlyFrequency, second.MonthlyFrequency)
}
