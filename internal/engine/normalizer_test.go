package engine_test

import (
	"testing"
	"time"

	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Manual_ValidIdentifier(t *testing.T) {
	// Arrange
	amount := 250.0
	occurred := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	// Act
	tx, err := engine.Normalize(engine.RawInput{
		Source:     pkg.SourceManual,
		PayeeID:    "alice@bank",
		Amount:     &amount,
		OccurredAt: occurred,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "alice@bank", tx.PayeeID)
	assert.Equal(t, pkg.SourceManual, tx.Source)
	assert.False(t, tx.LowConfidence)
	assert.Equal(t, occurred, tx.OccurredAt)
	require.NotNil(t, tx.Amount)
	assert.Equal(t, 250.0, *tx.Amount)
	assert.Equal(t, engine.UnresolvedPayeeName, tx.PayeeName)
}

func TestNormalize_Manual_RejectsMalformedIdentifiers(t *testing.T) {
	cases := []struct {
		name    string
		payeeID string
	}{
		{"no at sign", "merchant123"},
		{"empty", ""},
		{"missing domain", "alice@"},
		{"missing local part", "@bank"},
		{"two at signs", "alice@@bank"},
		{"only at sign", "@"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Normalize(engine.RawInput{
				Source:  pkg.SourceManual,
				PayeeID: tc.payeeID,
			})
			require.Error(t, err)
			assert.Equal(t, pkg.ErrValidationCode.Code, pkg.CodeOf(err).Code)
		})
	}
}

func TestNormalize_Scan_VPAPayloadUsedDirectly(t *testing.T) {
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceScanned,
		Payload: "shop@paytm",
	})

	require.NoError(t, err)
	assert.Equal(t, "shop@paytm", tx.PayeeID)
	assert.False(t, tx.LowConfidence)
	assert.Empty(t, tx.Context.MerchantRef)
}

func TestNormalize_Scan_OpaquePayloadFallsBack(t *testing.T) {
	// An opaque merchant reference must still produce a scorable transaction,
	// flagged low-confidence instead of rejected.
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceScanned,
		Payload: "merchant123",
	})

	require.NoError(t, err)
	assert.Equal(t, engine.FallbackPayeeID, tx.PayeeID)
	assert.True(t, tx.LowConfidence)
	assert.Equal(t, "merchant123", tx.Context.MerchantRef)
}

func TestNormalize_NegativeAmountRejected(t *testing.T) {
	amount := -1.0
	_, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceManual,
		PayeeID: "alice@bank",
		Amount:  &amount,
	})

	require.Error(t, err)
	assert.Equal(t, pkg.ErrValidationCode.Code, pkg.CodeOf(err).Code)
}

func TestNormalize_AbsentAmountStaysUnspecified(t *testing.T) {
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceManual,
		PayeeID: "alice@bank",
	})

	require.NoError(t, err)
	assert.Nil(t, tx.Amount, "absent amount must stay unspecified, not default to zero")
}

func TestNormalize_ContextDefaultsApplied(t *testing.T) {
	tx, err := engine.Normalize(engine.RawInput{
		Source:  pkg.SourceManual,
		PayeeID: "alice@bank",
	})

	require.NoError(t, err)
	assert.Equal(t, "upi", tx.Context.Channel)
	assert.Equal(t, "unknown", tx.Context.Gateway)
	assert.Equal(t, "unknown", tx.Context.City)
	assert.False(t, tx.OccurredAt.IsZero(), "occurredAt defaults to evaluation time")
}

func TestNormalize_UnsupportedSource(t *testing.T) {
	_, err := engine.Normalize(engine.RawInput{Source: "carrier_pigeon"})
	require.Error(t, err)
}
