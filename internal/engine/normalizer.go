// Package engine implements the transaction risk evaluation pipeline:
// input normalization, feature derivation, pluggable risk scoring, the policy
// gate, and the session state machine that drives them.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
)

const (
	// FallbackPayeeID substitutes for scan payloads that carry no VPA. The
	// resulting transaction is flagged low-confidence and the raw payload is
	// kept as the merchant reference.
	FallbackPayeeID = "merchant@okaxis"

	// UnresolvedPayeeName is the display name used until a directory lookup
	// resolves the payee.
	UnresolvedPayeeName = "Unverified merchant"

	defaultContextValue = "unknown"
	defaultChannel      = "upi"
)

// RawInput is the untyped boundary record handed to Normalize. Scan input
// populates Payload; manual input populates PayeeID and friends. Nothing in
// here is trusted.
type RawInput struct {
	Source     pkg.InputSource
	Payload    string // scanned QR payload, opaque
	PayeeID    string // manual entry
	PayeeName  string
	Amount     *float64
	OccurredAt time.Time // zero means "now"
	Context    views.TransactionContext
}

// Normalize turns raw scan or manual input into a canonical Transaction.
// It is pure apart from the evaluation-time default for OccurredAt.
//
// Scan payloads containing a VPA are taken as the payee identifier; anything
// else becomes the merchant reference behind FallbackPayeeID with the
// low-confidence flag set. Manual input must carry a structurally valid VPA
// or the call fails with a validation error and must not reach scoring.
func Normalize(raw RawInput) (views.Transaction, error) {
	tx := views.Transaction{
		Source:     raw.Source,
		PayeeName:  raw.PayeeName,
		OccurredAt: raw.OccurredAt,
		Context:    raw.Context,
	}
	if tx.PayeeName == "" {
		tx.PayeeName = UnresolvedPayeeName
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now().UTC()
	}
	applyContextDefaults(&tx.Context)

	switch raw.Source {
	case pkg.SourceScanned:
		if err := validateVPA(raw.Payload); err != nil {
			tx.PayeeID = FallbackPayeeID
			tx.LowConfidence = true
			tx.Context.MerchantRef = raw.Payload
		} else {
			tx.PayeeID = raw.Payload
		}
	case pkg.SourceManual:
		if err := validateVPA(raw.PayeeID); err != nil {
			return views.Transaction{}, err
		}
		tx.PayeeID = raw.PayeeID
	default:
		return views.Transaction{}, pkg.NewAppError(pkg.ErrValidationCode,
			fmt.Sprintf("unsupported input source %q", raw.Source), nil)
	}

	if raw.Amount != nil {
		if *raw.Amount < 0 {
			return views.Transaction{}, pkg.NewAppError(pkg.ErrValidationCode, "amount must not be negative", nil)
		}
		amount := *raw.Amount
		tx.Amount = &amount
	}
	return tx, nil
}

// validateVPA enforces the payee identifier structure: exactly one '@' with
// non-empty local part and domain.
func validateVPA(id string) error {
	if strings.Count(id, "@") != 1 {
		return pkg.NewAppError(pkg.ErrValidationCode,
			"payee identifier must contain exactly one '@'", nil)
	}
	local, domain, _ := strings.Cut(id, "@")
	if local == "" || domain == "" {
		return pkg.NewAppError(pkg.ErrValidationCode,
			"payee identifier must have a name and a domain around '@'", nil)
	}
	return nil
}

func applyContextDefaults(c *views.TransactionContext) {
	if c.Channel == "" {
		c.Channel = defaultChannel
	}
	if c.Gateway == "" {
		c.Gateway = defaultContextValue
	}
	if c.DevicePlatform == "" {
		c.DevicePlatform = defaultContextValue
	}
	if c.MerchantCategory == "" {
		c.MerchantCategory = defaultContextValue
	}
	if c.Status == "" {
		c.Status = defaultContextValue
	}
	if c.City == "" {
		c.City = defaultContextValue
	}
	if c.State == "" {
		c.State = defaultContextValue
	}
}
