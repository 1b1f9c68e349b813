package views

import (
	"time"

	"github.com/payguard/upi-risk-engine/pkg"
)

// TransactionContext carries the categorical attributes the scoring model
// consumes. Every field is optional; Normalize fills defaults.
type TransactionContext struct {
	Channel          string `json:"channel"`
	Gateway          string `json:"gateway"`
	DevicePlatform   string `json:"devicePlatform"`
	MerchantCategory string `json:"merchantCategory"`
	Status           string `json:"status"`
	City             string `json:"city"`
	State            string `json:"state"`
	MerchantRef      string `json:"merchantRef,omitempty"` // opaque scan payload when no VPA was present
}

// Transaction is the canonical record of what is being evaluated.
// Amount is a pointer because an absent amount is an explicit "unspecified"
// state, never zero.
type Transaction struct {
	Source        pkg.InputSource    `json:"source"`
	PayeeID       string             `json:"payeeId"`
	PayeeName     string             `json:"payeeName"`
	Amount        *float64           `json:"amount,omitempty"`
	OccurredAt    time.Time          `json:"occurredAt"`
	LowConfidence bool               `json:"lowConfidence"`
	Context       TransactionContext `json:"context"`
}

// DerivedFeatures are computed from the transaction plus the user-declared
// monthly transaction count; they are never user-supplied directly.
// AmountDeviation nil means "unknown", which scorers must treat differently
// from a zero deviation.
type DerivedFeatures struct {
	MonthlyFrequency int               `json:"monthlyFrequency"`
	FrequencyBand    pkg.FrequencyBand `json:"frequencyBand"`
	AmountDeviation  *float64          `json:"amountDeviation,omitempty"`
}

// RiskAssessment is the immutable output of one scoring run. Probability and
// Label are always consistent under the engine thresholds; Reasons is never
// empty.
type RiskAssessment struct {
	Probability float64       `json:"probability"`
	Label       pkg.RiskLabel `json:"label"`
	Reasons     []string      `json:"reasons"`
}

// PaymentDecision is the policy verdict gating the payment action.
type PaymentDecision struct {
	Allowed      bool   `json:"allowed"`
	ReasonCode   string `json:"reasonCode"`
	DisplayLabel string `json:"displayLabel"`
}
