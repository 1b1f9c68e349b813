package views

import (
	"time"

	pkgviews "github.com/payguard/upi-risk-engine/pkg/views"
)

// EvaluationRequest is the manual-entry evaluation body. Binding rejects the
// obviously broken shapes; VPA structure is enforced by the normalizer.
type EvaluationRequest struct {
	PayeeID          string     `json:"payeeId" binding:"required"`
	PayeeName        string     `json:"payeeName"`
	Amount           *float64   `json:"amount" binding:"omitempty,gte=0"`
	MonthlyFrequency int        `json:"monthlyFrequency" binding:"omitempty,gte=1"`
	OccurredAt       *time.Time `json:"occurredAt"`

	Channel          string `json:"channel"`
	Gateway          string `json:"gateway"`
	DevicePlatform   string `json:"devicePlatform"`
	MerchantCategory string `json:"merchantCategory"`
	Status           string `json:"status"`
	City             string `json:"city"`
	State            string `json:"state"`
}

// EvaluationResult echoes the full pipeline output for one evaluation.
type EvaluationResult struct {
	Transaction pkgviews.Transaction     `json:"transaction"`
	Features    pkgviews.DerivedFeatures `json:"features"`
	Assessment  pkgviews.RiskAssessment  `json:"assessment"`
	Decision    pkgviews.PaymentDecision `json:"decision"`
}

// HealthView reports engine and scorer health.
type HealthView struct {
	Status string `json:"status"`
	Scorer string `json:"scorer"`
}
