package engine

import (
	"context"

	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
)

// Probability thresholds mapping a continuous fraud probability to a discrete
// risk label. The boundaries 0.4 and 0.7 fall into MEDIUM.
const (
	ThresholdLowBelow = 0.4
	ThresholdHighOver = 0.7
)

// RiskScorer is the pluggable scoring capability. Implementations must return
// a fully populated assessment whose probability and label agree under
// LabelFor, and must propagate failures instead of fabricating a result.
//
// Preconditions: tx was produced by Normalize; features.AmountDeviation may
// be nil (unknown) and must not be coerced to zero.
type RiskScorer interface {
	Name() string
	Score(ctx context.Context, tx views.Transaction, features views.DerivedFeatures) (views.RiskAssessment, error)
}

// LabelFor derives the risk label from a fraud probability. It is the single
// thresholding authority; every scorer goes through it.
func LabelFor(probability float64) pkg.RiskLabel {
	switch {
	case probability < ThresholdLowBelow:
		return pkg.RiskLow
	case probability > ThresholdHighOver:
		return pkg.RiskHigh
	default:
		return pkg.RiskMedium
	}
}
