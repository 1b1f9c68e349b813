package engine

import (
	"context"
	"strings"

	"github.com/payguard/upi-risk-engine/pkg/views"
	"go.uber.org/zap"
)

// Heuristic weights for the local scorer. Tuned so a clean, well-known payee
// with a declared spending pattern lands clearly in LOW.
const (
	baseProbability = 0.05

	weightLowConfidence     = 0.35
	weightUnknownDomain     = 0.20
	weightUnknownDeviation  = 0.15
	weightHighDeviation     = 0.30
	weightModerateDeviation = 0.10
	weightLargeAmount       = 0.15
	weightNoAmount          = 0.05

	highDeviationOver     = 20000.0
	moderateDeviationOver = 5000.0
	largeAmountOver       = 50000.0

	maxProbability = 0.99
)

// knownDomains are payment handles the heuristic treats as established.
var knownDomains = map[string]struct{}{
	"okaxis":     {},
	"oksbi":      {},
	"okhdfcbank": {},
	"okicici":    {},
	"paytm":      {},
	"ybl":        {},
	"apl":        {},
	"ibl":        {},
	"upi":        {},
}

// LocalScorerConfig holds dependencies for the local heuristic scorer.
type LocalScorerConfig struct {
	Logger *zap.Logger
}

// NewLocalHeuristicScorer builds the synchronous, deterministic scorer used
// when no remote prediction service is configured. Identical inputs always
// produce identical assessments.
func NewLocalHeuristicScorer(cfg LocalScorerConfig) RiskScorer {
	return &LocalScorerConfig{Logger: cfg.Logger}
}

func (s *LocalScorerConfig) Name() string { return "local_heuristic" }

// Score applies additive rule weights over the transaction and its derived
// features, then labels the clamped probability through LabelFor.
func (s *LocalScorerConfig) Score(ctx context.Context, tx views.Transaction, features views.DerivedFeatures) (views.RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return views.RiskAssessment{}, err
	}

	probability := baseProbability
	reasons := []string{"valid payee identifier format"}

	if tx.LowConfidence {
		probability += weightLowConfidence
		reasons = append(reasons, "payee substituted from opaque merchant reference")
	}

	_, domain, _ := strings.Cut(tx.PayeeID, "@")
	if _, ok := knownDomains[strings.ToLower(domain)]; ok {
		reasons = append(reasons, "known bank domain")
	} else {
		probability += weightUnknownDomain
		reasons = append(reasons, "unrecognized payment domain")
	}

	switch {
	case features.AmountDeviation == nil:
		// Unknown deviation is a distinct signal, not a zero deviation.
		probability += weightUnknownDeviation
		reasons = append(reasons, "spending deviation unknown")
	case *features.AmountDeviation > highDeviationOver:
		probability += weightHighDeviation
		reasons = append(reasons, "amount far outside typical spend for activity level")
	case *features.AmountDeviation > moderateDeviationOver:
		probability += weightModerateDeviation
		reasons = append(reasons, "amount above typical spend for activity level")
	}

	switch {
	case tx.Amount == nil:
		probability += weightNoAmount
		reasons = append(reasons, "amount not specified")
	case *tx.Amount > largeAmountOver:
		probability += weightLargeAmount
		reasons = append(reasons, "large transfer amount")
	}

	if probability > maxProbability {
		probability = maxProbability
	}

	assessment := views.RiskAssessment{
		Probability: probability,
		Label:       LabelFor(probability),
		Reasons:     reasons,
	}
	if s.Logger != nil {
		s.Logger.Debug("local_score_computed",
			zap.Float64("probability", assessment.Probability),
			zap.String("label", string(assessment.Label)),
			zap.String("payee", tx.PayeeID),
		)
	}
	return assessment, nil
}
