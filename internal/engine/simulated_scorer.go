package engine

import (
	"context"
	"math/rand"
	"sync"

	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
)

// Canned justification sets per label, used only by the simulated scorer.
var simulatedReasons = map[pkg.RiskLabel][]string{
	pkg.RiskLow:    {"valid payee identifier format", "known bank domain"},
	pkg.RiskMedium: {"new merchant", "amount above typical spend"},
	pkg.RiskHigh:   {"suspicious payee pattern", "unknown merchant"},
}

// SimulatedScorer draws the fraud probability from a seeded random source.
// It exists for demos and load tests; the seed makes every run replayable.
// Never the default scorer.
type SimulatedScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedScorer(seed int64) *SimulatedScorer {
	return &SimulatedScorer{rng: rand.New(rand.NewSource(seed))}
}

func (s *SimulatedScorer) Name() string { return "simulated" }

func (s *SimulatedScorer) Score(ctx context.Context, tx views.Transaction, features views.DerivedFeatures) (views.RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return views.RiskAssessment{}, err
	}

	s.mu.Lock()
	probability := s.rng.Float64()
	s.mu.Unlock()

	label := LabelFor(probability)
	reasons := make([]string, len(simulatedReasons[label]))
	copy(reasons, simulatedReasons[label])

	return views.RiskAssessment{
		Probability: probability,
		Label:       label,
		Reasons:     reasons,
	}, nil
}
