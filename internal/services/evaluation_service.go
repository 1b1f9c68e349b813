package services

import (
	"context"
	"time"

	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/internal/observability"
	"github.com/payguard/upi-risk-engine/internal/views"
	"github.com/payguard/upi-risk-engine/pkg"
	pkgviews "github.com/payguard/upi-risk-engine/pkg/views"
	"go.uber.org/zap"
)

// EvaluationService runs one synchronous pass of the risk pipeline for the
// HTTP surface: normalize, derive, score, gate. It shares every stage with
// the interactive session controller and never bypasses validation.
type EvaluationService interface {
	Evaluate(ctx context.Context, traceID string, req views.EvaluationRequest) (views.EvaluationResult, error)
}

// EvaluationServiceConfig holds dependencies for the evaluation service.
type EvaluationServiceConfig struct {
	Logger       *zap.Logger
	Scorer       engine.RiskScorer
	ScoreTimeout time.Duration
}

func NewEvaluationService(cfg EvaluationServiceConfig) EvaluationService {
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = 10 * time.Second
	}
	return &cfg
}

func (s *EvaluationServiceConfig) Evaluate(ctx context.Context, traceID string, req views.EvaluationRequest) (views.EvaluationResult, error) {
	raw := engine.RawInput{
		Source:    pkg.SourceManual,
		PayeeID:   req.PayeeID,
		PayeeName: req.PayeeName,
		Amount:    req.Amount,
		Context: pkgviews.TransactionContext{
			Channel:          req.Channel,
			Gateway:          req.Gateway,
			DevicePlatform:   req.DevicePlatform,
			MerchantCategory: req.MerchantCategory,
			Status:           req.Status,
			City:             req.City,
			State:            req.State,
		},
	}
	if req.OccurredAt != nil {
		raw.OccurredAt = *req.OccurredAt
	}

	tx, err := engine.Normalize(raw)
	if err != nil {
		return views.EvaluationResult{}, err
	}
	features := engine.Derive(tx, req.MonthlyFrequency)

	ctx, cancel := context.WithTimeout(ctx, s.ScoreTimeout)
	defer cancel()

	start := time.Now()
	assessment, err := s.Scorer.Score(ctx, tx, features)
	observability.ScoringLatency.WithLabelValues(s.Scorer.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ScoringFailures.WithLabelValues(s.Scorer.Name(), pkg.CodeOf(err).Code).Inc()
		return views.EvaluationResult{}, err
	}
	observability.EvaluationsCompleted.WithLabelValues(s.Scorer.Name(), string(assessment.Label)).Inc()

	decision := engine.Decide(assessment)
	s.Logger.Info("evaluation_completed",
		zap.String(pkg.TraceId, traceID),
		zap.String("payee", tx.PayeeID),
		zap.String("label", string(assessment.Label)),
		zap.Bool("allowed", decision.Allowed),
	)

	return views.EvaluationResult{
		Transaction: tx,
		Features:    features,
		Assessment:  assessment,
		Decision:    decision,
	}, nil
}
