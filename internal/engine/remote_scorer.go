package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/payguard/upi-risk-engine/internal/dtos"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	predictPath = "/predict"
	healthPath  = "/health"

	healthStatusHealthy = "healthy"

	// Responses larger than this are garbage, not predictions.
	maxResponseBytes = 1 << 16
)

// RemoteScorerConfig holds configuration and dependencies for the remote
// scorer. BaseURL, Timeout and the throttle settings come from configs.Config.
type RemoteScorerConfig struct {
	Logger  *zap.Logger
	BaseURL string
	Client  *http.Client
	Timeout time.Duration

	// Outbound throttle. A request that cannot obtain a token within
	// MaxThrottleWait fails fast instead of queueing behind the session.
	RateLimitPerSec int
	Burst           int
	MaxThrottleWait time.Duration

	// internal initialization
	limiter *rate.Limiter
}

// NewRemoteScorer builds the scorer backed by the external prediction
// endpoint. Every call is bounded by Timeout; failures surface as network,
// service, or timeout errors and are never replaced with a guessed result.
func NewRemoteScorer(cfg RemoteScorerConfig) *RemoteScorerConfig {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RateLimitPerSec > 0 {
		cfg.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.Burst)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &cfg
}

func (s *RemoteScorerConfig) Name() string { return "remote" }

// Score posts the transaction and its features to /predict and maps the
// response to a RiskAssessment. An unknown deviation is wired as 0 per the
// model contract; the explicit unknown signal stays client-side.
func (s *RemoteScorerConfig) Score(ctx context.Context, tx views.Transaction, features views.DerivedFeatures) (views.RiskAssessment, error) {
	if err := s.throttle(ctx); err != nil {
		return views.RiskAssessment{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	body := dtos.PredictRequest{
		Frequency:        features.MonthlyFrequency,
		Channel:          tx.Context.Channel,
		Gateway:          tx.Context.Gateway,
		DevicePlatform:   tx.Context.DevicePlatform,
		MerchantCategory: tx.Context.MerchantCategory,
		Status:           tx.Context.Status,
		City:             tx.Context.City,
		State:            tx.Context.State,
	}
	if tx.Amount != nil {
		body.Amount = *tx.Amount
	}
	if features.AmountDeviation != nil {
		body.AmountDeviation = *features.AmountDeviation
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return views.RiskAssessment{}, pkg.NewAppError(pkg.ErrServerCode, "failed to encode prediction request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+predictPath, bytes.NewReader(payload))
	if err != nil {
		return views.RiskAssessment{}, pkg.NewAppError(pkg.ErrServerCode, "failed to build prediction request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return views.RiskAssessment{}, s.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return views.RiskAssessment{}, pkg.NewAppError(pkg.ErrScorerServiceCode,
			fmt.Sprintf("prediction endpoint returned status %d", resp.StatusCode), nil)
	}

	var out dtos.PredictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return views.RiskAssessment{}, pkg.NewAppError(pkg.ErrScorerServiceCode, "malformed prediction response", err)
	}
	return s.toAssessment(out), nil
}

// toAssessment maps the wire response, re-labeling from the probability when
// the service's own label disagrees with the thresholding rule so that the
// consistency invariant holds for every assessment leaving this package.
func (s *RemoteScorerConfig) toAssessment(out dtos.PredictResponse) views.RiskAssessment {
	probability := out.FraudProbability
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}

	label := LabelFor(probability)
	if reported := pkg.RiskLabel(strings.ToUpper(out.RiskLevel)); reported != label && s.Logger != nil {
		s.Logger.Warn("remote_label_inconsistent",
			zap.String("reported", out.RiskLevel),
			zap.Float64("probability", probability),
			zap.String("relabelled", string(label)),
		)
	}

	reasons := []string{fmt.Sprintf("model fraud probability %.2f", probability)}
	if out.FraudPrediction == 1 {
		reasons = append(reasons, "model flagged transaction as fraudulent")
	} else {
		reasons = append(reasons, "model did not flag transaction")
	}

	return views.RiskAssessment{
		Probability: probability,
		Label:       label,
		Reasons:     reasons,
	}
}

// Healthy probes GET /health. Any transport failure, non-2xx status, or
// unexpected body means offline; the probe never panics or propagates.
func (s *RemoteScorerConfig) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var out dtos.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return false
	}
	return out.Status == healthStatusHealthy
}

// throttle blocks for at most MaxThrottleWait waiting for a limiter token.
func (s *RemoteScorerConfig) throttle(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.MaxThrottleWait)
	defer cancel()
	if err := s.limiter.Wait(waitCtx); err != nil {
		return pkg.NewAppError(pkg.ErrScorerThrottledCode, "scoring request rate limit reached", err)
	}
	return nil
}

// classifyTransportError splits client errors into the timeout/network
// taxonomy the session controller surfaces to the user.
func (s *RemoteScorerConfig) classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkg.NewAppError(pkg.ErrScorerTimeoutCode, "prediction call exceeded deadline", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return pkg.NewAppError(pkg.ErrScorerTimeoutCode, "prediction call timed out", err)
	}
	return pkg.NewAppError(pkg.ErrScorerNetworkCode, "prediction endpoint unreachable", err)
}
