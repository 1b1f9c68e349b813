package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubScorer counts calls and optionally blocks until released, standing in
// for a slow remote scorer.
type stubScorer struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	result  views.RiskAssessment
	err     error
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Score(ctx context.Context, tx views.Transaction, features views.DerivedFeatures) (views.RiskAssessment, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-ctx.Done():
			return views.RiskAssessment{}, pkg.NewAppError(pkg.ErrScorerTimeoutCode, "scoring cancelled", ctx.Err())
		case <-release:
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

func (s *stubScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPermissions struct {
	granted bool
	err     error
}

func (p stubPermissions) CameraGranted(context.Context) (bool, error) { return p.granted, p.err }

func lowRisk() views.RiskAssessment {
	return views.RiskAssessment{Probability: 0.1, Label: pkg.RiskLow, Reasons: []string{"test"}}
}

func newSession(scorer engine.RiskScorer, perms engine.PermissionProvider) *engine.Session {
	return engine.NewSession(engine.SessionConfig{
		Logger:       zap.NewNop(),
		Scorer:       scorer,
		Permissions:  perms,
		ScoreTimeout: time.Second,
	})
}

func TestSession_ScanFlowReachesDecision(t *testing.T) {
	scorer := &stubScorer{result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartScan(context.Background(), 2))
	assert.Equal(t, pkg.StateCapturingScan, s.State())

	require.NoError(t, s.ScanPayload("shop@paytm"))

	state, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pkg.StateDecided, state)

	assessment, ok := s.Assessment()
	require.True(t, ok)
	assert.Equal(t, pkg.RiskLow, assessment.Label)

	decision, ok := s.Decision()
	require.True(t, ok)
	assert.True(t, decision.Allowed)
}

func TestSession_OpaqueScanStillReachesScoring(t *testing.T) {
	scorer := &stubScorer{result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartScan(context.Background(), 0))
	require.NoError(t, s.ScanPayload("merchant123"))

	state, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pkg.StateDecided, state)

	tx, ok := s.Transaction()
	require.True(t, ok)
	assert.Equal(t, engine.FallbackPayeeID, tx.PayeeID)
	assert.True(t, tx.LowConfidence)
	assert.Equal(t, 1, scorer.callCount())
}

func TestSession_ScanFloodDebounced(t *testing.T) {
	scorer := &stubScorer{release: make(chan struct{}), result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartScan(context.Background(), 2))
	require.NoError(t, s.ScanPayload("shop@paytm"))
	assert.Equal(t, pkg.StateScoring, s.State())

	// A continuously feeding scanner keeps emitting; every extra event while
	// scoring is pending must be dropped, not queued.
	for i := 0; i < 25; i++ {
		require.NoError(t, s.ScanPayload("shop@paytm"))
	}

	close(scorer.release)
	state, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pkg.StateDecided, state)
	assert.Equal(t, 1, scorer.callCount(), "debounce must allow exactly one scoring run")
}

func TestSession_CancelDuringScoringDiscardsLateResult(t *testing.T) {
	scorer := &stubScorer{release: make(chan struct{}), result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartScan(context.Background(), 2))
	require.NoError(t, s.ScanPayload("shop@paytm"))
	assert.Equal(t, pkg.StateScoring, s.State())

	require.NoError(t, s.Cancel())
	assert.Equal(t, pkg.StateIdle, s.State())

	// Let the in-flight run finish; its late result must never transition the
	// session out of Idle.
	close(scorer.release)
	assert.Never(t, func() bool {
		_, ok := s.Assessment()
		return ok || s.State() != pkg.StateIdle
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestSession_ScoringFailureReturnsToScanCapture(t *testing.T) {
	scorer := &stubScorer{err: pkg.NewAppError(pkg.ErrScorerTimeoutCode, "scoring service timed out", nil)}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartScan(context.Background(), 2))
	require.NoError(t, s.ScanPayload("shop@paytm"))

	state, err := s.WaitOutcome(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkg.StateCapturingScan, state, "failure returns to the originating capture state")
	assert.Equal(t, pkg.ErrScorerTimeoutCode.Code, pkg.CodeOf(err).Code)

	_, ok := s.Assessment()
	assert.False(t, ok, "no assessment may be fabricated on failure")

	// User-initiated retry from the capture state works.
	scorer.mu.Lock()
	scorer.err = nil
	scorer.result = lowRisk()
	scorer.mu.Unlock()
	require.NoError(t, s.ScanPayload("shop@paytm"))
	state, err = s.WaitOutcome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pkg.StateDecided, state)
}

func TestSession_ScoringFailureReturnsToManualCapture(t *testing.T) {
	scorer := &stubScorer{err: pkg.NewAppError(pkg.ErrScorerNetworkCode, "scoring service unreachable", nil)}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartManual())
	require.NoError(t, s.SubmitManual(engine.ManualInput{PayeeID: "alice@bank", MonthlyFrequency: 2}))

	state, err := s.WaitOutcome(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkg.StateCapturingManual, state)
}

func TestSession_ManualInvalidInputKeepsCapturing(t *testing.T) {
	scorer := &stubScorer{result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: true})

	require.NoError(t, s.StartManual())

	err := s.SubmitManual(engine.ManualInput{PayeeID: "no-at-sign"})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrValidationCode.Code, pkg.CodeOf(err).Code)
	assert.Equal(t, pkg.StateCapturingManual, s.State())
	assert.Equal(t, 0, scorer.callCount(), "malformed input must never reach the scorer")

	// Corrected input proceeds.
	require.NoError(t, s.SubmitManual(engine.ManualInput{PayeeID: "alice@bank", MonthlyFrequency: 2}))
	state, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pkg.StateDecided, state)
}

func TestSession_ManualScenarioDerivesExpectedFeatures(t *testing.T) {
	scorer := &stubScorer{result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: true})
	amount := 5000.0

	require.NoError(t, s.StartManual())
	require.NoError(t, s.SubmitManual(engine.ManualInput{
		PayeeID:          "alice@bank",
		Amount:           &amount,
		MonthlyFrequency: 2,
	}))
	_, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)

	features, ok := s.Features()
	require.True(t, ok)
	assert.Equal(t, pkg.BandRare, features.FrequencyBand)
	require.NotNil(t, features.AmountDeviation)
	assert.Equal(t, 3000.0, *features.AmountDeviation)
}

func TestSession_PermissionDenied(t *testing.T) {
	scorer := &stubScorer{result: lowRisk()}
	s := newSession(scorer, stubPermissions{granted: false})

	require.NoError(t, s.StartScan(context.Background(), 0))
	assert.Equal(t, pkg.StatePermissionDenied, s.State())
	assert.Equal(t, pkg.ErrPermissionCode.Code, pkg.CodeOf(s.Err()).Code)

	// Scan path is dead, manual path must remain available after cancel.
	assert.ErrorIs(t, s.ScanPayload("shop@paytm"), engine.ErrNotCapturing)
	require.NoError(t, s.Cancel())
	assert.Equal(t, pkg.StateIdle, s.State())
	require.NoError(t, s.StartManual())
}

func TestSession_StartWhileBusy(t *testing.T) {
	s := newSession(&stubScorer{result: lowRisk()}, stubPermissions{granted: true})

	require.NoError(t, s.StartManual())
	assert.ErrorIs(t, s.StartManual(), engine.ErrSessionBusy)
	assert.ErrorIs(t, s.StartScan(context.Background(), 0), engine.ErrSessionBusy)
}

func TestSession_ResetDiscardsSessionTriple(t *testing.T) {
	s := newSession(&stubScorer{result: lowRisk()}, stubPermissions{granted: true})

	require.NoError(t, s.StartManual())
	require.NoError(t, s.SubmitManual(engine.ManualInput{PayeeID: "alice@bank"}))
	state, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)
	require.Equal(t, pkg.StateDecided, state)

	assert.ErrorIs(t, s.Cancel(), engine.ErrAlreadyDecided)
	require.NoError(t, s.Reset())
	assert.Equal(t, pkg.StateIdle, s.State())

	_, ok := s.Transaction()
	assert.False(t, ok)
	_, ok = s.Assessment()
	assert.False(t, ok)
	_, ok = s.Decision()
	assert.False(t, ok)

	assert.ErrorIs(t, s.Reset(), engine.ErrNotDecided)
}

func TestSession_ReportFraudOnlyWhenDecided(t *testing.T) {
	s := newSession(&stubScorer{result: lowRisk()}, stubPermissions{granted: true})

	assert.ErrorIs(t, s.ReportFraud(), engine.ErrNotDecided)

	require.NoError(t, s.StartManual())
	require.NoError(t, s.SubmitManual(engine.ManualInput{PayeeID: "alice@bank"}))
	_, err := s.WaitOutcome(context.Background())
	require.NoError(t, err)

	assert.NoError(t, s.ReportFraud())
}

func TestSession_ScanWithoutCaptureRejected(t *testing.T) {
	s := newSession(&stubScorer{result: lowRisk()}, stubPermissions{granted: true})
	assert.ErrorIs(t, s.ScanPayload("shop@paytm"), engine.ErrNotCapturing)
}
