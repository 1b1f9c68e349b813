package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payguard/upi-risk-engine/internal/observability"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/views"
	"go.uber.org/zap"
)

// Session state machine misuse errors.
var (
	ErrSessionBusy    = errors.New("session is not idle")
	ErrNotCapturing   = errors.New("session is not capturing input")
	ErrNotDecided     = errors.New("session has no decision yet")
	ErrAlreadyDecided = errors.New("session is decided; reset instead of cancel")
)

// PermissionProvider is the camera permission boundary. A query failure is
// treated as denial, never as a crash.
type PermissionProvider interface {
	CameraGranted(ctx context.Context) (bool, error)
}

// ManualInput is the raw field set supplied by the manual entry form. Types
// from this boundary are never trusted; SubmitManual normalizes and validates.
type ManualInput struct {
	PayeeID          string
	PayeeName        string
	Amount           *float64
	MonthlyFrequency int
	Context          views.TransactionContext
}

// SessionConfig holds configuration and dependencies for one interactive
// evaluation session.
type SessionConfig struct {
	Context      context.Context
	Logger       *zap.Logger
	Scorer       RiskScorer
	Permissions  PermissionProvider
	ScoreTimeout time.Duration
}

// Session coordinates one user interaction: capture (scan or manual),
// in-flight scoring, and result presentation. It owns the only mutable state
// in the pipeline and serializes every transition. Scan events arriving while
// a scoring run is in flight are dropped, and a scoring result is applied
// only if its request id still matches the live session, so cancellation can
// never be overtaken by a late response.
type Session struct {
	cfg SessionConfig
	id  uuid.UUID

	mu          sync.Mutex
	state       pkg.SessionState
	origin      pkg.SessionState // capture state to return to on scoring failure
	frequency   int              // user-declared monthly transaction count, 0 = undeclared
	scoreReqID  uuid.UUID
	cancelScore context.CancelFunc
	scoringDone chan struct{}

	tx         *views.Transaction
	features   *views.DerivedFeatures
	assessment *views.RiskAssessment
	decision   *views.PaymentDecision
	lastErr    error
}

// NewSession builds an idle session. ScoreTimeout bounds every scoring run;
// no failure mode may leave the session in Scoring indefinitely.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = 10 * time.Second
	}
	return &Session{
		cfg:   cfg,
		id:    uuid.New(),
		state: pkg.StateIdle,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// StartScan moves Idle to CapturingScan after the camera permission check, or
// to PermissionDenied when the permission is denied or the query fails.
// monthlyFrequency is the user-declared activity level, 0 when undeclared.
func (s *Session) StartScan(ctx context.Context, monthlyFrequency int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pkg.StateIdle {
		return ErrSessionBusy
	}

	granted, err := s.cfg.Permissions.CameraGranted(ctx)
	if err != nil || !granted {
		s.state = pkg.StatePermissionDenied
		s.lastErr = pkg.NewAppError(pkg.ErrPermissionCode, "camera permission denied", err)
		s.cfg.Logger.Warn("camera_permission_denied",
			zap.String(pkg.SessionId, s.id.String()),
			zap.Error(err),
		)
		return nil
	}

	s.state = pkg.StateCapturingScan
	s.origin = pkg.StateCapturingScan
	s.frequency = monthlyFrequency
	s.lastErr = nil
	return nil
}

// StartManual moves Idle to CapturingManual.
func (s *Session) StartManual() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pkg.StateIdle {
		return ErrSessionBusy
	}
	s.state = pkg.StateCapturingManual
	s.origin = pkg.StateCapturingManual
	s.lastErr = nil
	return nil
}

// ScanPayload feeds one detected code into the session. The scan source has
// no rate limit: every event after the first one, while scoring is still in
// flight, is dropped rather than queued.
func (s *Session) ScanPayload(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case pkg.StateScoring:
		observability.ScanEventsDebounced.Inc()
		s.cfg.Logger.Debug("scan_event_debounced", zap.String(pkg.SessionId, s.id.String()))
		return nil
	case pkg.StateCapturingScan:
	default:
		return ErrNotCapturing
	}

	tx, err := Normalize(RawInput{
		Source:  pkg.SourceScanned,
		Payload: payload,
	})
	if err != nil {
		// Scan normalization is lenient (fallback identifier); an error here
		// is a logic bug, surface it without leaving the capture state.
		s.lastErr = err
		return err
	}
	s.beginScoring(tx)
	return nil
}

// SubmitManual validates the entered fields and starts scoring. Invalid input
// keeps the session in CapturingManual with the validation error surfaced.
func (s *Session) SubmitManual(in ManualInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pkg.StateCapturingManual {
		return ErrNotCapturing
	}

	tx, err := Normalize(RawInput{
		Source:    pkg.SourceManual,
		PayeeID:   in.PayeeID,
		PayeeName: in.PayeeName,
		Amount:    in.Amount,
		Context:   in.Context,
	})
	if err != nil {
		s.lastErr = err
		return err
	}
	if in.MonthlyFrequency > 0 {
		s.frequency = in.MonthlyFrequency
	}
	s.beginScoring(tx)
	return nil
}

// beginScoring derives features, enters Scoring, and launches the scorer in
// the background tagged with a fresh request id. Caller must hold mu.
func (s *Session) beginScoring(tx views.Transaction) {
	features := Derive(tx, s.frequency)
	s.tx = &tx
	s.features = &features
	s.assessment = nil
	s.decision = nil
	s.lastErr = nil
	s.state = pkg.StateScoring

	reqID := uuid.New()
	s.scoreReqID = reqID
	done := make(chan struct{})
	s.scoringDone = done

	ctx, cancel := context.WithTimeout(s.cfg.Context, s.cfg.ScoreTimeout)
	s.cancelScore = cancel

	observability.ScoringInflight.Inc()
	go s.runScore(ctx, cancel, reqID, tx, features, done)
}

func (s *Session) runScore(ctx context.Context, cancel context.CancelFunc, reqID uuid.UUID, tx views.Transaction, features views.DerivedFeatures, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer observability.ScoringInflight.Dec()

	start := time.Now()
	assessment, err := s.cfg.Scorer.Score(ctx, tx, features)
	observability.ScoringLatency.WithLabelValues(s.cfg.Scorer.Name()).Observe(time.Since(start).Seconds())
	s.applyScoreResult(reqID, assessment, err)
}

// applyScoreResult transitions Scoring to Decided or back to the originating
// capture state. A result whose request id no longer matches the live session
// (cancelled or superseded) is discarded without touching state.
func (s *Session) applyScoreResult(reqID uuid.UUID, assessment views.RiskAssessment, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != pkg.StateScoring || reqID != s.scoreReqID {
		observability.LateResultsDiscarded.Inc()
		s.cfg.Logger.Debug("late_score_result_discarded",
			zap.String(pkg.SessionId, s.id.String()),
			zap.String(pkg.RequestId, reqID.String()),
		)
		return
	}
	s.scoreReqID = uuid.Nil
	s.cancelScore = nil

	if err != nil {
		observability.ScoringFailures.WithLabelValues(s.cfg.Scorer.Name(), pkg.CodeOf(err).Code).Inc()
		s.lastErr = err
		s.state = s.origin
		s.cfg.Logger.Warn("scoring_failed",
			zap.String(pkg.SessionId, s.id.String()),
			zap.String("returned_to", string(s.origin)),
			zap.Error(err),
		)
		return
	}

	s.assessment = &assessment
	decision := Decide(assessment)
	s.decision = &decision
	s.state = pkg.StateDecided
	observability.EvaluationsCompleted.WithLabelValues(s.cfg.Scorer.Name(), string(assessment.Label)).Inc()
	s.cfg.Logger.Info("evaluation_decided",
		zap.String(pkg.SessionId, s.id.String()),
		zap.String("label", string(assessment.Label)),
		zap.Bool("allowed", decision.Allowed),
	)
}

// Cancel returns the session to Idle from any capture state, from
// PermissionDenied, or from Scoring. Cancelling an in-flight scoring run
// invalidates its request id, so the response is discarded on arrival.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case pkg.StateIdle:
		return nil
	case pkg.StateDecided:
		return ErrAlreadyDecided
	case pkg.StateScoring:
		s.scoreReqID = uuid.Nil
		if s.cancelScore != nil {
			s.cancelScore()
			s.cancelScore = nil
		}
	}
	s.discardLocked()
	s.state = pkg.StateIdle
	return nil
}

// Reset discards the session triple after a decision and returns to Idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pkg.StateDecided {
		return ErrNotDecided
	}
	s.discardLocked()
	s.state = pkg.StateIdle
	return nil
}

// ReportFraud records a user fraud report against the decided transaction.
// Nothing is persisted; the report is logged and counted.
func (s *Session) ReportFraud() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pkg.StateDecided {
		return ErrNotDecided
	}
	observability.FraudReports.Inc()
	s.cfg.Logger.Info("fraud_reported",
		zap.String(pkg.SessionId, s.id.String()),
		zap.String("payee", s.tx.PayeeID),
		zap.String("label", string(s.assessment.Label)),
	)
	return nil
}

// WaitOutcome blocks until the current scoring run settles (Decided or back
// to capture) or ctx expires, and returns the resulting state.
func (s *Session) WaitOutcome(ctx context.Context) (pkg.SessionState, error) {
	s.mu.Lock()
	state := s.state
	done := s.scoringDone
	s.mu.Unlock()

	if state != pkg.StateScoring || done == nil {
		return state, s.Err()
	}
	select {
	case <-ctx.Done():
		return s.State(), ctx.Err()
	case <-done:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

func (s *Session) discardLocked() {
	s.tx = nil
	s.features = nil
	s.assessment = nil
	s.decision = nil
	s.lastErr = nil
	s.frequency = 0
	s.scoringDone = nil
}

func (s *Session) State() pkg.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last surfaced failure (validation, permission, or scoring).
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Transaction returns a copy of the session's canonical transaction.
func (s *Session) Transaction() (views.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return views.Transaction{}, false
	}
	return *s.tx, true
}

// Features returns a copy of the derived features for the active evaluation.
func (s *Session) Features() (views.DerivedFeatures, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.features == nil {
		return views.DerivedFeatures{}, false
	}
	return *s.features, true
}

// Assessment returns a copy of the risk assessment once decided.
func (s *Session) Assessment() (views.RiskAssessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assessment == nil {
		return views.RiskAssessment{}, false
	}
	return *s.assessment, true
}

// Decision returns a copy of the payment gate verdict once decided.
func (s *Session) Decision() (views.PaymentDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision == nil {
		return views.PaymentDecision{}, false
	}
	return *s.decision, true
}
