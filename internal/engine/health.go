package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// HealthProber answers whether the scoring backend is reachable right now.
type HealthProber interface {
	Healthy(ctx context.Context) bool
}

// alwaysHealthy backs local scorers, which have no backend to lose.
type alwaysHealthy struct{}

func (alwaysHealthy) Healthy(context.Context) bool { return true }

// AlwaysHealthy returns a prober for scorers with no remote dependency.
func AlwaysHealthy() HealthProber { return alwaysHealthy{} }

// HealthMonitorConfig holds configuration and dependencies for the background
// scorer health monitor.
type HealthMonitorConfig struct {
	Context  context.Context
	Logger   *zap.Logger
	Prober   HealthProber
	Interval time.Duration
}

// HealthMonitor polls the prober at the configured interval while healthy and
// backs off exponentially while offline, so a dead endpoint is not hammered.
type HealthMonitor struct {
	cfg     HealthMonitorConfig
	healthy atomic.Bool
	stop    chan struct{}
}

func NewHealthMonitor(cfg HealthMonitorConfig) *HealthMonitor {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &HealthMonitor{
		cfg:  cfg,
		stop: make(chan struct{}),
	}
}

// Start launches the probe loop and returns a cleanup function.
func (m *HealthMonitor) Start() func() {
	m.healthy.Store(m.cfg.Prober.Healthy(m.cfg.Context))

	go func() {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = m.cfg.Interval
		bo.MaxInterval = 10 * m.cfg.Interval
		bo.MaxElapsedTime = 0 // keep probing forever

		for {
			delay := m.cfg.Interval
			if !m.healthy.Load() {
				delay = bo.NextBackOff()
			}
			select {
			case <-m.cfg.Context.Done():
				return
			case <-m.stop:
				return
			case <-time.After(delay):
			}

			up := m.cfg.Prober.Healthy(m.cfg.Context)
			was := m.healthy.Swap(up)
			if up && !was {
				bo.Reset()
				m.cfg.Logger.Info("scorer_back_online")
			}
			if !up && was {
				m.cfg.Logger.Warn("scorer_offline")
			}
		}
	}()

	return func() { close(m.stop) }
}

// Healthy reports the last observed state of the scoring backend.
func (m *HealthMonitor) Healthy() bool {
	return m.healthy.Load()
}
