// Package session keeps one upload console per operator.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"helix/internal/console"
)

// Factory builds a fresh console for an operator.
type Factory func(operatorID string) *console.Controller

// Manager hands out per-operator consoles and evicts idle ones.
type Manager struct {
	mu       sync.Mutex
	consoles map[string]*console.Controller
	factory  Factory
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a manager.
func NewManager(factory Factory, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		consoles: make(map[string]*console.Controller),
		factory:  factory,
		logger:   logger.Named("session"),
		now:      time.Now,
	}
}

// Get returns the operator's console, creating it on first use.
func (m *Manager) Get(operatorID string) *console.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.consoles[operatorID]; ok {
		return c
	}
	c := m.factory(operatorID)
	m.consoles[operatorID] = c
	m.logger.Debug("console created", zap.String("operator", operatorID))
	return c
}

// Len is the number of live consoles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.consoles)
}

// CleanupIdle drops consoles with no running batch that have been idle for
// longer than maxIdle, clearing their queues. It returns how many it removed.
func (m *Manager) CleanupIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*console.Controller
	for id, c := range m.consoles {
		if c.Busy() || c.LastActive().After(cutoff) {
			continue
		}
		stale = append(stale, c)
		delete(m.consoles, id)
	}
	m.mu.Unlock()

	for _, c := range stale {
		if err := c.Clear(ctx); err != nil {
			m.logger.Warn("clearing idle console", zap.String("operator", c.Operator()), zap.Error(err))
		}
	}
	if len(stale) > 0 {
		m.logger.Info("idle consoles evicted", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Shutdown cancels every running batch and waits for each console to go
// idle or for ctx to expire, whichever comes first.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*console.Controller, 0, len(m.consoles))
	for _, c := range m.consoles {
		all = append(all, c)
	}
	m.mu.Unlock()

	for _, c := range all {
		if c.Cancel() {
			m.logger.Info("batch cancelled for shutdown", zap.String("operator", c.Operator()))
		}
	}
	var firstErr error
	for _, c := range all {
		if err := c.Wait(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run sweeps idle consoles every interval until ctx is done. A non-positive
// interval or maxIdle disables the sweep.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		m.logger.Warn("idle sweep disabled", zap.Duration("interval", interval), zap.Duration("max_idle", maxIdle))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupIdle(ctx, maxIdle)
		}
	}
}
