// Package dashboard owns the refresh pipeline and the single mutable object
// of the system: the current DashboardState.
package dashboard

import (
	"sync"
	"time"

	"WeatherDeck/internal/model"
)

// StateCell is the single-owner holder of the latest DashboardState. Writes
// are whole-pointer swaps performed only by the refresh loop; readers take
// an immutable snapshot and can never observe a partial update. A failed
// refresh leaves the state untouched and only records the error, so stale
// data keeps displaying alongside an error indicator.
type StateCell struct {
	mu        sync.RWMutex
	state     *model.DashboardState
	lastErr   error
	lastErrAt time.Time
}

// NewStateCell returns an empty cell: no state, no recorded error.
func NewStateCell() *StateCell {
	return &StateCell{}
}

// Replace installs a freshly normalized state and clears any recorded error.
func (c *StateCell) Replace(s *model.DashboardState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.lastErr = nil
	c.lastErrAt = time.Time{}
}

// RecordFailure notes a failed refresh without touching the current state.
func (c *StateCell) RecordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.lastErrAt = time.Now()
}

// Snapshot returns the current state, or false if no refresh has succeeded
// yet. The returned state must be treated as read-only.
func (c *StateCell) Snapshot() (*model.DashboardState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.state != nil
}

// LastError returns the most recent refresh failure, if the latest refresh
// attempt failed. A successful refresh clears it.
func (c *StateCell) LastError() (error, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr, c.lastErrAt
}
