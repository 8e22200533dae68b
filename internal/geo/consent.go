package geo

import (
	"context"
	"sync"

	"github.com/nhle/health-alerts/internal/model"
)

// Consent records whether the user allowed location access in this
// session. It plays the role of the browser's permission prompt result.
type Consent struct {
	mu    sync.RWMutex
	state model.LocationPermission
}

// NewConsent returns a Consent starting in the given state.
func NewConsent(initial model.LocationPermission) *Consent {
	return &Consent{state: initial}
}

// Grant records that the user allowed location access.
func (c *Consent) Grant() { c.set(model.PermissionEnabled) }

// Deny records that the user refused location access.
func (c *Consent) Deny() { c.set(model.PermissionDisabled) }

// State returns the current consent.
func (c *Consent) State() model.LocationPermission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Consent) set(p model.LocationPermission) {
	c.mu.Lock()
	c.state = p
	c.mu.Unlock()
}

// Gate only lets location requests through once consent was granted.
type Gate struct {
	consent *Consent
	next    Locator
}

// NewGate wraps next behind consent.
func NewGate(consent *Consent, next Locator) *Gate {
	return &Gate{consent: consent, next: next}
}

// Locate fails with PermissionDenied unless consent is granted.
func (g *Gate) Locate(ctx context.Context, opts Options) (Position, error) {
	if g.consent.State() != model.PermissionEnabled {
		return Position{}, &Error{Code: PermissionDenied}
	}
	return g.next.Locate(ctx, opts)
}
