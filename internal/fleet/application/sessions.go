package application

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	fleet "solarfleet/internal/fleet/domain"
	"solarfleet/internal/observability/metrics"
)

// captchaSuspectAfter flags logins slow enough to suggest the dialer had
// to solve a captcha upstream.
const captchaSuspectAfter = 3 * time.Second

// SessionPool keeps at most one authenticated vendor session per account
// and reuses it across harvest cycles. Logins are the most expensive and
// most rate-limited vendor operation, so a session is only replaced when
// its dial fails; keepalive failures are tolerated.
type SessionPool struct {
	dial   fleet.DialFunc
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu        sync.Mutex
	client    fleet.VendorClient
	createdAt time.Time
	lastUsed  time.Time
}

func NewSessionPool(dial fleet.DialFunc, logger *log.Logger) (*SessionPool, error) {
	if dial == nil {
		return nil, fmt.Errorf("sessions: nil dial func")
	}
	return &SessionPool{
		dial:     dial,
		logger:   logger,
		sessions: make(map[string]*session),
	}, nil
}

// Acquire returns a live session for the credential, dialing one if none
// exists yet. Concurrent callers for the same account serialize on the
// account's entry lock; callers for different accounts do not block each
// other beyond the map lookup.
func (p *SessionPool) Acquire(ctx context.Context, cred fleet.Credential) (fleet.VendorClient, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	entry, ok := p.sessions[cred.Name]
	if !ok {
		entry = &session{}
		p.sessions[cred.Name] = entry
	}
	p.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	if entry.client == nil {
		client, err := p.dialLocked(ctx, cred)
		if err != nil {
			return nil, err
		}
		entry.client = client
		entry.createdAt = now
		entry.lastUsed = now
		return entry.client, nil
	}

	// Existing session: revalidate, but never discard it here. A failed
	// keepalive often precedes a still-working data call, and dropping the
	// session would force a fresh login on the next cycle.
	if err := entry.client.KeepAlive(ctx); err != nil {
		metrics.IncKeepaliveFailure()
		if p.logger != nil {
			p.logger.Printf("sessions: keepalive failed for %s: %v", cred.Name, err)
		}
	}
	entry.lastUsed = now
	return entry.client, nil
}

func (p *SessionPool) dialLocked(ctx context.Context, cred fleet.Credential) (fleet.VendorClient, error) {
	start := time.Now()
	client, err := p.dial(ctx, cred)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveLogin(metrics.ResultError, elapsed)
		return nil, fmt.Errorf("sessions: login %s: %w", cred.Name, err)
	}
	metrics.ObserveLogin(metrics.ResultSuccess, elapsed)
	if elapsed > captchaSuspectAfter {
		metrics.IncCaptchaSuspect()
		if p.logger != nil {
			p.logger.Printf("sessions: slow login for %s (%s), captcha solving suspected", cred.Name, elapsed.Round(time.Millisecond))
		}
	}
	if p.logger != nil {
		p.logger.Printf("sessions: new session for %s", cred.Name)
	}
	return client, nil
}

// Invalidate drops the cached session for an account so the next Acquire
// dials fresh. Used when a data call reports an expired session.
func (p *SessionPool) Invalidate(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, name)
}
