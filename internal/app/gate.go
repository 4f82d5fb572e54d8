package app

import (
	"context"
	"sync"

	"technowear/internal/domain"

	"go.uber.org/zap"
)

// Route is one of the three logical destinations of the web app.
type Route string

// Routes.
const (
	RouteLanding   Route = "/"
	RouteAuth      Route = "/auth"
	RouteDashboard Route = "/dashboard"
)

// Decide applies the redirect rule for a page given the observed session.
// It returns the destination and whether a redirect is needed.
func Decide(page Route, s *domain.Session) (Route, bool) {
	switch page {
	case RouteDashboard:
		if s == nil {
			return RouteAuth, true
		}
	case RouteLanding, RouteAuth:
		if s != nil {
			return RouteDashboard, true
		}
	}
	return page, false
}

// Navigator performs a client-side navigation.
type Navigator interface {
	Navigate(to Route) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route) error

// Navigate calls f(to).
func (f NavigatorFunc) Navigate(to Route) error { return f(to) }

// SessionGate keeps one page in sync with the presence of a live session.
// The change listener and the initial fetch may race; both feed observe,
// which is serialized, and a destination already reached is never re-issued.
// A listener event seen while the fetch was in flight wins over the fetch.
type SessionGate struct {
	client *SessionClient
	nav    Navigator
	log    *zap.SugaredLogger

	mu          sync.Mutex
	page        Route
	user        *domain.User
	unsubscribe func()
	closed      bool
	events      uint64
}

// NewSessionGate creates a gate for page that navigates through nav.
func NewSessionGate(client *SessionClient, page Route, nav Navigator, log *zap.SugaredLogger) *SessionGate {
	return &SessionGate{client: client, page: page, nav: nav, log: log}
}

// Start registers the session listener, then fetches the session once.
func (g *SessionGate) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.closed || g.unsubscribe != nil {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	unsub := g.client.OnSessionChange(g.observe)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		unsub()
		return nil
	}
	g.unsubscribe = unsub
	seen := g.events
	g.mu.Unlock()

	s, err := g.client.GetSession(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.events != seen {
		return nil
	}
	g.applyLocked(s)
	return nil
}

func (g *SessionGate) observe(s *domain.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events++
	g.applyLocked(s)
}

func (g *SessionGate) applyLocked(s *domain.Session) {
	if g.closed {
		return
	}
	if s != nil {
		u := s.User
		g.user = &u
	} else {
		g.user = nil
	}
	to, redirect := Decide(g.page, s)
	if !redirect {
		return
	}
	g.page = to
	if err := g.nav.Navigate(to); err != nil {
		g.log.Warnw("navigate failed", "sid", g.client.SID(), "to", to, "error", err)
	}
}

// Page returns the page the gate currently considers active.
func (g *SessionGate) Page() Route {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.page
}

// User returns the last observed identity, or nil when signed out.
func (g *SessionGate) User() *domain.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user
}

// Close deregisters the listener. It is safe to call more than once.
func (g *SessionGate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsub := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
