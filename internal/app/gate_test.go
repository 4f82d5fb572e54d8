package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"technowear/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNav struct {
	mu  sync.Mutex
	to  []Route
	err error
}

func (n *recordingNav) Navigate(to Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.to = append(n.to, to)
	return n.err
}

func (n *recordingNav) routes() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Route(nil), n.to...)
}

func TestDecide(t *testing.T) {
	s := liveSession("u1")
	tests := []struct {
		page     Route
		session  *domain.Session
		want     Route
		redirect bool
	}{
		{RouteLanding, nil, RouteLanding, false},
		{RouteLanding, s, RouteDashboard, true},
		{RouteAuth, nil, RouteAuth, false},
		{RouteAuth, s, RouteDashboard, true},
		{RouteDashboard, nil, RouteAuth, true},
		{RouteDashboard, s, RouteDashboard, false},
	}
	for _, tt := range tests {
		got, redirect := Decide(tt.page, tt.session)
		assert.Equal(t, tt.want, got, "page %s", tt.page)
		assert.Equal(t, tt.redirect, redirect, "page %s", tt.page)
	}
}

func TestSessionGate_RedirectsSignedInUserOffAuth(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessions()
	require.NoError(t, store.Save(ctx, "sid-1", liveSession("u1")))
	client := NewAuthService(&mockAuthProvider{}, nil, store, "", nopLog()).Client("sid-1")
	nav := &recordingNav{}

	gate := NewSessionGate(client, RouteAuth, nav, nopLog())
	require.NoError(t, gate.Start(ctx))
	defer gate.Close()

	assert.Equal(t, []Route{RouteDashboard}, nav.routes())
	assert.Equal(t, RouteDashboard, gate.Page())
	require.NotNil(t, gate.User())
	assert.Equal(t, "u1", gate.User().ID)
}

func TestSessionGate_FollowsSessionChanges(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessions()
	client := NewAuthService(&mockAuthProvider{}, nil, store, "", nopLog()).Client("sid-1")
	nav := &recordingNav{}

	gate := NewSessionGate(client, RouteAuth, nav, nopLog())
	require.NoError(t, gate.Start(ctx))
	defer gate.Close()
	assert.Empty(t, nav.routes())

	require.NoError(t, store.Save(ctx, "sid-1", liveSession("u1")))
	require.NoError(t, store.Delete(ctx, "sid-1"))

	assert.Equal(t, []Route{RouteDashboard, RouteAuth}, nav.routes())
	assert.Nil(t, gate.User())
}

func TestSessionGate_DuplicateObservationsNavigateOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessions()
	client := NewAuthService(&mockAuthProvider{}, nil, store, "", nopLog()).Client("sid-1")
	nav := &recordingNav{}

	gate := NewSessionGate(client, RouteLanding, nav, nopLog())
	require.NoError(t, gate.Start(ctx))
	defer gate.Close()

	// The listener fires before and after the initial fetch would have seen it.
	s := liveSession("u1")
	require.NoError(t, store.Save(ctx, "sid-1", s))
	require.NoError(t, store.Save(ctx, "sid-1", s))
	gate.observe(s)

	assert.Equal(t, []Route{RouteDashboard}, nav.routes())
}

func TestSessionGate_RaceOrderIndependent(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		store := newFakeSessions()
		client := NewAuthService(&mockAuthProvider{}, nil, store, "", nopLog()).Client("sid-1")
		nav := &recordingNav{}
		gate := NewSessionGate(client, RouteDashboard, nav, nopLog())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, gate.Start(ctx))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, "sid-1", liveSession("u1")))
		}()
		wg.Wait()

		// Whichever arrived first, the final decision matches the final session.
		assert.Equal(t, RouteDashboard, gate.Page())
		require.NotNil(t, gate.User())
		routes := nav.routes()
		if len(routes) > 0 {
			assert.Equal(t, RouteAuth, routes[0])
		}
		gate.Close()
	}
}

func TestSessionGate_CloseUnsubscribes(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessions()
	client := NewAuthService(&mockAuthProvider{}, nil, store, "", nopLog()).Client("sid-1")
	nav := &recordingNav{}

	gate := NewSessionGate(client, RouteAuth, nav, nopLog())
	require.NoError(t, gate.Start(ctx))
	assert.Equal(t, 1, store.watcherCount("sid-1"))

	gate.Close()
	gate.Close()
	assert.Equal(t, 0, store.watcherCount("sid-1"))

	require.NoError(t, store.Save(ctx, "sid-1", liveSession("u1")))
	assert.Empty(t, nav.routes())
}

func TestSessionGate_NavigateErrorIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessions()
	require.NoError(t, store.Save(ctx, "sid-1", liveSession("u1")))
	client := NewAuthService(&mockAuthProvider{}, nil, store, "", nopLog()).Client("sid-1")
	nav := &recordingNav{err: errors.New("socket closed")}

	gate := NewSessionGate(client, RouteLanding, nav, nopLog())
	require.NoError(t, gate.Start(ctx))
	assert.Equal(t, RouteDashboard, gate.Page())
}
