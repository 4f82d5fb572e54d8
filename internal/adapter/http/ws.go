package adapthttp

import (
	"context"
	"net/http"
	"sync"
	"time"

	"technowear/internal/app"
	"technowear/internal/domain"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

// readUntilClosed discards client frames and cancels when the peer goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*wsConn, context.Context, context.CancelFunc, bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugw("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return nil, nil, nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	go readUntilClosed(conn, cancel)
	return &wsConn{conn: conn}, ctx, cancel, true
}

type navigateMessage struct {
	Navigate app.Route `json:"navigate"`
}

// handleWSSession pushes a navigation whenever the session change of this
// browser requires the page in ?page= to redirect.
func (s *Server) handleWSSession(w http.ResponseWriter, r *http.Request) {
	page := app.Route(r.URL.Query().Get("page"))
	switch page {
	case app.RouteLanding, app.RouteAuth, app.RouteDashboard:
	default:
		http.Error(w, "unknown page", http.StatusBadRequest)
		return
	}
	client := s.client(r)

	c, ctx, cancel, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer c.conn.Close()
	defer cancel()

	// The navigator runs under the gate's lock and must not call back into it.
	gate := app.NewSessionGate(client, page, app.NavigatorFunc(func(to app.Route) error {
		return c.writeJSON(navigateMessage{Navigate: to})
	}), s.log)
	defer gate.Close()

	if err := gate.Start(ctx); err != nil {
		s.log.Warnw("session gate start failed", "sid", client.SID(), "error", err)
		return
	}
	<-ctx.Done()
}

func (s *Server) handleWSMetrics(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	c, ctx, cancel, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer c.conn.Close()
	defer cancel()

	err := s.svc.Health.Stream(ctx, uid, s.opts.MetricsInterval, func(m domain.HealthMetricSample) error {
		return c.writeJSON(m)
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warnw("metrics stream ended", "user", uid, "error", err)
	}
}

func (s *Server) handleWSGarments(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	c, ctx, cancel, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer c.conn.Close()
	defer cancel()

	err := s.svc.Garments.Watch(ctx, uid, func(items []app.GarmentView) error {
		return c.writeJSON(map[string]any{"items": items, "count": len(items)})
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warnw("garment stream ended", "user", uid, "error", err)
	}
}
