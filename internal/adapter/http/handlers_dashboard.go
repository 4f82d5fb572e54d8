package adapthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"technowear/internal/app"
	"technowear/internal/domain"

	"github.com/go-chi/chi/v5"
)

const pairingWaitLimit = 10 * time.Second

func (s *Server) dashboard(ctx context.Context) (*app.Dashboard, error) {
	return app.NewDashboard(ctx, sessionFrom(ctx), s.svc.Garments, s.svc.Pairing, s.log)
}

func userID(r *http.Request) string {
	return sessionFrom(r.Context()).User.ID
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tab := r.URL.Query().Get("tab"); tab != "" {
		if err := d.SelectTab(app.Tab(tab)); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, d.Snapshot())
}

func (s *Server) handleMetricsLatest(w http.ResponseWriter, r *http.Request) {
	sample, err := s.svc.Health.Latest(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Trends.Get(userID(r)))
}

func (s *Server) handleGoalsList(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": goals})
}

func (s *Server) handleGoalsAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string          `json:"title"`
		TargetValue json.RawMessage `json:"targetValue"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	g, err := s.svc.Goals.Add(r.Context(), userID(r), req.Title, rawNumber(req.TargetValue))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// rawNumber accepts the target either as a JSON number or a form string.
func rawNumber(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

func (s *Server) handleGoalToggle(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Goals.Toggle(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleEco(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Eco.View(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGarmentsList(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Garments.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleGarmentDeleteRequest(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Garments.RequestDelete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleGarmentDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Garments.ConfirmDelete(r.Context(), userID(r), chi.URLParam(r, "token")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGarmentDeleteCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Garments.CancelDelete(userID(r), chi.URLParam(r, "token")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePairingStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method domain.PairingMethod `json:"method"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	d, err := s.dashboard(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	wiz := d.OpenPairing()
	if err := wiz.ChooseMethod(req.Method); err != nil {
		wiz.Close()
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wiz.State())
}

func (s *Server) wizard(w http.ResponseWriter, r *http.Request) (*app.PairingWizard, bool) {
	wiz, err := s.svc.Pairing.Get(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return wiz, true
}

// handlePairingState returns the wizard state. With ?wait=1 it blocks until a
// running pairing attempt finishes.
func (s *Server) handlePairingState(w http.ResponseWriter, r *http.Request) {
	wiz, ok := s.wizard(w, r)
	if !ok {
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), pairingWaitLimit)
		defer cancel()
		_ = wiz.Wait(ctx)
	}
	writeJSON(w, http.StatusOK, wiz.State())
}

func (s *Server) handlePairingComplete(w http.ResponseWriter, r *http.Request) {
	wiz, ok := s.wizard(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	g, err := wiz.Complete(r.Context(), req.Name, req.Type)
	if err != nil {
		if app.IsAddGarmentFailure(err) {
			s.log.Errorw("add garment failed", "user", userID(r), "error", err)
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handlePairingClose(w http.ResponseWriter, r *http.Request) {
	wiz, ok := s.wizard(w, r)
	if !ok {
		return
	}
	wiz.Close()
	w.WriteHeader(http.StatusNoContent)
}
