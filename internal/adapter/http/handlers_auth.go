// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"technowear/internal/app"
	"technowear/internal/domain"

	"github.com/go-chi/chi/v5"
)

const oauthStateCookie = "oauth_state"

type flowRequest struct {
	State app.AuthState `json:"state"`
	Mode  app.Mode      `json:"mode,omitempty"`
	Code  string        `json:"code,omitempty"`
}

func (s *Server) client(r *http.Request) *app.SessionClient {
	return s.svc.Auth.Client(sidFrom(r.Context()))
}

func (s *Server) flow(r *http.Request, st app.AuthState) *app.AuthFlow {
	return app.NewAuthFlow(s.client(r), s.svc.Auth.SiteURL(), st)
}

func (s *Server) writeResult(w http.ResponseWriter, res app.AuthResult) {
	status := statusFor(res.Err)
	if status == http.StatusInternalServerError {
		s.log.Errorw("auth action failed", "error", res.Err)
	}
	writeJSON(w, status, res)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	page := app.Route(r.URL.Query().Get("page"))
	if page == "" {
		page = app.RouteLanding
	}
	sess, err := s.client(r).GetSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, redirect := app.Decide(page, sess)
	resp := map[string]any{"route": to, "redirect": redirect, "user": nil}
	if sess != nil {
		resp["user"] = sess.User
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlowSwitch(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	s.writeResult(w, s.flow(r, req.State).SwitchTo(req.Mode))
}

func (s *Server) handleFlowSubmit(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	s.writeResult(w, s.flow(r, req.State).Submit(r.Context()))
}

func (s *Server) handleFlowVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	s.writeResult(w, s.flow(r, req.State).VerifyOTP(r.Context(), req.Code))
}

func (s *Server) handleFlowCancelOTP(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	s.writeResult(w, s.flow(r, req.State).CancelOTP())
}

func (s *Server) handlePasswordSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	sess, err := s.client(r).RegisterWithPassword(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusAccepted, map[string]any{"notice": "Check your email to confirm your account"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": sess.User, "navigate": app.RouteDashboard})
}

func oauthProvider(r *http.Request) (domain.OAuthProviderName, bool) {
	p := domain.OAuthProviderName(chi.URLParam(r, "provider"))
	return p, p == domain.ProviderGoogle || p == domain.ProviderApple
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := oauthProvider(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	mode := app.Mode(r.URL.Query().Get("mode"))
	state := generateState()
	res := s.flow(r, app.AuthState{Mode: mode}).StartOAuth(provider, state)
	if res.Err != nil {
		s.log.Warnw("oauth start failed", "provider", provider, "error", res.Err)
		s.writeResult(w, res)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/oauth",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := oauthProvider(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	fail := func(reason string, err error) {
		s.log.Warnw("oauth callback failed", "provider", provider, "reason", reason, "error", err)
		http.Redirect(w, r, string(app.RouteAuth)+"?error="+url.QueryEscape(app.OAuthFallback(provider)), http.StatusFound)
	}

	q := r.URL.Query()
	state, err := r.Cookie(oauthStateCookie)
	if err != nil || q.Get("state") == "" || q.Get("state") != state.Value {
		fail("invalid state", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, MaxAge: -1, Path: "/api/auth/oauth"})

	if e := q.Get("error"); e != "" {
		fail(e, nil)
		return
	}
	if _, err := s.client(r).CompleteOAuth(r.Context(), provider, q.Get("code")); err != nil {
		fail("complete", err)
		return
	}
	http.Redirect(w, r, string(app.RouteDashboard), http.StatusFound)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, app.SignOut(r.Context(), s.client(r)))
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
