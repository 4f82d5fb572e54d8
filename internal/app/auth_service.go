package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"technowear/internal/domain"
	"technowear/internal/validate"

	"go.uber.org/zap"
)

// AuthService binds the hosted auth provider and the session store, and hands
// out one SessionClient per browser session id.
type AuthService struct {
	auth     domain.AuthProvider
	oauth    domain.OAuthProvider
	sessions domain.SessionStore
	siteURL  string
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewAuthService creates a new authentication service. oauth may be nil when
// no external identity provider is configured.
func NewAuthService(auth domain.AuthProvider, oauth domain.OAuthProvider, sessions domain.SessionStore, siteURL string, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		auth:     auth,
		oauth:    oauth,
		sessions: sessions,
		siteURL:  strings.TrimRight(siteURL, "/"),
		log:      log,
		now:      time.Now,
	}
}

// SiteURL returns the public origin used for email and OAuth return links.
func (s *AuthService) SiteURL() string { return s.siteURL }

// Client returns the session context for the browser identified by sid.
func (s *AuthService) Client(sid string) *SessionClient {
	return &SessionClient{svc: s, sid: sid}
}

// SessionClient is the explicit session context for one browser. It replaces
// an ambient SDK singleton: every component that needs the session receives it.
type SessionClient struct {
	svc *AuthService
	sid string
}

// SID returns the browser session id the client is bound to.
func (c *SessionClient) SID() string { return c.sid }

// GetSession returns the live session, or nil when signed out or expired.
func (c *SessionClient) GetSession(ctx context.Context) (*domain.Session, error) {
	s, err := c.svc.sessions.Load(ctx, c.sid)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if s.Expired(c.svc.now()) {
		_ = c.svc.sessions.Delete(ctx, c.sid)
		return nil, nil
	}
	return s, nil
}

// OnSessionChange registers fn for every session change of this browser.
func (c *SessionClient) OnSessionChange(fn func(*domain.Session)) (unsubscribe func()) {
	return c.svc.sessions.Watch(c.sid, fn)
}

// SignInWithPassword authenticates with email and password.
func (c *SessionClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	s, err := c.svc.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s, c.store(ctx, s)
}

// SignUpWithPassword registers a password account. The returned session is nil
// when the backend requires email confirmation first.
func (c *SessionClient) SignUpWithPassword(ctx context.Context, email, password, fullName string) (*domain.Session, error) {
	s, err := c.svc.auth.SignUp(ctx, email, password, map[string]any{"full_name": fullName})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return s, c.store(ctx, s)
}

// RegisterWithPassword validates a legacy password sign-up form before calling
// SignUpWithPassword.
func (c *SessionClient) RegisterWithPassword(ctx context.Context, email, password, fullName string) (*domain.Session, error) {
	form := PasswordSignUpForm{Email: strings.TrimSpace(email), Password: password, FullName: strings.TrimSpace(fullName)}
	if err := validate.First(&form); err != nil {
		return nil, err
	}
	return c.SignUpWithPassword(ctx, form.Email, form.Password, form.FullName)
}

// SignInWithOTP emails a one-time code.
func (c *SessionClient) SignInWithOTP(ctx context.Context, email string, opts domain.OTPOptions) error {
	return c.svc.auth.SignInWithOTP(ctx, email, opts)
}

// VerifyOTP exchanges an emailed code for a session.
func (c *SessionClient) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	s, err := c.svc.auth.VerifyOTP(ctx, email, code, domain.OTPTypeEmail)
	if err != nil {
		return nil, err
	}
	return s, c.store(ctx, s)
}

// ResetPasswordForEmail requests a password reset link.
func (c *SessionClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.svc.auth.ResetPasswordForEmail(ctx, email, redirectTo)
}

// OAuthURL returns the provider authorization URL for a redirect sign-in.
func (c *SessionClient) OAuthURL(provider domain.OAuthProviderName, state string) (string, error) {
	if c.svc.oauth == nil {
		return "", ErrOAuthUnavailable
	}
	return c.svc.oauth.AuthCodeURL(provider, state)
}

// CompleteOAuth finishes a redirect sign-in. The session change is observed by
// the gate like any other sign-in.
func (c *SessionClient) CompleteOAuth(ctx context.Context, provider domain.OAuthProviderName, code string) (*domain.Session, error) {
	if c.svc.oauth == nil {
		return nil, ErrOAuthUnavailable
	}
	idToken, err := c.svc.oauth.Exchange(ctx, provider, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	s, err := c.svc.auth.SignInWithIDToken(ctx, provider, idToken)
	if err != nil {
		return nil, err
	}
	return s, c.store(ctx, s)
}

// SignOut revokes the session remotely (best effort) and clears it locally.
func (c *SessionClient) SignOut(ctx context.Context) error {
	s, err := c.svc.sessions.Load(ctx, c.sid)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if s != nil {
		if err := c.svc.auth.SignOut(ctx, s.AccessToken); err != nil {
			c.svc.log.Warnw("remote sign-out failed", "sid", c.sid, "error", err)
		}
	}
	return c.svc.sessions.Delete(ctx, c.sid)
}

func (c *SessionClient) store(ctx context.Context, s *domain.Session) error {
	if err := c.svc.sessions.Save(ctx, c.sid, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.svc.log.Infow("session established", "sid", c.sid, "user", s.User.ID)
	return nil
}
