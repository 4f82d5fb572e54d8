// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"fmt"
	"time"
)

// User represents an identity issued by the hosted auth service.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// Session is the server-issued proof of an authenticated identity.
type Session struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// OAuthProviderName identifies an external identity provider.
type OAuthProviderName string

// Supported identity providers.
const (
	ProviderGoogle OAuthProviderName = "google"
	ProviderApple  OAuthProviderName = "apple"
)

// Title returns the provider name for user-facing text.
func (p OAuthProviderName) Title() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderApple:
		return "Apple"
	default:
		return string(p)
	}
}

// OTPOptions controls a one-time-passcode dispatch.
type OTPOptions struct {
	CreateUser bool
	Data       map[string]any
	RedirectTo string
}

// OTPTypeEmail is the verification purpose used for emailed codes.
const OTPTypeEmail = "email"

// BackendError is a failure reported by the hosted backend. Message is safe to
// show to the user.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

// AuthProvider is the port for the hosted authentication service.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, data map[string]any) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignInWithOTP(ctx context.Context, email string, opts OTPOptions) error
	VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SignInWithIDToken(ctx context.Context, provider OAuthProviderName, idToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// OAuthProvider is the port for redirect-based external sign-in.
type OAuthProvider interface {
	AuthCodeURL(provider OAuthProviderName, state string) (string, error)
	Exchange(ctx context.Context, provider OAuthProviderName, code string) (idToken string, err error)
}

// SessionStore holds sessions per browser session id and notifies watchers on
// every change. A nil session in a notification means signed out.
type SessionStore interface {
	Load(ctx context.Context, sid string) (*Session, error)
	Save(ctx context.Context, sid string, s *Session) error
	Delete(ctx context.Context, sid string) error
	Watch(sid string, fn func(*Session)) (unsubscribe func())
}
