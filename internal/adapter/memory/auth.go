package memory

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"technowear/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// OTPTTL is how long an emailed code stays valid.
const OTPTTL = 10 * time.Minute

// Mailer delivers auth emails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	Log *zap.SugaredLogger
}

// Send implements Mailer.
func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Log.Infow("email", "to", to, "subject", subject, "body", body)
	return nil
}

type devUser struct {
	domain.User
	passwordHash []byte
}

type pendingCode struct {
	code       string
	expiresAt  time.Time
	createUser bool
	fullName   string
}

// Auth is an in-process stand-in for the hosted auth service.
type Auth struct {
	mailer     Mailer
	sessionTTL time.Duration
	now        func() time.Time

	mu     sync.Mutex
	users  map[string]*devUser
	codes  map[string]pendingCode
	tokens map[string]string
}

var _ domain.AuthProvider = (*Auth)(nil)

// NewAuth creates a dev auth backend issuing sessions valid for sessionTTL.
func NewAuth(mailer Mailer, sessionTTL time.Duration) *Auth {
	return &Auth{
		mailer:     mailer,
		sessionTTL: sessionTTL,
		now:        time.Now,
		users:      make(map[string]*devUser),
		codes:      make(map[string]pendingCode),
		tokens:     make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fullNameOf(data map[string]any) string {
	name, _ := data["full_name"].(string)
	return name
}

// SignUp registers a password account and signs it in.
func (a *Auth) SignUp(ctx context.Context, email, password string, data map[string]any) (*domain.Session, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &domain.BackendError{Status: http.StatusUnprocessableEntity, Message: "Password is too long"}
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[email]; ok {
		return nil, &domain.BackendError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
	}
	u := &devUser{
		User:         domain.User{ID: uuid.NewString(), Email: email, FullName: fullNameOf(data)},
		passwordHash: hash,
	}
	a.users[email] = u
	return a.issueLocked(u.User), nil
}

// SignInWithPassword checks the password against the stored hash.
func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	a.mu.Lock()
	u, ok := a.users[email]
	a.mu.Unlock()

	invalid := &domain.BackendError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	if !ok || len(u.passwordHash) == 0 {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, invalid
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issueLocked(u.User), nil
}

// SignInWithOTP emails a 6-digit code.
func (a *Auth) SignInWithOTP(ctx context.Context, email string, opts domain.OTPOptions) error {
	email = normalizeEmail(email)
	code, err := sixDigits()
	if err != nil {
		return err
	}

	a.mu.Lock()
	_, exists := a.users[email]
	if !exists && !opts.CreateUser {
		a.mu.Unlock()
		return &domain.BackendError{Status: http.StatusUnprocessableEntity, Message: "Signups not allowed for otp"}
	}
	a.codes[email] = pendingCode{
		code:       code,
		expiresAt:  a.now().Add(OTPTTL),
		createUser: opts.CreateUser,
		fullName:   fullNameOf(opts.Data),
	}
	a.mu.Unlock()

	body := fmt.Sprintf("Your TechnoWear code is %s", code)
	if opts.RedirectTo != "" {
		body += "\n\nOr continue at " + opts.RedirectTo
	}
	return a.mailer.Send(ctx, email, "Your verification code", body)
}

// VerifyOTP exchanges a code for a session. Codes are single use.
func (a *Auth) VerifyOTP(ctx context.Context, email, token, otpType string) (*domain.Session, error) {
	email = normalizeEmail(email)
	a.mu.Lock()
	defer a.mu.Unlock()

	invalid := &domain.BackendError{Status: http.StatusUnauthorized, Message: "Token has expired or is invalid"}
	if otpType != domain.OTPTypeEmail {
		return nil, invalid
	}
	p, ok := a.codes[email]
	if !ok || p.code != token {
		return nil, invalid
	}
	delete(a.codes, email)
	if !a.now().Before(p.expiresAt) {
		return nil, invalid
	}

	u, exists := a.users[email]
	if !exists {
		if !p.createUser {
			return nil, invalid
		}
		u = &devUser{User: domain.User{ID: uuid.NewString(), Email: email, FullName: p.fullName}}
		a.users[email] = u
	}
	return a.issueLocked(u.User), nil
}

// ResetPasswordForEmail mails a reset link when the account exists. The
// result never reveals whether it does.
func (a *Auth) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)
	a.mu.Lock()
	_, ok := a.users[email]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.mailer.Send(ctx, email, "Reset your password", "Reset your password at "+redirectTo+"?token="+uuid.NewString())
}

// SignInWithIDToken is not supported by the dev backend.
func (a *Auth) SignInWithIDToken(ctx context.Context, provider domain.OAuthProviderName, idToken string) (*domain.Session, error) {
	return nil, &domain.BackendError{Status: http.StatusBadRequest, Message: "Provider is not enabled"}
}

// SignOut revokes an access token.
func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, accessToken)
	return nil
}

func (a *Auth) issueLocked(u domain.User) *domain.Session {
	s := &domain.Session{
		User:         u,
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    a.now().Add(a.sessionTTL).UTC(),
	}
	a.tokens[s.AccessToken] = u.ID
	return s
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
