package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"technowear/internal/domain"
	"technowear/internal/validate"
)

// Mode is the screen the auth page is showing. Exactly one mode is active.
type Mode string

// Auth modes.
const (
	ModeSignIn         Mode = "sign_in"
	ModeSignUp         Mode = "sign_up"
	ModeForgotPassword Mode = "forgot_password"
	ModeOTPPending     Mode = "otp_pending"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSignIn, ModeSignUp, ModeForgotPassword, ModeOTPPending:
		return true
	}
	return false
}

// AuthState is the auth page's form state. In ModeOTPPending, Email is the
// address the code was sent to and cannot change.
type AuthState struct {
	Mode     Mode   `json:"mode"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// NoticeKind classifies a user-visible notification.
type NoticeKind string

// Notice kinds.
const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// AuthResult is the outcome of one auth page action.
type AuthResult struct {
	State       AuthState  `json:"state"`
	Notice      string     `json:"notice,omitempty"`
	NoticeKind  NoticeKind `json:"noticeKind,omitempty"`
	Field       string     `json:"field,omitempty"`
	Navigate    Route      `json:"navigate,omitempty"`
	RedirectURL string     `json:"redirectUrl,omitempty"`
	Err         error      `json:"-"`
}

const (
	otpLength          = 6
	msgOTPLength       = "Please enter a 6-digit code"
	msgInvalidCode     = "Invalid verification code"
	msgSignInFailed    = "Unable to sign in"
	msgRequestFailed   = "Something went wrong. Please try again."
	msgNotAvailable    = "This action is not available right now"
	msgWelcomeBack     = "Welcome back!"
	msgCheckEmail      = "Check your email for a 6-digit code"
	msgResetSent       = "Password reset email sent. Check your inbox."
	msgEmailVerified   = "Email verified successfully!"
	msgSignedOut       = "Signed out successfully"
	msgOAuthFallbackFm = "Unable to sign in with %s. Please use email sign-in instead."
)

// AuthFlow drives the auth page state machine against a SessionClient.
type AuthFlow struct {
	client  *SessionClient
	siteURL string
	state   AuthState
}

// NewAuthFlow resumes the auth page from st. An unknown mode starts at sign-in.
func NewAuthFlow(client *SessionClient, siteURL string, st AuthState) *AuthFlow {
	if !st.Mode.Valid() {
		st = AuthState{Mode: ModeSignIn, Email: st.Email}
	}
	return &AuthFlow{client: client, siteURL: strings.TrimRight(siteURL, "/"), state: st}
}

// State returns the current form state.
func (f *AuthFlow) State() AuthState { return f.state }

// SwitchTo moves between sign-in, sign-up and forgot-password. Password and
// full name are always cleared so a stale value is never submitted.
func (f *AuthFlow) SwitchTo(m Mode) AuthResult {
	if f.state.Mode == ModeOTPPending || m == ModeOTPPending || !m.Valid() {
		return f.fail(ErrInvalidTransition, msgNotAvailable)
	}
	f.state.Mode = m
	f.state.Password = ""
	f.state.FullName = ""
	return AuthResult{State: f.state}
}

// Submit sends the form for the current mode.
func (f *AuthFlow) Submit(ctx context.Context) AuthResult {
	switch f.state.Mode {
	case ModeSignIn:
		return f.signIn(ctx)
	case ModeSignUp:
		return f.signUp(ctx)
	case ModeForgotPassword:
		return f.forgotPassword(ctx)
	default:
		return f.fail(ErrInvalidTransition, msgNotAvailable)
	}
}

func (f *AuthFlow) signIn(ctx context.Context) AuthResult {
	form := SignInForm{Email: strings.TrimSpace(f.state.Email), Password: f.state.Password}
	if err := validate.First(&form); err != nil {
		return f.invalid(err)
	}
	if _, err := f.client.SignInWithPassword(ctx, form.Email, form.Password); err != nil {
		return f.fail(err, backendMessage(err, msgSignInFailed))
	}
	f.state.Password = ""
	return AuthResult{State: f.state, Notice: msgWelcomeBack, NoticeKind: NoticeSuccess, Navigate: RouteDashboard}
}

func (f *AuthFlow) signUp(ctx context.Context) AuthResult {
	form := SignUpForm{Email: strings.TrimSpace(f.state.Email), FullName: strings.TrimSpace(f.state.FullName)}
	if err := validate.First(&form); err != nil {
		return f.invalid(err)
	}
	opts := domain.OTPOptions{
		CreateUser: true,
		Data:       map[string]any{"full_name": form.FullName},
		RedirectTo: f.siteURL + string(RouteLanding),
	}
	if err := f.client.SignInWithOTP(ctx, form.Email, opts); err != nil {
		return f.fail(err, backendMessage(err, msgRequestFailed))
	}
	f.state = AuthState{Mode: ModeOTPPending, Email: form.Email}
	return AuthResult{State: f.state, Notice: msgCheckEmail, NoticeKind: NoticeSuccess}
}

func (f *AuthFlow) forgotPassword(ctx context.Context) AuthResult {
	form := ForgotPasswordForm{Email: strings.TrimSpace(f.state.Email)}
	if err := validate.First(&form); err != nil {
		return f.invalid(err)
	}
	if err := f.client.ResetPasswordForEmail(ctx, form.Email, f.siteURL+string(RouteAuth)); err != nil {
		return f.fail(err, backendMessage(err, msgRequestFailed))
	}
	f.state = AuthState{Mode: ModeSignIn}
	return AuthResult{State: f.state, Notice: msgResetSent, NoticeKind: NoticeSuccess}
}

// StartOAuth begins a redirect sign-in. Success is observed later by the
// session gate, never returned here. Failures are reported generically.
func (f *AuthFlow) StartOAuth(provider domain.OAuthProviderName, state string) AuthResult {
	if f.state.Mode == ModeOTPPending {
		return f.fail(ErrInvalidTransition, msgNotAvailable)
	}
	url, err := f.client.OAuthURL(provider, state)
	if err != nil {
		return f.fail(err, OAuthFallback(provider))
	}
	return AuthResult{State: f.state, RedirectURL: url}
}

// VerifyOTP confirms the emailed code for the pending email.
func (f *AuthFlow) VerifyOTP(ctx context.Context, code string) AuthResult {
	if f.state.Mode != ModeOTPPending {
		return f.fail(ErrInvalidTransition, msgNotAvailable)
	}
	code = strings.TrimSpace(code)
	if utf8.RuneCountInString(code) != otpLength {
		return f.invalid(&validate.Error{Field: "code", Tag: "len", Message: msgOTPLength})
	}
	if _, err := f.client.VerifyOTP(ctx, f.state.Email, code); err != nil {
		return f.fail(err, backendMessage(err, msgInvalidCode))
	}
	f.state = AuthState{Mode: ModeSignIn}
	return AuthResult{State: f.state, Notice: msgEmailVerified, NoticeKind: NoticeSuccess, Navigate: RouteDashboard}
}

// CancelOTP abandons verification and returns to sign-up.
func (f *AuthFlow) CancelOTP() AuthResult {
	if f.state.Mode != ModeOTPPending {
		return f.fail(ErrInvalidTransition, msgNotAvailable)
	}
	f.state = AuthState{Mode: ModeSignUp, Email: f.state.Email}
	return AuthResult{State: f.state}
}

func (f *AuthFlow) invalid(err error) AuthResult {
	var ve *validate.Error
	if !errors.As(err, &ve) {
		return f.fail(err, msgRequestFailed)
	}
	return AuthResult{State: f.state, Notice: ve.Message, NoticeKind: NoticeError, Field: ve.Field, Err: err}
}

func (f *AuthFlow) fail(err error, msg string) AuthResult {
	return AuthResult{State: f.state, Notice: msg, NoticeKind: NoticeError, Err: err}
}

// SignOut ends the browser's session and returns to the sign-in screen.
func SignOut(ctx context.Context, client *SessionClient) AuthResult {
	st := AuthState{Mode: ModeSignIn}
	if err := client.SignOut(ctx); err != nil {
		return AuthResult{State: st, Notice: msgRequestFailed, NoticeKind: NoticeError, Err: err}
	}
	return AuthResult{State: st, Notice: msgSignedOut, NoticeKind: NoticeSuccess, Navigate: RouteAuth}
}

// OAuthFallback is the message shown when a redirect sign-in fails.
func OAuthFallback(p domain.OAuthProviderName) string {
	return fmt.Sprintf(msgOAuthFallbackFm, p.Title())
}
