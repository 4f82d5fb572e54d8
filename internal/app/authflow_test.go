package app

import (
	"context"
	"strings"
	"testing"

	"technowear/internal/domain"
	"technowear/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlow(auth *mockAuthProvider, oauth domain.OAuthProvider, st AuthState) (*AuthFlow, *fakeSessions) {
	store := newFakeSessions()
	svc := NewAuthService(auth, oauth, store, "https://app.example", nopLog())
	return NewAuthFlow(svc.Client("sid-1"), svc.SiteURL(), st), store
}

func TestAuthFlow_SignInValidationSkipsBackend(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
		message  string
	}{
		{"missing email", "", "secret1", "email", "Email is required"},
		{"malformed email", "not-an-email", "secret1", "email", "Invalid email address"},
		{"missing password", "a@example.com", "", "password", "Password is required"},
		{"short password", "a@example.com", "12345", "password", "Password must be at least 6 characters"},
		{"long password", "a@example.com", strings.Repeat("x", 73), "password", "Password must be less than 72 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &mockAuthProvider{}
			flow, _ := newFlow(auth, nil, AuthState{Mode: ModeSignIn, Email: tt.email, Password: tt.password})

			res := flow.Submit(context.Background())
			assert.True(t, validate.IsValidation(res.Err))
			assert.Equal(t, tt.field, res.Field)
			assert.Equal(t, tt.message, res.Notice)
			assert.Equal(t, NoticeError, res.NoticeKind)
			assert.Equal(t, 0, auth.calls, "no network call on invalid input")
		})
	}
}

func TestAuthFlow_SignInPasswordBounds(t *testing.T) {
	for _, pw := range []string{strings.Repeat("x", 6), strings.Repeat("x", 72)} {
		auth := &mockAuthProvider{
			signInWithPasswordFn: func(context.Context, string, string) (*domain.Session, error) {
				return liveSession("u1"), nil
			},
		}
		flow, store := newFlow(auth, nil, AuthState{Mode: ModeSignIn, Email: " a@example.com ", Password: pw})

		res := flow.Submit(context.Background())
		require.NoError(t, res.Err)
		assert.Equal(t, "Welcome back!", res.Notice)
		assert.Equal(t, RouteDashboard, res.Navigate)
		assert.Empty(t, res.State.Password)
		s, _ := store.Load(context.Background(), "sid-1")
		assert.NotNil(t, s)
	}
}

func TestAuthFlow_SignInBackendMessage(t *testing.T) {
	auth := &mockAuthProvider{
		signInWithPasswordFn: func(context.Context, string, string) (*domain.Session, error) {
			return nil, &domain.BackendError{Status: 400, Message: "Invalid login credentials"}
		},
	}
	flow, _ := newFlow(auth, nil, AuthState{Mode: ModeSignIn, Email: "a@example.com", Password: "secret1"})

	res := flow.Submit(context.Background())
	require.Error(t, res.Err)
	assert.Equal(t, "Invalid login credentials", res.Notice)
	assert.Equal(t, ModeSignIn, res.State.Mode)
	assert.Empty(t, res.Navigate)
}

func TestAuthFlow_SignUpSendsCode(t *testing.T) {
	var gotOpts domain.OTPOptions
	auth := &mockAuthProvider{
		signInWithOTPFn: func(_ context.Context, email string, opts domain.OTPOptions) error {
			assert.Equal(t, "a@example.com", email)
			gotOpts = opts
			return nil
		},
	}
	flow, _ := newFlow(auth, nil, AuthState{Mode: ModeSignUp, Email: "a@example.com", FullName: " Ada Lovelace "})

	res := flow.Submit(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, ModeOTPPending, res.State.Mode)
	assert.Equal(t, "a@example.com", res.State.Email)
	assert.Equal(t, "Check your email for a 6-digit code", res.Notice)
	assert.True(t, gotOpts.CreateUser)
	assert.Equal(t, "Ada Lovelace", gotOpts.Data["full_name"])
	assert.Equal(t, "https://app.example/", gotOpts.RedirectTo)
}

func TestAuthFlow_SignUpRequiresName(t *testing.T) {
	auth := &mockAuthProvider{}
	flow, _ := newFlow(auth, nil, AuthState{Mode: ModeSignUp, Email: "a@example.com"})

	res := flow.Submit(context.Background())
	assert.Equal(t, "fullName", res.Field)
	assert.Equal(t, "Full name is required", res.Notice)
	assert.Equal(t, ModeSignUp, res.State.Mode)
	assert.Equal(t, 0, auth.calls)
}

func TestAuthFlow_ForgotPassword(t *testing.T) {
	var redirect string
	auth := &mockAuthProvider{
		resetPasswordFn: func(_ context.Context, _ string, redirectTo string) error {
			redirect = redirectTo
			return nil
		},
	}
	flow, _ := newFlow(auth, nil, AuthState{Mode: ModeForgotPassword, Email: "a@example.com"})

	res := flow.Submit(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, "https://app.example/auth", redirect)
	assert.Equal(t, ModeSignIn, res.State.Mode)
	assert.Empty(t, res.State.Email)
	assert.Equal(t, "Password reset email sent. Check your inbox.", res.Notice)
}

func TestAuthFlow_VerifyOTP(t *testing.T) {
	t.Run("wrong length skips backend", func(t *testing.T) {
		for _, code := range []string{"", "12345", "1234567"} {
			auth := &mockAuthProvider{}
			flow, _ := newFlow(auth, nil, AuthState{Mode: ModeOTPPending, Email: "a@example.com"})

			res := flow.VerifyOTP(context.Background(), code)
			assert.Equal(t, "Please enter a 6-digit code", res.Notice)
			assert.Equal(t, ModeOTPPending, res.State.Mode)
			assert.Equal(t, 0, auth.calls)
		}
	})

	t.Run("invalid code keeps pending", func(t *testing.T) {
		auth := &mockAuthProvider{
			verifyOTPFn: func(context.Context, string, string, string) (*domain.Session, error) {
				return nil, &domain.BackendError{Status: 401}
			},
		}
		flow, _ := newFlow(auth, nil, AuthState{Mode: ModeOTPPending, Email: "a@example.com"})

		res := flow.VerifyOTP(context.Background(), "123456")
		assert.Equal(t, "Invalid verification code", res.Notice)
		assert.Equal(t, ModeOTPPending, res.State.Mode)
		assert.Equal(t, "a@example.com", res.State.Email)
	})

	t.Run("success navigates", func(t *testing.T) {
		auth := &mockAuthProvider{
			verifyOTPFn: func(_ context.Context, email, token, otpType string) (*domain.Session, error) {
				assert.Equal(t, "a@example.com", email)
				assert.Equal(t, "123456", token)
				assert.Equal(t, domain.OTPTypeEmail, otpType)
				return liveSession("u1"), nil
			},
		}
		flow, _ := newFlow(auth, nil, AuthState{Mode: ModeOTPPending, Email: "a@example.com"})

		res := flow.VerifyOTP(context.Background(), "123456")
		require.NoError(t, res.Err)
		assert.Equal(t, "Email verified successfully!", res.Notice)
		assert.Equal(t, RouteDashboard, res.Navigate)
	})

	t.Run("not pending", func(t *testing.T) {
		flow, _ := newFlow(&mockAuthProvider{}, nil, AuthState{Mode: ModeSignIn})
		res := flow.VerifyOTP(context.Background(), "123456")
		assert.ErrorIs(t, res.Err, ErrInvalidTransition)
	})
}

func TestAuthFlow_CancelOTPKeepsEmail(t *testing.T) {
	flow, _ := newFlow(&mockAuthProvider{}, nil, AuthState{Mode: ModeOTPPending, Email: "a@example.com"})

	res := flow.CancelOTP()
	require.NoError(t, res.Err)
	assert.Equal(t, AuthState{Mode: ModeSignUp, Email: "a@example.com"}, res.State)
}

func TestAuthFlow_SwitchClearsFields(t *testing.T) {
	flow, _ := newFlow(&mockAuthProvider{}, nil, AuthState{
		Mode: ModeSignUp, Email: "a@example.com", Password: "secret1", FullName: "Ada",
	})

	first := flow.SwitchTo(ModeSignIn)
	second := flow.SwitchTo(ModeSignIn)
	require.NoError(t, first.Err)
	assert.Equal(t, first.State, second.State)
	assert.Equal(t, AuthState{Mode: ModeSignIn, Email: "a@example.com"}, second.State)
}

func TestAuthFlow_SwitchRejectsPending(t *testing.T) {
	flow, _ := newFlow(&mockAuthProvider{}, nil, AuthState{Mode: ModeSignIn})
	assert.ErrorIs(t, flow.SwitchTo(ModeOTPPending).Err, ErrInvalidTransition)

	pending, _ := newFlow(&mockAuthProvider{}, nil, AuthState{Mode: ModeOTPPending, Email: "a@example.com"})
	res := pending.SwitchTo(ModeSignIn)
	assert.ErrorIs(t, res.Err, ErrInvalidTransition)
	assert.Equal(t, ModeOTPPending, res.State.Mode)
}

func TestAuthFlow_UnknownModeStartsAtSignIn(t *testing.T) {
	flow, _ := newFlow(&mockAuthProvider{}, nil, AuthState{Mode: "bogus", Email: "a@example.com", Password: "x"})
	assert.Equal(t, AuthState{Mode: ModeSignIn, Email: "a@example.com"}, flow.State())
}

func TestAuthFlow_StartOAuth(t *testing.T) {
	flow, _ := newFlow(&mockAuthProvider{}, &mockOAuth{}, AuthState{Mode: ModeSignIn})
	res := flow.StartOAuth(domain.ProviderGoogle, "st")
	require.NoError(t, res.Err)
	assert.Equal(t, "https://idp.example/authorize?state=st", res.RedirectURL)

	noOAuth, _ := newFlow(&mockAuthProvider{}, nil, AuthState{Mode: ModeSignIn})
	res = noOAuth.StartOAuth(domain.ProviderApple, "st")
	assert.ErrorIs(t, res.Err, ErrOAuthUnavailable)
	assert.Equal(t, "Unable to sign in with Apple. Please use email sign-in instead.", res.Notice)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthProvider{}
	store := newFakeSessions()
	svc := NewAuthService(auth, nil, store, "https://app.example", nopLog())
	require.NoError(t, store.Save(ctx, "sid-1", liveSession("u1")))

	res := SignOut(ctx, svc.Client("sid-1"))
	require.NoError(t, res.Err)
	assert.Equal(t, "Signed out successfully", res.Notice)
	assert.Equal(t, NoticeSuccess, res.NoticeKind)
	assert.Equal(t, RouteAuth, res.Navigate)

	s, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}
