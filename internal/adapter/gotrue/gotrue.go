// Package gotrue talks to a hosted GoTrue-compatible auth service. Password
// and code flows go through the supabase auth client; the calls that need a
// redirect_to parameter or the id_token grant use the REST API directly.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"technowear/internal/domain"

	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
	"go.uber.org/zap"
)

// Client implements domain.AuthProvider against GOTRUE_URL.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	api        auth.Client
	log        *zap.SugaredLogger
	now        func() time.Time
}

var _ domain.AuthProvider = (*Client)(nil)

// New creates a client. baseURL is the auth root, e.g. https://x.supabase.co/auth/v1.
func New(baseURL, apiKey string, log *zap.SugaredLogger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		api:        auth.New("", apiKey).WithCustomAuthURL(baseURL),
		log:        log,
		now:        time.Now,
	}
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         userResponse `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) toSession(r sessionResponse) *domain.Session {
	name, _ := r.User.UserMetadata["full_name"].(string)
	return &domain.Session{
		User:         domain.User{ID: r.User.ID, Email: r.User.Email, FullName: name},
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(r.ExpiresIn) * time.Second).UTC(),
	}
}

func (c *Client) fromTypes(s types.Session) *domain.Session {
	name, _ := s.User.UserMetadata["full_name"].(string)
	return &domain.Session{
		User:         domain.User{ID: s.User.ID.String(), Email: s.User.Email, FullName: name},
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(s.ExpiresIn) * time.Second).UTC(),
	}
}

// apiError turns an auth client failure into a BackendError. The client
// reports rejections as "response status code <n>: <body>".
func (c *Client) apiError(op string, err error) error {
	var status int
	if _, scanErr := fmt.Sscanf(err.Error(), "response status code %d", &status); scanErr != nil {
		c.log.Errorw("auth service call failed", "op", op, "error", err)
		return fmt.Errorf("auth service: %w", err)
	}
	var e errorResponse
	if _, body, ok := strings.Cut(err.Error(), ": "); ok {
		_ = json.Unmarshal([]byte(body), &e)
	}
	c.log.Warnw("auth service rejected request", "op", op, "status", status)
	return &domain.BackendError{Status: status, Message: e.text()}
}

// SignUp registers a password account. The session is nil when the service
// requires email confirmation first.
func (c *Client) SignUp(ctx context.Context, email, password string, data map[string]any) (*domain.Session, error) {
	resp, err := c.api.Signup(types.SignupRequest{Email: email, Password: password, Data: data})
	if err != nil {
		return nil, c.apiError("signup", err)
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	return c.fromTypes(resp.Session), nil
}

// SignInWithPassword uses the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	resp, err := c.api.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, c.apiError("token", err)
	}
	return c.fromTypes(resp.Session), nil
}

// SignInWithOTP asks the service to email a one-time code.
func (c *Client) SignInWithOTP(ctx context.Context, email string, opts domain.OTPOptions) error {
	var q url.Values
	if opts.RedirectTo != "" {
		q = url.Values{"redirect_to": {opts.RedirectTo}}
	}
	body := map[string]any{"email": email, "create_user": opts.CreateUser}
	if len(opts.Data) > 0 {
		body["data"] = opts.Data
	}
	return c.do(ctx, http.MethodPost, "/otp", q, body, "", nil)
}

// VerifyOTP exchanges an emailed code for a session.
func (c *Client) VerifyOTP(ctx context.Context, email, token, otpType string) (*domain.Session, error) {
	resp, err := c.api.VerifyForUser(types.VerifyForUserRequest{
		Type:  types.VerificationType(otpType),
		Token: token,
		Email: email,
	})
	if err != nil {
		return nil, c.apiError("verify", err)
	}
	return c.fromTypes(resp.Session), nil
}

// ResetPasswordForEmail sends a recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, http.MethodPost, "/recover", q, map[string]any{"email": email}, "", nil)
}

// SignInWithIDToken trades a verified provider id token for a session.
func (c *Client) SignInWithIDToken(ctx context.Context, provider domain.OAuthProviderName, idToken string) (*domain.Session, error) {
	var resp sessionResponse
	q := url.Values{"grant_type": {"id_token"}}
	body := map[string]any{"provider": string(provider), "id_token": idToken}
	if err := c.do(ctx, http.MethodPost, "/token", q, body, "", &resp); err != nil {
		return nil, err
	}
	return c.toSession(resp), nil
}

// SignOut revokes the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.api.WithToken(accessToken).Logout(); err != nil {
		return c.apiError("logout", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, bearer string, out any) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.APIKey)
	if bearer == "" {
		bearer = c.APIKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Errorw("auth service call failed", "path", path, "error", err)
		return fmt.Errorf("auth service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		c.log.Warnw("auth service rejected request", "path", path, "status", resp.StatusCode)
		return &domain.BackendError{Status: resp.StatusCode, Message: e.text()}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	return nil
}
