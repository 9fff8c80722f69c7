package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Compile-time interface check
var _ Identity = (*SupabaseClient)(nil)

// Config configures the Supabase identity client.
// AnonKey and JWTSecret are env-only secrets, never logged.
type Config struct {
	URL       string
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

// SupabaseClient talks to the Supabase GoTrue REST API. When JWTSecret is
// set, bearer tokens are verified locally (HMAC) without a network call;
// otherwise verification falls back to the provider's /auth/v1/user endpoint.
type SupabaseClient struct {
	baseURL   string
	anonKey   string
	jwtSecret string
	client    *http.Client
}

// NewSupabaseClient creates a client for the given project.
func NewSupabaseClient(cfg Config) *SupabaseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SupabaseClient{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		anonKey:   cfg.AnonKey,
		jwtSecret: cfg.JWTSecret,
		client:    &http.Client{Timeout: timeout},
	}
}

// gotrueUser is the provider's user representation. Signup responses carry
// the user either at the top level or nested under "user" depending on
// whether email confirmation is enabled.
type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueAuthResponse struct {
	gotrueUser
	AccessToken string      `json:"access_token"`
	User        *gotrueUser `json:"user"`
}

type gotrueError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (e gotrueError) detail() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}

// SignUp registers a new user with the provider.
// Provider 4xx responses map to ErrRejected, everything else to ErrUnavailable.
func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) (User, error) {
	resp, err := c.postJSON(ctx, "/auth/v1/signup", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return User{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var ge gotrueError
		_ = json.Unmarshal(body, &ge)
		return User{}, fmt.Errorf("%w: %s", ErrRejected, ge.detail())
	}

	var ar gotrueAuthResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return User{}, fmt.Errorf("%w: decode signup response: %v", ErrUnavailable, err)
	}

	user := ar.resolveUser()
	if user.ID == "" {
		return User{}, fmt.Errorf("%w: no user returned", ErrRejected)
	}
	return user, nil
}

// SignIn exchanges an email/password pair for an access token.
func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (Session, error) {
	resp, err := c.postJSON(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return Session{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return Session{}, ErrInvalidCredentials
	}

	var ar gotrueAuthResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return Session{}, fmt.Errorf("%w: decode token response: %v", ErrUnavailable, err)
	}
	if ar.AccessToken == "" {
		return Session{}, ErrInvalidCredentials
	}

	return Session{AccessToken: ar.AccessToken, User: ar.resolveUser()}, nil
}

// VerifyToken resolves a bearer token to a user. Verification prefers the
// local JWT secret when configured; the REST fallback re-checks with the
// provider. Every failure cause folds into ErrInvalidToken.
func (c *SupabaseClient) VerifyToken(ctx context.Context, token string) (User, error) {
	if c.jwtSecret != "" {
		if user, err := c.verifyTokenLocal(token); err == nil {
			return user, nil
		} else {
			slog.Debug("local token verification failed, falling back to provider", "error", err)
		}
	}
	return c.verifyTokenRemote(ctx, token)
}

// verifyTokenLocal checks the HMAC signature with the project JWT secret.
func (c *SupabaseClient) verifyTokenLocal(token string) (User, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(c.jwtSecret), nil
	})
	if err != nil {
		return User{}, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return User{}, fmt.Errorf("jwt invalid")
	}

	user := User{
		ID:    stringClaim(claims, "sub"),
		Email: stringClaim(claims, "email"),
	}
	if user.ID == "" {
		return User{}, fmt.Errorf("jwt missing sub claim")
	}
	return user, nil
}

// verifyTokenRemote asks the provider to verify the token.
func (c *SupabaseClient) verifyTokenRemote(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("token verification request failed", "error", err)
		return User{}, ErrInvalidToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("token rejected by provider", "status", resp.StatusCode)
		return User{}, ErrInvalidToken
	}

	var gu gotrueUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil || gu.ID == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: gu.ID, Email: gu.Email}, nil
}

// SendWelcome invokes the send-welcome edge function. Best-effort: the
// caller logs failures but never fails the signup over them.
func (c *SupabaseClient) SendWelcome(ctx context.Context, email string) error {
	notificationID := ulid.Make().String()
	resp, err := c.postJSON(ctx, "/functions/v1/send-welcome", map[string]string{
		"notification_id": notificationID,
		"to":              email,
		"subject":         "Welcome to StockIn!",
		"body": "Hi,\n\nWelcome to StockIn, we're glad to have you on board!\n\n" +
			"If you need help, reply to this email or visit our docs.\n\nThe StockIn Team",
	}, "Bearer "+c.anonKey)
	if err != nil {
		return fmt.Errorf("invoke send-welcome: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("send-welcome returned status %d", resp.StatusCode)
	}

	slog.Info("welcome notification sent", "notification_id", notificationID)
	return nil
}

// postJSON issues a POST with the project apikey header. An optional
// authorization value overrides the default (none).
func (c *SupabaseClient) postJSON(ctx context.Context, path string, payload any, authorization string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	return c.client.Do(req)
}

func (r gotrueAuthResponse) resolveUser() User {
	if r.User != nil && r.User.ID != "" {
		return User{ID: r.User.ID, Email: r.User.Email}
	}
	return User{ID: r.gotrueUser.ID, Email: r.gotrueUser.Email}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
