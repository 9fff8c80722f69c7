package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-test-key"

func newClient(url, jwtSecret string) *SupabaseClient {
	return NewSupabaseClient(Config{
		URL:       url,
		AnonKey:   "anon-key",
		JWTSecret: jwtSecret,
		Timeout:   2 * time.Second,
	})
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSignUp_Success(t *testing.T) {
	var gotPath, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "uuid-1",
			"email": "u@example.com",
		})
	}))
	defer srv.Close()

	user, err := newClient(srv.URL, "").SignUp(context.Background(), "u@example.com", "secret")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.ID != "uuid-1" {
		t.Errorf("user.ID = %q, want uuid-1", user.ID)
	}
	if gotPath != "/auth/v1/signup" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("apikey header = %q", gotAPIKey)
	}
}

func TestSignUp_NestedUserResponse(t *testing.T) {
	// With email confirmation enabled GoTrue nests the user object.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": "uuid-2", "email": "u@example.com"},
		})
	}))
	defer srv.Close()

	user, err := newClient(srv.URL, "").SignUp(context.Background(), "u@example.com", "secret")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.ID != "uuid-2" {
		t.Errorf("user.ID = %q, want uuid-2", user.ID)
	}
}

func TestSignUp_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"msg": "User already registered"})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").SignUp(context.Background(), "u@example.com", "secret")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if got := err.Error(); !strings.Contains(got, "User already registered") {
		t.Errorf("err = %q, want provider detail included", got)
	}
}

func TestSignUp_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").SignUp(context.Background(), "u@example.com", "secret")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestSignUp_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	_, err := newClient(srv.URL, "").SignUp(context.Background(), "u@example.com", "secret")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestSignIn_Success(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "jwt-token",
			"user":         map[string]any{"id": "uuid-1", "email": "u@example.com"},
		})
	}))
	defer srv.Close()

	session, err := newClient(srv.URL, "").SignIn(context.Background(), "u@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.AccessToken != "jwt-token" {
		t.Errorf("token = %q", session.AccessToken)
	}
	if session.User.ID != "uuid-1" {
		t.Errorf("user = %+v", session.User)
	}
	if gotQuery != "grant_type=password" {
		t.Errorf("query = %q, want grant_type=password", gotQuery)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").SignIn(context.Background(), "u@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignIn_EmptyTokenIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": ""})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").SignIn(context.Background(), "u@example.com", "secret")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignIn_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").SignIn(context.Background(), "u@example.com", "secret")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestVerifyToken_LocalHMAC(t *testing.T) {
	// No server: a valid local signature must not hit the network.
	c := newClient("http://127.0.0.1:1", testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "uuid-1",
		"email": "u@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	user, err := c.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.ID != "uuid-1" || user.Email != "u@example.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestVerifyToken_ExpiredLocalFallsBackToRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newClient(srv.URL, testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "uuid-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := c.VerifyToken(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_WrongSecretFallsBackToRemote(t *testing.T) {
	var remoteCalled bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalled = true
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "uuid-1", "email": "u@example.com"})
	}))
	defer srv.Close()

	c := newClient(srv.URL, testSecret)
	token := signToken(t, "some-other-secret", jwt.MapClaims{
		"sub": "uuid-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	user, err := c.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if !remoteCalled {
		t.Error("remote verification not attempted after local failure")
	}
	if user.ID != "uuid-1" {
		t.Errorf("user = %+v", user)
	}
}

func TestVerifyToken_MissingSubClaim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newClient(srv.URL, testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"email": "u@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err := c.VerifyToken(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_RemoteOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer opaque-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "uuid-3"})
	}))
	defer srv.Close()

	// No JWT secret configured: straight to the provider.
	user, err := newClient(srv.URL, "").VerifyToken(context.Background(), "opaque-token")
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.ID != "uuid-3" {
		t.Errorf("user = %+v", user)
	}
}

func TestVerifyToken_RemoteRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").VerifyToken(context.Background(), "bad-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSendWelcome_Success(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/send-welcome" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer anon-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newClient(srv.URL, "").SendWelcome(context.Background(), "u@example.com"); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}
	if payload["to"] != "u@example.com" {
		t.Errorf("to = %q", payload["to"])
	}
	if payload["notification_id"] == "" {
		t.Error("notification_id missing")
	}
}

func TestSendWelcome_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := newClient(srv.URL, "").SendWelcome(context.Background(), "u@example.com"); err == nil {
		t.Error("SendWelcome = nil, want error on provider 500")
	}
}
