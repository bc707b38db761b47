package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"auth-service/internal/account/domain"
	"auth-service/internal/identity/service"
)

type stubAuth struct {
	signup    func(ctx context.Context, name, email, password string) (*domain.Account, error)
	login     func(ctx context.Context, email, password string) (*service.AuthResult, error)
	federated func(ctx context.Context, name, email, federatedID string) (*service.AuthResult, error)
}

func (s *stubAuth) Signup(ctx context.Context, name, email, password string) (*domain.Account, error) {
	return s.signup(ctx, name, email, password)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return s.login(ctx, email, password)
}

func (s *stubAuth) FederatedLogin(ctx context.Context, name, email, federatedID string) (*service.AuthResult, error) {
	return s.federated(ctx, name, email, federatedID)
}

type stubAccounts struct {
	account *domain.Account
	err     error
}

func (s *stubAccounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.account, s.err
}

type stubVerifier struct {
	subject string
	err     error
}

func (s *stubVerifier) Verify(token string) (string, error) {
	return s.subject, s.err
}

func newTestRouter(auth AuthService, accounts AccountGetter, tokens TokenVerifier) *mux.Router {
	r := mux.NewRouter()
	NewServer(auth, accounts, tokens).Register(r)
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignup_Created(t *testing.T) {
	auth := &stubAuth{
		signup: func(ctx context.Context, name, email, password string) (*domain.Account, error) {
			if name != "Ann" || email != "a@x.com" || password != "pw12345" {
				t.Errorf("Signup got (%q, %q, %q)", name, email, password)
			}
			return &domain.Account{ID: "acc-1", Email: email, Name: name}, nil
		},
	}
	router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", `{"name":"Ann","email":"a@x.com","password":"pw12345"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
	}
	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Message == "" {
		t.Error("response message should not be empty")
	}
}

func TestSignup_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"account exists", service.ErrAccountExists, http.StatusConflict},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &stubAuth{
				signup: func(ctx context.Context, name, email, password string) (*domain.Account, error) {
					return nil, tc.err
				},
			}
			router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})
			rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", `{"name":"Ann","email":"a@x.com","password":"pw12345"}`)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection refused") {
				t.Error("infrastructure detail must not leak to the caller")
			}
		})
	}
}

func TestSignup_MalformedBody(t *testing.T) {
	auth := &stubAuth{
		signup: func(ctx context.Context, name, email, password string) (*domain.Account, error) {
			t.Fatal("Signup should not be called for malformed body")
			return nil, nil
		},
	}
	router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})
	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogin_ReturnsToken(t *testing.T) {
	auth := &stubAuth{
		login: func(ctx context.Context, email, password string) (*service.AuthResult, error) {
			return &service.AuthResult{Token: "tok-123", ExpiresAt: time.Now().Add(time.Hour), AccountID: "acc-1"}, nil
		},
	}
	router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw12345"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Token != "tok-123" {
		t.Errorf("token = %q, want %q", resp.Token, "tok-123")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	auth := &stubAuth{
		login: func(ctx context.Context, email, password string) (*service.AuthResult, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid credentials") {
		t.Errorf("body = %s, want generic invalid credentials message", rec.Body)
	}
}

func TestGoogleLogin_ReturnsToken(t *testing.T) {
	auth := &stubAuth{
		federated: func(ctx context.Context, name, email, federatedID string) (*service.AuthResult, error) {
			if federatedID != "g-999" {
				t.Errorf("federatedID = %q, want %q", federatedID, "g-999")
			}
			return &service.AuthResult{Token: "tok-456", AccountID: "acc-1"}, nil
		},
	}
	router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})

	rec := doJSON(t, router, http.MethodPost, "/api/auth/google", `{"name":"Ann","email":"a@x.com","googleId":"g-999"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Token != "tok-456" {
		t.Errorf("token = %q, want %q", resp.Token, "tok-456")
	}
}

func TestGoogleLogin_StoreError(t *testing.T) {
	auth := &stubAuth{
		federated: func(ctx context.Context, name, email, federatedID string) (*service.AuthResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	router := newTestRouter(auth, &stubAccounts{}, &stubVerifier{})

	rec := doJSON(t, router, http.MethodPost, "/api/auth/google", `{"name":"Ann","email":"a@x.com","googleId":"g-999"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestMe_ReturnsAccount(t *testing.T) {
	accounts := &stubAccounts{account: &domain.Account{ID: "acc-1", Email: "a@x.com", Name: "Ann", PasswordHash: "$2a$04$x"}}
	router := newTestRouter(&stubAuth{}, accounts, &stubVerifier{subject: "acc-1"})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var resp accountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.ID != "acc-1" || resp.Email != "a@x.com" || resp.Name != "Ann" {
		t.Errorf("account = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("password hash must never appear in a response")
	}
}

func TestMe_Unauthorized(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		verifier *stubVerifier
		accounts *stubAccounts
	}{
		{"missing header", "", &stubVerifier{subject: "acc-1"}, &stubAccounts{}},
		{"not bearer", "Basic abc", &stubVerifier{subject: "acc-1"}, &stubAccounts{}},
		{"invalid token", "Bearer bad", &stubVerifier{err: errors.New("invalid token")}, &stubAccounts{}},
		{"unknown subject", "Bearer ok", &stubVerifier{subject: "gone"}, &stubAccounts{account: nil}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubAuth{}, tc.accounts, tc.verifier)
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
