// Package handler exposes the auth service over the HTTP/JSON boundary and
// maps its closed error taxonomy to status codes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"auth-service/internal/account/domain"
	"auth-service/internal/identity/service"
)

// AuthService is the minimal auth surface needed by the HTTP handlers.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	FederatedLogin(ctx context.Context, name, email, federatedID string) (*service.AuthResult, error)
}

// AccountGetter is the account lookup needed by the /me endpoint.
type AccountGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// TokenVerifier verifies a bearer token and returns its subject account ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Server holds the HTTP handlers for signup, login, federated login, and the
// token-protected account lookup.
type Server struct {
	auth     AuthService
	accounts AccountGetter
	tokens   TokenVerifier
}

// NewServer returns a new auth HTTP server.
func NewServer(auth AuthService, accounts AccountGetter, tokens TokenVerifier) *Server {
	return &Server{auth: auth, accounts: accounts, tokens: tokens}
}

// Register mounts the auth routes on the router.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/api/auth/signup", s.Signup).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/google", s.GoogleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", s.Me).Methods(http.MethodGet)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	GoogleID string `json:"googleId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Signup creates a password account. 201 on success; 409 when the email is
// already registered.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "account created successfully"})
}

// Login authenticates with email and password and returns a session token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

// GoogleLogin reconciles a Google identity assertion with the account records
// and returns a session token. Unknown emails get an account on demand.
func (s *Server) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.auth.FederatedLogin(r.Context(), req.Name, req.Email, req.GoogleID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

// Me returns the account identified by the Bearer token. Any token failure,
// including a subject that no longer resolves, is the same 401.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	token := extractBearer(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "missing or invalid authorization"})
		return
	}
	subjectID, err := s.tokens.Verify(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "missing or invalid authorization"})
		return
	}
	account, err := s.accounts.GetByID(r.Context(), subjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "missing or invalid authorization"})
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{ID: account.ID, Email: account.Email, Name: account.Name})
}

// writeError maps service errors to status codes. Anything outside the closed
// taxonomy is an infrastructure failure: logged server-side, opaque 500 to
// the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	case errors.Is(err, service.ErrAccountExists):
		writeJSON(w, http.StatusConflict, messageResponse{Message: "account already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "invalid credentials"})
	default:
		log.Printf("auth: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("auth: write response: %v", err)
	}
}

const bearerPrefix = "bearer "

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
