// Package api wires the request/response plumbing around the relay core:
// credential issuance, contact management, history reads and health.
package api

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"
)

type Server struct {
	log           *slog.Logger
	authService   services.IAuthService
	chatService   services.IChatService
	authenticator auth.IAuthenticator
	monitor       *observability.Monitor
}

func NewServer(log *slog.Logger, authService services.IAuthService,
	chatService services.IChatService, authenticator auth.IAuthenticator,
	monitor *observability.Monitor) *Server {
	return &Server{
		log:           log,
		authService:   authService,
		chatService:   chatService,
		authenticator: authenticator,
		monitor:       monitor,
	}
}

// Routes assembles the mux. The live-connection handler is passed in so
// transport wiring stays in main.
func (s *Server) Routes(liveHandler http.Handler, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", RequireAuth(s.authenticator, s.handleLogout))
	mux.HandleFunc("GET /api/auth/me", RequireAuth(s.authenticator, s.handleMe))
	mux.HandleFunc("POST /api/auth/add-contact", RequireAuth(s.authenticator, s.handleAddContact))
	mux.HandleFunc("GET /api/chat/messages/{peer}", RequireAuth(s.authenticator, s.handleHistory))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /ws", liveHandler)

	return CORS(allowedOrigins, RequestLogging(s.log, mux))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Contacts []repositories.Contact `json:"contacts"`
}

func toUserResponse(user repositories.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email, Contacts: user.Contacts}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := s.authService.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "user registered",
		"token":   token.String(),
		"user":    toUserResponse(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token.String(),
		"user":    toUserResponse(user),
	})
}

// handleLogout is a stateless acknowledgement: tokens expire on their own
// and live sessions end when the connection closes.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out successfully",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.authService.Me(UserID(r.Context()))
	if err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserResponse(user),
	})
}

type addContactRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var req addContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "contact email is required")
		return
	}

	user, err := s.authService.AddContact(UserID(r.Context()), req.Email)
	if err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "contact added",
		"user":    toUserResponse(user),
	})
}

// handleHistory returns the ordered conversation between the caller and
// the peer, in both directions.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	peer := r.PathValue("peer")
	if peer == "" {
		writeError(w, http.StatusBadRequest, "peer is required")
		return
	}

	messages, err := s.chatService.History(UserID(r.Context()), peer)
	if err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "OK",
		"stats":  s.monitor.GetLatest(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
