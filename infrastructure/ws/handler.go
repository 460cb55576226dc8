package ws

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/runtime"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Options bound the per-session transport behavior.
type Options struct {
	BufferSize     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

// Handler runs the live-connection handshake: authenticate the credential,
// upgrade, register the session in the presence registry, pump events, and
// guarantee deregistration on any close path.
type Handler struct {
	log           *slog.Logger
	authenticator auth.IAuthenticator
	relay         *runtime.Relay
	registry      contract.IRegistry
	opts          Options
	upgrader      websocket.Upgrader
}

func NewHandler(log *slog.Logger, authenticator auth.IAuthenticator,
	relay *runtime.Relay, registry contract.IRegistry, opts Options) *Handler {
	return &Handler{
		log:           log,
		authenticator: authenticator,
		relay:         relay,
		registry:      registry,
		opts:          opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return lo.Contains(opts.AllowedOrigins, origin)
			},
		},
	}
}

// ServeHTTP accepts one live connection. The credential is verified before
// the upgrade completes: a failed handshake never reaches the presence
// registry and the client receives the authentication error as the HTTP
// response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticator.Authenticate(bearerCredential(r))
	if err != nil {
		h.log.Warn("Handshake rejected", "error", err)
		status := errors.MapToHTTPStatus(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Warn("Upgrade failed", "user_id", userID, "error", err)
		return
	}

	session := NewSession(conn, userID, h.relay, h.log,
		h.opts.BufferSize, h.opts.PingInterval, h.opts.WriteTimeout, h.opts.MaxMessageSize)

	h.registry.Join(userID, session.ID, session)
	h.log.Info("Session opened", "user_id", userID, "session_id", session.ID)

	defer func() {
		// Leave must run exactly once, even on abrupt disconnect. Idempotent,
		// so a racing snapshot that still sees this session is harmless.
		h.registry.Leave(userID, session.ID)
		h.relay.NotifyDisconnect(r.Context(), userID, session.CallPeer())
		h.log.Info("Session closed", "user_id", userID, "session_id", session.ID)
	}()

	go session.WritePump()
	session.ReadPump(r.Context())
}

// bearerCredential extracts the handshake credential: "?token=" query
// parameter or a standard Authorization header, same format as the HTTP
// login exchange.
func bearerCredential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
