package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/domain"
)

// SessionHub upgrades validated websocket requests.
type SessionHub interface {
	HandleRequest(w http.ResponseWriter, r *http.Request, userID, accountID string) error
}

// WebSocketHandler validates the client identity before handing the connection to the hub.
type WebSocketHandler struct {
	hub SessionHub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub SessionHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Connect handles GET /ws?userID={uuid}[&accountID=...].
func (h *WebSocketHandler) Connect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userID")
	if err := domain.ValidateUserID(userID); err != nil {
		respondError(w, r, err, "invalid userID")
		return
	}

	accountID := q.Get("accountID")
	if accountID != "" {
		if err := domain.ValidateID(accountID); err != nil {
			respondError(w, r, err, "invalid accountID")
			return
		}
	}

	if err := h.hub.HandleRequest(w, r, userID, accountID); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
	}
}
