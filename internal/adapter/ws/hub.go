// Package ws pushes live summary updates to browser sessions.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/olahol/melody"
	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

const (
	keyUserID        = "user_id"
	keySubscriptions = "subscriptions"

	maxMessageSize = 4096
)

// subscriptions maps account IDs to the last sequence delivered to one session.
type subscriptions struct {
	mu       sync.Mutex
	accounts map[string]int64
}

func newSubscriptions() *subscriptions {
	return &subscriptions{accounts: make(map[string]int64)}
}

func (s *subscriptions) add(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		s.accounts[accountID] = 0
	}
}

func (s *subscriptions) remove(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, accountID)
}

func (s *subscriptions) has(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[accountID]
	return ok
}

// advance records seq for accountID if it is newer than anything delivered so far.
func (s *subscriptions) advance(accountID string, seq int64) (subscribed, newer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.accounts[accountID]
	if !ok {
		return false, false
	}
	if seq <= last {
		return true, false
	}
	s.accounts[accountID] = seq
	return true, true
}

// Hub tracks websocket sessions and the accounts each one follows.
type Hub struct {
	m       *melody.Melody
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHub creates a Hub.
func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	mel := melody.New()
	mel.Config.MaxMessageSize = maxMessageSize
	mel.Config.PingPeriod = 30 * time.Second
	mel.Config.PongWait = 60 * time.Second

	h := &Hub{m: mel, metrics: m, logger: logger.With().Str("component", "ws").Logger()}
	mel.HandleConnect(h.handleConnect)
	mel.HandleDisconnect(h.handleDisconnect)
	mel.HandleMessage(h.handleMessage)
	mel.HandleError(func(s *melody.Session, err error) {
		h.logger.Debug().Err(err).Str("user_id", userID(s)).Msg("websocket error")
	})
	return h
}

// HandleRequest upgrades the request for an already validated user. A non-empty
// accountID subscribes the session right away.
func (h *Hub) HandleRequest(w http.ResponseWriter, r *http.Request, userID, accountID string) error {
	subs := newSubscriptions()
	if accountID != "" {
		subs.add(accountID)
	}
	return h.m.HandleRequestWithKeys(w, r, map[string]any{
		keyUserID:        userID,
		keySubscriptions: subs,
	})
}

// Broadcast delivers update to every session subscribed to its account, unless the
// session has already seen the same or a newer sequence.
func (h *Hub) Broadcast(update *domain.SummaryUpdate) {
	msg, err := json.Marshal(dto.SummaryUpdateFromDomain(update))
	if err != nil {
		h.logger.Error().Err(err).Str("account_id", update.AccountID).Msg("failed to encode summary update")
		return
	}

	sessions, err := h.m.Sessions()
	if err != nil {
		h.logger.Debug().Err(err).Msg("hub closed, dropping update")
		return
	}

	for _, s := range sessions {
		subs := sessionSubscriptions(s)
		if subs == nil {
			continue
		}
		subscribed, newer := subs.advance(update.AccountID, update.Sequence)
		if !subscribed {
			continue
		}
		if !newer {
			if h.metrics != nil {
				h.metrics.UpdatesDropped.Inc()
			}
			continue
		}
		if err := s.Write(msg); err != nil {
			h.logger.Debug().Err(err).Str("user_id", userID(s)).Msg("failed to push update")
			continue
		}
		if h.metrics != nil {
			h.metrics.UpdatesPushed.Inc()
		}
	}
}

// Len returns the number of connected sessions.
func (h *Hub) Len() int {
	return h.m.Len()
}

// Close disconnects every session.
func (h *Hub) Close() error {
	return h.m.Close()
}

func (h *Hub) handleConnect(s *melody.Session) {
	if h.metrics != nil {
		h.metrics.WSSessions.Inc()
	}
	h.logger.Debug().Str("user_id", userID(s)).Msg("websocket connected")
}

func (h *Hub) handleDisconnect(s *melody.Session) {
	if h.metrics != nil {
		h.metrics.WSSessions.Dec()
	}
	h.logger.Debug().Str("user_id", userID(s)).Msg("websocket disconnected")
}

func (h *Hub) handleMessage(s *melody.Session, raw []byte) {
	subs := sessionSubscriptions(s)
	if subs == nil {
		return
	}

	var msg dto.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.reply(s, "malformed message")
		return
	}

	switch {
	case msg.Type != dto.ClientMessageSubscribe && msg.Type != dto.ClientMessageUnsubscribe:
		h.reply(s, "unknown message type")
	case msg.AccountID == "":
		h.reply(s, "account_id is required")
	case msg.Type == dto.ClientMessageSubscribe:
		subs.add(msg.AccountID)
	default:
		subs.remove(msg.AccountID)
	}
}

func (h *Hub) reply(s *melody.Session, message string) {
	raw, _ := json.Marshal(dto.ErrorMessage{Type: dto.MessageError, Message: message})
	_ = s.Write(raw)
}

func sessionSubscriptions(s *melody.Session) *subscriptions {
	v, ok := s.Get(keySubscriptions)
	if !ok {
		return nil
	}
	subs, _ := v.(*subscriptions)
	return subs
}

func userID(s *melody.Session) string {
	v, _ := s.Get(keyUserID)
	id, _ := v.(string)
	return id
}
