package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
)

const testUserID = "5b0c6c1e-6f7a-4a53-9a64-0e4b6f3d2a11"

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(zerolog.Nop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		_ = hub.HandleRequest(w, r, q.Get("userID"), q.Get("accountID"))
	}))
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	before := hub.Len()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Len() == before+1 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func subscribers(hub *Hub, accountID string) int {
	sessions, err := hub.m.Sessions()
	if err != nil {
		return 0
	}
	n := 0
	for _, s := range sessions {
		if subs := sessionSubscriptions(s); subs != nil && subs.has(accountID) {
			n++
		}
	}
	return n
}

func readUpdate(t *testing.T, conn *websocket.Conn) dto.SummaryUpdateMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg dto.SummaryUpdateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func update(accountID string, seq int64) *domain.SummaryUpdate {
	return &domain.SummaryUpdate{
		AccountID: accountID,
		Sequence:  seq,
		Summary:   domain.Aggregate(accountID, nil),
	}
}

func TestBroadcastToSubscribedSession(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, hub, srv, "userID="+testUserID+"&accountID=A1")

	hub.Broadcast(update("A1", 1))

	msg := readUpdate(t, conn)
	assert.Equal(t, dto.MessageTransactionUpdate, msg.Type)
	assert.Equal(t, "A1", msg.AccountID)
	assert.Equal(t, int64(1), msg.Sequence)
	require.NotNil(t, msg.Summary)
	assert.Equal(t, "A1", msg.Summary.AccountID)
}

func TestBroadcastDropsStaleSequences(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, hub, srv, "userID="+testUserID+"&accountID=A1")

	hub.Broadcast(update("A1", 5))
	assert.Equal(t, int64(5), readUpdate(t, conn).Sequence)

	hub.Broadcast(update("A1", 3))
	hub.Broadcast(update("A1", 5))
	hub.Broadcast(update("A1", 6))

	assert.Equal(t, int64(6), readUpdate(t, conn).Sequence)
}

func TestBroadcastSkipsOtherAccounts(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, hub, srv, "userID="+testUserID+"&accountID=A1")

	hub.Broadcast(update("B2", 1))
	hub.Broadcast(update("A1", 1))

	assert.Equal(t, "A1", readUpdate(t, conn).AccountID)
}

func TestSubscribeAndUnsubscribeMessages(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, hub, srv, "userID="+testUserID)

	require.NoError(t, conn.WriteJSON(dto.ClientMessage{Type: dto.ClientMessageSubscribe, AccountID: "B2"}))
	require.Eventually(t, func() bool { return subscribers(hub, "B2") == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Broadcast(update("B2", 1))
	assert.Equal(t, "B2", readUpdate(t, conn).AccountID)

	require.NoError(t, conn.WriteJSON(dto.ClientMessage{Type: dto.ClientMessageUnsubscribe, AccountID: "B2"}))
	require.Eventually(t, func() bool { return subscribers(hub, "B2") == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestRejectedMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "malformed", raw: "{", want: "malformed message"},
		{name: "unknown type", raw: `{"type":"ping"}`, want: "unknown message type"},
		{name: "missing account", raw: `{"type":"subscribe"}`, want: "account_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub, srv := newTestHub(t)
			conn := dial(t, hub, srv, "userID="+testUserID)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)))
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

			var msg dto.ErrorMessage
			_, raw, err := conn.ReadMessage()
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, dto.MessageError, msg.Type)
			assert.Equal(t, tt.want, msg.Message)
		})
	}
}

func TestSubscriptionsAdvance(t *testing.T) {
	subs := newSubscriptions()

	subscribed, newer := subs.advance("A1", 1)
	assert.False(t, subscribed)
	assert.False(t, newer)

	subs.add("A1")
	subs.add("A1")

	_, newer = subs.advance("A1", 2)
	assert.True(t, newer)
	_, newer = subs.advance("A1", 2)
	assert.False(t, newer)

	// Re-subscribing keeps the last delivered sequence.
	subs.add("A1")
	_, newer = subs.advance("A1", 1)
	assert.False(t, newer)
}
