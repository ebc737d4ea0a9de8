package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type hubStub struct {
	called    bool
	userID    string
	accountID string
	err       error
}

func (h *hubStub) HandleRequest(w http.ResponseWriter, r *http.Request, userID, accountID string) error {
	h.called = true
	h.userID = userID
	h.accountID = accountID
	return h.err
}

func TestWebSocketHandler_Connect(t *testing.T) {
	const userID = "5b0c6c1e-6f7a-4a53-9a64-0e4b6f3d2a11"

	tests := []struct {
		name       string
		query      string
		wantCalled bool
		wantStatus int
	}{
		{name: "user only", query: "userID=" + userID, wantCalled: true, wantStatus: http.StatusOK},
		{name: "user and account", query: "userID=" + userID + "&accountID=01ARZ3NDEKTSV4RRFFQ69G5FAV", wantCalled: true, wantStatus: http.StatusOK},
		{name: "missing user", query: "", wantStatus: http.StatusBadRequest},
		{name: "user not a uuid", query: "userID=bob", wantStatus: http.StatusBadRequest},
		{name: "bad account", query: "userID=" + userID + "&accountID=../../etc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := &hubStub{}
			rec := httptest.NewRecorder()

			NewWebSocketHandler(hub).Connect(rec, httptest.NewRequest(http.MethodGet, "/ws?"+tt.query, nil))

			if hub.called != tt.wantCalled {
				t.Fatalf("hub called = %v, want %v", hub.called, tt.wantCalled)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantCalled && hub.userID != userID {
				t.Fatalf("expected user id to be forwarded, got %q", hub.userID)
			}
		})
	}
}

func TestWebSocketHandler_UpgradeErrorIsLogged(t *testing.T) {
	hub := &hubStub{err: errors.New("not a websocket handshake")}
	rec := httptest.NewRecorder()

	NewWebSocketHandler(hub).Connect(rec, httptest.NewRequest(http.MethodGet, "/ws?userID=5b0c6c1e-6f7a-4a53-9a64-0e4b6f3d2a11", nil))

	if !hub.called {
		t.Fatal("expected hub to be called")
	}
}
