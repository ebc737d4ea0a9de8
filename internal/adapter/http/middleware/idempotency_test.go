package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/txsummary/internal/usecase"
	"github.com/iho/txsummary/internal/usecase/mocks"
)

func serveIdempotent(t *testing.T, store usecase.IdempotencyStore, method, key string, handler http.HandlerFunc) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	req := httptest.NewRequest(method, "/api/accounts", bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rr := httptest.NewRecorder()

	called := false
	NewIdempotencyMiddleware(store, 0).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		handler(w, r)
	})).ServeHTTP(rr, req)
	return rr, called
}

func created(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"id":"A1"}`))
}

func TestIdempotencyMiddleware_StoresSuccessfulResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", nil, usecase.DefaultIdempotencyTTL).Return(false, nil, nil)
	store.EXPECT().Update(gomock.Any(), "key-1", []byte(`{"id":"A1"}`), usecase.DefaultIdempotencyTTL).Return(nil)

	rr, called := serveIdempotent(t, store, http.MethodPost, "key-1", created)
	if !called || rr.Code != http.StatusCreated {
		t.Fatalf("expected handler to run, got called=%v code=%d", called, rr.Code)
	}
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", nil, gomock.Any()).Return(true, []byte(`{"id":"A1"}`), nil)

	rr, called := serveIdempotent(t, store, http.MethodPost, "key-1", created)
	if called {
		t.Fatal("handler must not run on replay")
	}
	if rr.Header().Get("X-Idempotency-Replay") != "true" || rr.Body.String() != `{"id":"A1"}` {
		t.Fatalf("unexpected replay: headers=%v body=%s", rr.Header(), rr.Body.String())
	}
}

func TestIdempotencyMiddleware_InFlightConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", nil, gomock.Any()).Return(true, nil, nil)

	rr, called := serveIdempotent(t, store, http.MethodPost, "key-1", created)
	if called || rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 without calling handler, got called=%v code=%d", called, rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-fail", nil, gomock.Any()).Return(false, nil, nil)
	store.EXPECT().Release(gomock.Any(), "key-fail").Return(nil)

	rr, _ := serveIdempotent(t, store, http.MethodPost, "key-fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-err", nil, gomock.Any()).Return(false, nil, context.DeadlineExceeded)

	rr, called := serveIdempotent(t, store, http.MethodPost, "key-err", created)
	if called || rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without calling handler, got called=%v code=%d", called, rr.Code)
	}
}

func TestIdempotencyMiddleware_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		key    string
	}{
		{name: "get request", method: http.MethodGet, key: "key-1"},
		{name: "post without key", method: http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockIdempotencyStore(ctrl)

			_, called := serveIdempotent(t, store, tt.method, tt.key, created)
			if !called {
				t.Fatal("expected handler to be called")
			}
		})
	}
}

func TestIdempotencyMiddleware_UpdateErrorIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "key-1", nil, gomock.Any()).Return(false, nil, nil)
	store.EXPECT().Update(gomock.Any(), "key-1", gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	rr, _ := serveIdempotent(t, store, http.MethodPost, "key-1", created)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected handler response to pass through, got %d", rr.Code)
	}
}
