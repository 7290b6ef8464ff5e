package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

func TestActor(t *testing.T) {
	var seen model.Actor
	handler := Actor("/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
		wantRole   string
	}{
		{
			name:       "missing identity",
			path:       "/api/v1/appointments",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "public path",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "blocked account",
			path:       "/api/v1/appointments",
			headers:    map[string]string{ActorIDHeader: "u1", ActorStatusHeader: model.StatusBlocked},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "role defaults to employee",
			path:       "/api/v1/appointments",
			headers:    map[string]string{ActorIDHeader: "u1"},
			wantStatus: http.StatusOK,
			wantRole:   model.RoleEmployee,
		},
		{
			name:       "receptionist",
			path:       "/api/v1/appointments",
			headers:    map[string]string{ActorIDHeader: "r1", ActorRoleHeader: model.RoleReceptionist},
			wantStatus: http.StatusOK,
			wantRole:   model.RoleReceptionist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = model.Actor{}
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantRole != "" && seen.Role != tt.wantRole {
				t.Errorf("expected role %q, got %q", tt.wantRole, seen.Role)
			}
		})
	}
}

func TestIdempotency_ScopedPerActor(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Actor()(Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"n":1}`))
	})))

	send := func(actorID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		req.Header.Set(ActorIDHeader, actorID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	send("a")
	replay := send("a")
	send("b")

	if calls != 2 {
		t.Errorf("expected 2 handler calls (one per actor), got %d", calls)
	}
	if replay.Code != http.StatusCreated || replay.Body.String() != `{"n":1}` {
		t.Errorf("unexpected replay: %d %s", replay.Code, replay.Body.String())
	}
}

func TestIdempotency_InFlightDuplicateRejected(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	entered := make(chan struct{})
	release := make(chan struct{})
	handler := Actor()(Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	})))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		req.Header.Set(ActorIDHeader, "a")
		return req
	}

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(first, newReq())
		close(done)
	}()
	<-entered

	dup := httptest.NewRecorder()
	handler.ServeHTTP(dup, newReq())
	if dup.Code != http.StatusConflict {
		t.Errorf("expected 409 for in-flight duplicate, got %d", dup.Code)
	}

	close(release)
	<-done

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, newReq())
	if replay.Code != http.StatusCreated || replay.Header().Get(ReplayedHeader) != "true" {
		t.Errorf("expected replayed 201, got %d (replayed=%q)", replay.Code, replay.Header().Get(ReplayedHeader))
	}
}

func TestIdempotency_FailureIsNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Actor()(Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})))

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		req.Header.Set(ActorIDHeader, "a")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Errorf("expected the rejected request to be retried, got %d calls", calls)
	}
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if !store.Reserve("k") {
		t.Fatal("expected first reservation to succeed")
	}
	if store.Reserve("k") {
		t.Fatal("expected second reservation to fail")
	}

	now = now.Add(2 * time.Minute)
	if !store.Reserve("k") {
		t.Fatal("expected abandoned reservation to expire")
	}
	store.Set("k", &CachedResponse{StatusCode: http.StatusCreated})
	if _, ok := store.Get("k"); !ok {
		t.Fatal("expected cached response")
	}

	now = now.Add(2 * time.Minute)
	store.sweep()
	if _, ok := store.Get("k"); ok {
		t.Error("expected cached response to expire")
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var got string
	handler := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != "req-42" {
		t.Errorf("expected request id req-42, got %q", got)
	}
	if rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Errorf("expected request id echoed in response header")
	}
}

func TestContentTypeValidation(t *testing.T) {
	handler := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
