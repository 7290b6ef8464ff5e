package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "frontdesk/pkg/errors"
	httputil "frontdesk/pkg/http"
)

const ReplayedHeader = "Idempotent-Replayed"

// IdempotencyStore remembers successful responses per key. Reserve marks a key
// as in flight so a concurrent retry is turned away instead of running twice.
type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Reserve(key string) bool
	Set(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	done     map[string]*CachedResponse
	inflight map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		done:     make(map[string]*CachedResponse),
		inflight: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response, ok := s.done[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(response.CreatedAt) > s.ttl {
		delete(s.done, key)
		return nil, false
	}
	return response, true
}

// Reserve fails while another request holds key or a cached response exists.
// A reservation older than ttl is considered abandoned.
func (s *InMemoryIdempotencyStore) Reserve(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if response, ok := s.done[key]; ok && now.Sub(response.CreatedAt) <= s.ttl {
		return false
	}
	if since, ok := s.inflight[key]; ok && now.Sub(since) <= s.ttl {
		return false
	}
	s.inflight[key] = now
	return true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = s.now()
	s.done[key] = response
	delete(s.inflight, key)
}

func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, response := range s.done {
		if now.Sub(response.CreatedAt) > s.ttl {
			delete(s.done, key)
		}
	}
	for key, since := range s.inflight {
		if now.Sub(since) > s.ttl {
			delete(s.inflight, key)
		}
	}
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response for a repeated key. Only
// successful responses are kept, so a rejected booking can be retried.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := store.Get(key); ok {
				replay(w, cached)
				return
			}
			if !store.Reserve(key) {
				_ = httputil.WriteError(w, apperrors.New(apperrors.CodeConflict,
					"A request with this idempotency key is already in progress", http.StatusConflict))
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				store.Release(key)
				return
			}
			store.Set(key, &CachedResponse{
				StatusCode: capture.statusCode,
				Headers:    w.Header().Clone(),
				Body:       capture.body.Bytes(),
			})
		})
	}
}

// idempotencyKey scopes the client key to the caller and route so two actors
// reusing a key never see each other's responses.
func idempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" || r.Method == http.MethodGet {
		return ""
	}
	actorID := ""
	if actor, ok := ActorFrom(r.Context()); ok {
		actorID = actor.ID
	}
	return strings.Join([]string{actorID, r.Method, r.URL.Path, key}, "|")
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
