package live

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Presence is told when an actor's session subscribes and when it ends.
type Presence interface {
	Join(ctx context.Context, actorID string) error
	Leave(ctx context.Context, actorID string) error
}

// Gateway upgrades /ws requests and runs one Session per connection.
type Gateway struct {
	feed      ChangeFeed
	history   History
	messages  MessageSender
	presence  Presence
	window    time.Duration
	queueSize int
	log       *logger.Logger
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewGateway(feed ChangeFeed, history History, messages MessageSender, presence Presence, cfg *config.Config) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		feed:      feed,
		history:   history,
		messages:  messages,
		presence:  presence,
		window:    cfg.LiveHistoryWindow,
		queueSize: cfg.LiveSendQueue,
		log:       cfg.Log.Component("live-gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.LiveOrigins),
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// originChecker admits same-host and listed origins, and requests with no
// Origin header. Anything else fails the upgrade with 403.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(strings.TrimSuffix(origin, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("missing actor identity")); writeErr != nil {
			g.log.Error("failed to write error response", "handler", "Serve", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "actor_id", actor.ID, "error", err)
		return
	}

	session := g.newSession(actor, conn)
	g.register(session)
	g.wg.Add(1)
	defer func() {
		g.unregister(session)
		g.wg.Done()
	}()

	g.log.Info("Live session opened", "session_id", session.id, "actor_id", actor.ID)
	session.Run()
	g.log.Info("Live session closed", "session_id", session.id, "actor_id", actor.ID)
}

func (g *Gateway) newSession(actor model.Actor, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(middleware.WithActor(g.ctx, actor))
	session := &Session{
		id:       uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
		actor:    actor,
		conn:     conn,
		send:     make(chan []byte, g.queueSize),
		messages: g.messages,
		now:      time.Now,
	}
	session.log = g.log.With("session_id", session.id, "actor_id", actor.ID)
	session.router = NewRouter(actor.ID, g.feed, g.history, g.window, func(d Delivery) { session.Push(d) }, session.log)
	session.router.OnSubscribed(func() {
		if err := g.presence.Join(g.ctx, actor.ID); err != nil {
			session.log.Warn("Failed to announce presence", "error", err)
		}
	})
	return session
}

func (g *Gateway) register(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[s.id] = s
}

func (g *Gateway) unregister(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s.id)
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := g.presence.Leave(ctx, s.actor.ID); err != nil {
		s.log.Warn("Failed to withdraw presence", "error", err)
	}
}

// BroadcastPresence pushes the current member list to every session.
func (g *Gateway) BroadcastPresence(members []string) {
	frame := presenceFrame{Type: FramePresence, Members: members}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, s := range g.sessions {
		s.Push(frame)
	}
}

// Sessions reports the number of open sessions.
func (g *Gateway) Sessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// Close ends every session and waits for them to drain.
func (g *Gateway) Close() {
	g.cancel()
	g.wg.Wait()
}

func (g *Gateway) RegisterRoutes(router *httprouter.Router) {
	router.GET("/ws", g.Serve)
}
