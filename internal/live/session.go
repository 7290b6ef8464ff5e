package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 16 * 1024
)

// Inbound frame types.
const (
	FrameSend    = "send"
	FrameSurface = "surface"
)

// Outbound frame types besides deliveries.
const (
	FramePresence = "presence"
	FrameError    = "error"
)

type inboundFrame struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id,omitempty"`
	Content     string `json:"content,omitempty"`
	Surface     string `json:"surface,omitempty"`
	PeerID      string `json:"peer_id,omitempty"`
}

type presenceFrame struct {
	Type    string   `json:"type"`
	Members []string `json:"members"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	TempKey string `json:"temp_key,omitempty"`
}

type MessageSender interface {
	Send(ctx context.Context, actor model.Actor, message *model.Message) error
}

// Session is one websocket connection. All writes go through a single writer
// goroutine fed by a bounded queue; a client that cannot keep up is dropped.
type Session struct {
	id       string
	actor    model.Actor
	conn     *websocket.Conn
	send     chan []byte
	router   *Router
	messages MessageSender
	log      *logger.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Actor() model.Actor {
	return s.actor
}

// Run serves the connection until the client leaves or the session is cancelled.
func (s *Session) Run() {
	ctx := s.ctx
	defer s.cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := s.router.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("Live router stopped", "error", err)
		}
	}()

	s.readLoop(ctx)
	s.cancel()
	wg.Wait()
}

// Push marshals v and queues it for the writer.
func (s *Session) Push(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Failed to encode live frame", "error", err)
		return
	}
	select {
	case s.send <- payload:
	default:
		s.once.Do(func() {
			s.log.Warn("Live send queue full, dropping session", "queue", cap(s.send))
			s.cancel()
		})
	}
}

func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				s.log.Info("Live connection closed", "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.Push(errorFrame{Type: FrameError, Code: apperrors.CodeInvalidInput, Message: "Invalid frame"})
			continue
		}
		s.handle(ctx, frame)
	}
}

func (s *Session) handle(ctx context.Context, frame inboundFrame) {
	switch frame.Type {
	case FrameSurface:
		s.router.SetSurface(frame.Surface, frame.PeerID)
	case FrameSend:
		s.sendMessage(ctx, frame)
	default:
		s.Push(errorFrame{Type: FrameError, Code: apperrors.CodeInvalidInput, Message: "Unknown frame type: " + frame.Type})
	}
}

func (s *Session) sendMessage(ctx context.Context, frame inboundFrame) {
	message := &model.Message{
		SenderID:    s.actor.ID,
		RecipientID: frame.RecipientID,
		Content:     frame.Content,
		CreatedAt:   s.now().UTC(),
	}
	echo := *message
	local := s.router.AddLocal(&echo)

	if err := s.messages.Send(ctx, s.actor, message); err != nil {
		s.router.Discard(local.TempKey)
		appErr := apperrors.AsAppError(err)
		if appErr == nil {
			appErr = apperrors.Internal("Failed to send message", err)
		}
		s.Push(errorFrame{Type: FrameError, Code: appErr.Code, Message: appErr.Message, TempKey: local.TempKey})
		return
	}
	s.router.Confirm(local.TempKey, message)
}

func (s *Session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Info("Live write failed", "error", err)
				s.cancel()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.cancel()
				return
			}
		}
	}
}
