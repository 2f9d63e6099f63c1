package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"destinpq/internal/chatbot"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Chat event names.
const (
	EventSession   = "session"
	EventMessage   = "message"
	EventEmail     = "email"
	EventSchedule  = "schedule"
	EventTyping    = "typing"
	EventState     = "state"
	EventError     = "error"
	EventHeartbeat = "heartbeat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// InboundEvent is a frame sent by the visitor.
type InboundEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// OutboundEvent is a frame sent to the visitor.
type OutboundEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type emailPayload struct {
	Email string `json:"email"`
}

type schedulePayload struct {
	Schedule string `json:"schedule"`
}

type typingPayload struct {
	Typing bool `json:"typing"`
}

type statePayload struct {
	State string `json:"state"`
}

type sessionPayload struct {
	ID string `json:"id"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// chatHub owns the open chat sessions, one bot per connection.
type chatHub struct {
	newBot func() *chatbot.Bot
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[*chatSession]struct{}
	wg       sync.WaitGroup
}

func newChatHub(newBot func() *chatbot.Bot, logger *zap.Logger) *chatHub {
	return &chatHub{
		newBot:   newBot,
		logger:   logger.Named("chat"),
		sessions: make(map[*chatSession]struct{}),
	}
}

func (h *chatHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := newChatSession(conn, h.newBot(), h.logger)
	h.mu.Lock()
	h.sessions[sess] = struct{}{}
	h.mu.Unlock()
	sess.logger.Info("chat session opened", zap.String("remote", r.RemoteAddr))

	h.wg.Add(3)
	go func() {
		defer h.wg.Done()
		sess.writePump()
	}()
	go func() {
		defer h.wg.Done()
		sess.replyLoop()
	}()
	go func() {
		defer h.wg.Done()
		sess.readPump()
		h.mu.Lock()
		delete(h.sessions, sess)
		h.mu.Unlock()
		sess.logger.Info("chat session closed")
	}()
}

// close disconnects every session and waits for their goroutines.
func (h *chatHub) close() {
	h.mu.Lock()
	for sess := range h.sessions {
		_ = sess.conn.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

type chatSession struct {
	id     string
	conn   *websocket.Conn
	bot    *chatbot.Bot
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	send       chan []byte
	replies    chan struct{}
	writerDone chan struct{}
	replyDone  chan struct{}
}

func newChatSession(conn *websocket.Conn, bot *chatbot.Bot, logger *zap.Logger) *chatSession {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &chatSession{
		id:         id,
		conn:       conn,
		bot:        bot,
		logger:     logger.With(zap.String("session", id)),
		ctx:        ctx,
		cancel:     cancel,
		send:       make(chan []byte, 256),
		replies:    make(chan struct{}, 32),
		writerDone: make(chan struct{}),
		replyDone:  make(chan struct{}),
	}
}

// readPump owns the session: when the peer goes away it stops the reply
// loop, waits for forwarded messages and then stops the writer.
func (s *chatSession) readPump() {
	defer func() {
		s.cancel()
		close(s.replies)
		<-s.replyDone
		s.bot.Close()
		close(s.send)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.emit(EventSession, sessionPayload{ID: s.id})
	s.emit(EventMessage, s.bot.Start())
	s.emitState()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("chat read failed", zap.Error(err))
			}
			return
		}

		var ev InboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.emitError(fmt.Errorf("malformed event: %w", err))
			continue
		}
		s.handle(ev)
	}
}

func (s *chatSession) handle(ev InboundEvent) {
	switch ev.Event {
	case EventMessage:
		var p textPayload
		if err := decodePayload(ev.Payload, &p); err != nil {
			s.emitError(err)
			return
		}
		msg, err := s.bot.Accept(p.Text)
		if err != nil {
			s.emitError(err)
			return
		}
		s.emit(EventMessage, msg)
		s.replies <- struct{}{}

	case EventEmail:
		var p emailPayload
		if err := decodePayload(ev.Payload, &p); err != nil {
			s.emitError(err)
			return
		}
		msg, err := s.bot.SubmitEmail(p.Email)
		if err != nil {
			s.emitError(err)
			return
		}
		s.emit(EventMessage, msg)
		s.emitState()

	case EventSchedule:
		var p schedulePayload
		if err := decodePayload(ev.Payload, &p); err != nil {
			s.emitError(err)
			return
		}
		msg, err := s.bot.SubmitSchedule(p.Schedule)
		if err != nil {
			s.emitError(err)
			return
		}
		s.emit(EventMessage, msg)
		s.emitState()

	case EventHeartbeat:
		s.emit(EventHeartbeat, struct{}{})

	default:
		s.emitError(fmt.Errorf("unknown event %q", ev.Event))
	}
}

// replyLoop delivers bot replies in order, each framed by typing events.
func (s *chatSession) replyLoop() {
	defer close(s.replyDone)
	for range s.replies {
		s.emit(EventTyping, typingPayload{Typing: true})
		msg, err := s.bot.Reply(s.ctx)
		s.emit(EventTyping, typingPayload{Typing: false})
		if err != nil {
			continue
		}
		s.emit(EventMessage, msg)
		s.emitState()
	}
}

func (s *chatSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		close(s.writerDone)
	}()
	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *chatSession) emit(event string, payload any) {
	data, err := json.Marshal(OutboundEvent{Event: event, Payload: payload})
	if err != nil {
		s.logger.Error("failed to encode chat event", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case s.send <- data:
	case <-s.writerDone:
	}
}

func (s *chatSession) emitState() {
	s.emit(EventState, statePayload{State: s.bot.State().String()})
}

func (s *chatSession) emitError(err error) {
	s.emit(EventError, errorPayload{Error: err.Error()})
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
