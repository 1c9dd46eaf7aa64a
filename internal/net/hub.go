// Package net is the websocket front door: clients send JSON messages that
// feed the primary world's input, and receive one JSON frame per sync event.
package net

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	coresync "github.com/hexcolony/server/internal/core/sync"
	"github.com/hexcolony/server/internal/message"
)

// Options tune a Hub.
type Options struct {
	TokenHash    string // bcrypt hash of the client token, empty = open
	InQueueSize  int
	OutQueueSize int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Hub accepts websocket clients and bridges them to the tick loop. Poll and
// the sinks are called from the tick goroutine; everything else is safe for
// concurrent use.
type Hub struct {
	opts     Options
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	in     chan message.Message
	joined chan uint64

	mu       sync.RWMutex
	sessions map[uint64]*Session
	closed   bool

	log *zap.Logger
}

func NewHub(opts Options, log *zap.Logger) *Hub {
	if opts.InQueueSize <= 0 {
		opts.InQueueSize = 256
	}
	if opts.OutQueueSize <= 0 {
		opts.OutQueueSize = 512
	}
	return &Hub{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		in:       make(chan message.Message, opts.InQueueSize),
		joined:   make(chan uint64, 64),
		sessions: make(map[uint64]*Session),
		log:      log,
	}
}

// Handler upgrades authorized requests to websocket sessions.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !h.authorized(r) {
			http.Error(rw, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			h.log.Debug("upgrade failed", zap.Error(err))
			return
		}

		id := h.nextID.Add(1)
		sess := newSession(conn, id, h.in, h.opts.OutQueueSize, h.opts.ReadTimeout, h.opts.WriteTimeout, h.log)
		sess.onClose = h.remove

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			sess.Close()
			return
		}
		h.sessions[id] = sess
		h.mu.Unlock()

		sess.Start()
		h.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

		select {
		case h.joined <- id:
		default:
			h.log.Warn("join queue full", zap.Uint64("session", id))
		}
	}
}

func (h *Hub) authorized(r *http.Request) bool {
	if h.opts.TokenHash == "" {
		return true
	}
	token := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.opts.TokenHash), []byte(token)) == nil
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	h.log.Info("client disconnected", zap.Uint64("session", s.ID))
}

// Joined delivers the id of every newly connected session. The tick loop
// answers with a resync written to SessionSink.
func (h *Hub) Joined() <-chan uint64 { return h.joined }

// Poll returns up to max pending ingress messages without blocking;
// max <= 0 drains everything queued.
func (h *Hub) Poll(max int) []message.Message {
	var out []message.Message
	for max <= 0 || len(out) < max {
		select {
		case m := <-h.in:
			out = append(out, m)
		default:
			return out
		}
	}
	return out
}

// Len returns the number of connected sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast queues data on every session.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()
	for _, s := range targets {
		s.Send(data)
	}
}

// Shutdown disconnects every session and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// SinkFor returns the sync sink that broadcasts the events of one world.
func (h *Hub) SinkFor(worldID uint64) coresync.Sink {
	return &hubSink{hub: h, world: worldID}
}

// SessionSink returns a sink that writes the events of one world to a single
// session, or nil when the session is gone.
func (h *Hub) SessionSink(sessionID, worldID uint64) coresync.Sink {
	h.mu.RLock()
	sess, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return &hubSink{hub: h, world: worldID, session: sess}
}

// hubSink broadcasts frames, or sends them to session alone when set.
type hubSink struct {
	hub     *Hub
	world   uint64
	session *Session
}

func (s *hubSink) send(f Frame) {
	if s.session != nil && s.session.IsClosed() {
		return
	}
	if s.session == nil && s.hub.Len() == 0 {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		s.hub.log.Error("encode frame", zap.Error(err))
		return
	}
	if s.session != nil {
		s.session.Send(raw)
		return
	}
	s.hub.Broadcast(raw)
}

func (s *hubSink) component(op coresync.Op, ev coresync.ComponentEvent, withData bool) {
	f, err := componentFrame(s.world, op, ev, withData)
	if err != nil {
		s.hub.log.Error("encode component", zap.Error(err))
		return
	}
	s.send(f)
}

func (s *hubSink) EntityAdded(ev coresync.EntityEvent) {
	s.send(entityFrame(s.world, coresync.OpEntityAdded, ev))
}

func (s *hubSink) EntityRemoved(ev coresync.EntityEvent) {
	s.send(entityFrame(s.world, coresync.OpEntityRemoved, ev))
}

func (s *hubSink) ComponentAdded(ev coresync.ComponentEvent) {
	s.component(coresync.OpComponentAdded, ev, true)
}

func (s *hubSink) ComponentRemoved(ev coresync.ComponentEvent) {
	s.component(coresync.OpComponentRemoved, ev, false)
}

func (s *hubSink) ComponentSynced(ev coresync.ComponentEvent) {
	s.component(coresync.OpComponentSynced, ev, true)
}
