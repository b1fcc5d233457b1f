package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aurora-os/nucleus/internal/kernel"
	"github.com/aurora-os/nucleus/internal/logging"
	"github.com/aurora-os/nucleus/internal/shared/id"
	"github.com/aurora-os/nucleus/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// StreamAudit and StreamScheduler are the subscribable stream names.
const (
	StreamAudit     = "audit"
	StreamScheduler = "scheduler"
)

// Handler manages WebSocket connections
type Handler struct {
	kernel   *kernel.Kernel
	logger   *logging.Logger
	interval time.Duration
}

// NewHandler creates a new WebSocket handler. interval controls how
// often subscribed streams are pushed.
func NewHandler(k *kernel.Kernel, logger *logging.Logger, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Handler{
		kernel:   k,
		logger:   logger,
		interval: interval,
	}
}

// session tracks one connection's subscriptions. The write mutex
// serializes the read-loop replies with the ticker pump.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	streams map[string]bool

	// total audit entries already delivered, to push only new ones
	auditSeen uint64
}

func (s *session) send(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *session) subscribed(stream string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[stream]
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Sugar().Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := &session{
		conn:      conn,
		streams:   make(map[string]bool),
		auditSeen: h.kernel.Audit.Total(),
	}
	streamID := id.NewStreamID().String()

	h.write(sess, map[string]interface{}{
		"type":      "system",
		"stream_id": streamID,
		"message":   "Connected to nucleus event stream",
	})

	done := make(chan struct{})
	defer close(done)
	go h.pump(sess, done)

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Sugar().Debugw("websocket closed", "stream_id", streamID, "error", err)
			return
		}

		switch msg.Type {
		case "subscribe":
			h.handleSubscribe(sess, msg.Stream, true)
		case "unsubscribe":
			h.handleSubscribe(sess, msg.Stream, false)
		case "ping":
			h.write(sess, map[string]interface{}{"type": "pong"})
		default:
			h.sendError(sess, "unknown message type")
		}
	}
}

func (h *Handler) handleSubscribe(sess *session, stream string, on bool) {
	if stream != StreamAudit && stream != StreamScheduler {
		h.sendError(sess, "unknown stream: "+stream)
		return
	}

	sess.mu.Lock()
	if on {
		sess.streams[stream] = true
	} else {
		delete(sess.streams, stream)
	}
	sess.mu.Unlock()

	state := "unsubscribed"
	if on {
		state = "subscribed"
	}
	h.write(sess, map[string]interface{}{
		"type":   state,
		"stream": stream,
	})
}

// pump pushes subscribed streams on every tick until the connection's
// read loop exits.
func (h *Handler) pump(sess *session, done <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if sess.subscribed(StreamAudit) {
				h.pushAudit(sess)
			}
			if sess.subscribed(StreamScheduler) {
				h.pushScheduler(sess)
			}
		}
	}
}

func (h *Handler) pushAudit(sess *session) {
	total := h.kernel.Audit.Total()
	if total == sess.auditSeen {
		return
	}

	fresh := int(total - sess.auditSeen)
	if max := h.kernel.Audit.Len(); fresh > max {
		// Older unseen entries were already overwritten.
		fresh = max
	}
	entries := h.kernel.Audit.Recent(fresh)
	sess.auditSeen = total

	h.write(sess, map[string]interface{}{
		"type":    "audit_entries",
		"entries": entries,
		"total":   total,
	})
}

func (h *Handler) pushScheduler(sess *session) {
	h.write(sess, map[string]interface{}{
		"type":      "scheduler_stats",
		"stats":     h.kernel.Scheduler.Stats(),
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) sendError(sess *session, message string) {
	h.write(sess, map[string]interface{}{
		"type":  "error",
		"error": message,
	})
}

// write sends a message and logs a failed write. The read loop notices
// the broken connection and tears the session down.
func (h *Handler) write(sess *session, v interface{}) {
	if err := sess.send(v); err != nil {
		h.logger.Sugar().Debugw("websocket write failed", "error", err)
	}
}
