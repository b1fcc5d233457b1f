package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aurora-os/nucleus/internal/kernel"
	"github.com/aurora-os/nucleus/internal/kernel/capability"
	"github.com/aurora-os/nucleus/internal/logging"
)

func newTestStream(t *testing.T) (*kernel.Kernel, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	k, err := kernel.Boot(kernel.Config{
		CPUs:             1,
		QueueCapacity:    8,
		MaxChannels:      4,
		RingSize:         4,
		MaxProcesses:     64,
		TokensPerProcess: 8,
		AuditCapacity:    64,
	}, nil)
	require.NoError(t, err)

	logger := &logging.Logger{Logger: zap.NewNop()}
	h := NewHandler(k, logger, 10*time.Millisecond)

	r := gin.New()
	r.GET("/stream", h.HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return k, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestConnectAndSubscribe(t *testing.T) {
	k, conn := newTestStream(t)

	welcome := readMessage(t, conn)
	assert.Equal(t, "system", welcome["type"])
	assert.Contains(t, welcome["stream_id"], "stream_")

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":   "subscribe",
		"stream": StreamAudit,
	}))
	ack := readMessage(t, conn)
	assert.Equal(t, "subscribed", ack["type"])
	assert.Equal(t, StreamAudit, ack["stream"])

	// A denied check lands in the audit log and reaches the stream.
	k.Capabilities.Check(99, capability.Read)
	entries := readMessage(t, conn)
	assert.Equal(t, "audit_entries", entries["type"])
	assert.NotEmpty(t, entries["entries"])
}

func TestPingAndUnknownStream(t *testing.T) {
	_, conn := newTestStream(t)
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":   "subscribe",
		"stream": "nosuch",
	}))
	errMsg := readMessage(t, conn)
	assert.Equal(t, "error", errMsg["type"])
	assert.Contains(t, errMsg["error"], "unknown stream")
}
