package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"fosscord/pkg/logger"
	"fosscord/pkg/metrics"
	"fosscord/pkg/models"
)

// Conn reads dispatch frames from a websocket and queues them. It does not
// identify, heartbeat or resume; frames with another opcode are skipped.
type Conn struct {
	ws      *websocket.Conn
	q       *EventQueue
	metrics *metrics.Metrics
	lastSeq atomic.Int64
}

// Dial opens url and returns a Conn feeding q. readLimit caps a frame's size
// in bytes (0 means no limit).
func Dial(ctx context.Context, url string, header http.Header, readLimit int64, q *EventQueue, m *metrics.Metrics) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("gateway dial %s: %w", url, err)
	}
	if readLimit > 0 {
		ws.SetReadLimit(readLimit)
	}
	return &Conn{ws: ws, q: q, metrics: m}, nil
}

// Run reads until the socket closes or ctx is done. A normal close returns nil.
func (c *Conn) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.ws.Close()
		case <-done:
		}
	}()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("gateway read: %w", err)
		}
		c.receive(data)
	}
}

func (c *Conn) receive(data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Warn("gateway_frame_decode_failed", "error", err, "size", len(data))
		return
	}
	if env.Op != models.OpDispatch {
		logger.Debug("gateway_frame_skipped", "op", env.Op)
		return
	}
	if env.S != nil {
		c.lastSeq.Store(*env.S)
	}
	if err := c.q.TryEnqueue(env); err != nil {
		if errors.Is(err, ErrQueueFull) {
			c.metrics.QueueDropped()
		}
		logger.Warn("gateway_enqueue_failed", "kind", env.T, "error", err)
	}
}

// LastSeq is the sequence number of the latest dispatch frame read.
func (c *Conn) LastSeq() int64 { return c.lastSeq.Load() }

// Close sends a normal close frame and closes the socket.
func (c *Conn) Close() error {
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
