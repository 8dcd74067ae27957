package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fosscord/pkg/models"
)

func env(kind models.EventKind) models.Envelope {
	return models.Envelope{Op: models.OpDispatch, T: kind, D: []byte(`{}`)}
}

func TestQueueFullAndClosed(t *testing.T) {
	q := NewEventQueue(2)
	require.NoError(t, q.TryEnqueue(env(models.EventGuildCreate)))
	require.NoError(t, q.TryEnqueue(env(models.EventGuildDelete)))
	assert.ErrorIs(t, q.TryEnqueue(env(models.EventUserUpdate)), ErrQueueFull)
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.Cap())

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.TryEnqueue(env(models.EventUserUpdate)), ErrQueueClosed)

	first := <-q.Out()
	second := <-q.Out()
	assert.Equal(t, models.EventGuildCreate, first.Envelope.T)
	assert.Less(t, first.EnqSeq, second.EnqSeq)
	_, open := <-q.Out()
	assert.False(t, open)
}

func TestEnqueueHonoursContext(t *testing.T) {
	q := NewEventQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), env(models.EventGuildCreate)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, env(models.EventGuildCreate))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type recorder struct {
	mu    sync.Mutex
	kinds []models.EventKind
	fail  models.EventKind
	got   chan struct{}
}

func (r *recorder) Dispatch(_ context.Context, e models.Envelope) error {
	r.mu.Lock()
	r.kinds = append(r.kinds, e.T)
	r.mu.Unlock()
	r.got <- struct{}{}
	if e.T == r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) seen() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.EventKind(nil), r.kinds...)
}

func waitN(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d events", i, n)
		}
	}
}

func TestProcessorPreservesOrder(t *testing.T) {
	q := NewEventQueue(16)
	rec := &recorder{got: make(chan struct{}, 16), fail: models.EventGuildRoleUpdate}
	p := NewProcessor(q, rec)

	order := []models.EventKind{
		models.EventGuildRoleCreate,
		models.EventGuildRoleUpdate,
		models.EventGuildRoleDelete,
		models.EventGuildRoleCreate,
	}
	for _, k := range order {
		require.NoError(t, q.TryEnqueue(env(k)))
	}
	p.Start()
	p.Start()
	waitN(t, rec.got, len(order))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)

	assert.Equal(t, order, rec.seen())
	assert.Equal(t, uint64(4), p.Processed())
	assert.Equal(t, uint64(1), p.Failed())
}

func TestProcessorPause(t *testing.T) {
	q := NewEventQueue(4)
	rec := &recorder{got: make(chan struct{}, 4)}
	p := NewProcessor(q, rec)
	p.Pause()
	p.Start()
	defer p.Stop(context.Background())

	require.NoError(t, q.TryEnqueue(env(models.EventUserUpdate)))
	select {
	case <-rec.got:
		t.Fatal("paused processor dispatched an event")
	case <-time.After(120 * time.Millisecond):
	}

	p.Resume()
	waitN(t, rec.got, 1)
}

func TestConnQueuesDispatchFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		frames := []string{
			`{"op":10,"d":{"heartbeat_interval":41250}}`,
			`{"op":0,"t":"GUILD_CREATE","s":1,"d":{"id":"1"}}`,
			`not json`,
			`{"op":0,"t":"GUILD_ROLE_CREATE","s":2,"d":{"guild_id":"1","role":{"id":"2"}}}`,
		}
		for _, f := range frames {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer srv.Close()

	q := NewEventQueue(8)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(context.Background(), url, nil, 1<<20, q, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Run(context.Background()))
	require.Equal(t, 2, q.Len())
	assert.Equal(t, models.EventGuildCreate, (<-q.Out()).Envelope.T)
	assert.Equal(t, models.EventGuildRoleCreate, (<-q.Out()).Envelope.T)
	assert.Equal(t, int64(2), conn.LastSeq())
}

func TestConnStopsOnContext(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	conn, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil, 0, NewEventQueue(1), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- conn.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestProcessorDrainsClosedQueue(t *testing.T) {
	q := NewEventQueue(128)
	for i := 0; i < 100; i++ {
		require.NoError(t, q.TryEnqueue(env(models.EventMessageCreate)))
	}
	q.Close()
	require.True(t, q.Closed())

	rec := &recorder{got: make(chan struct{}, 128)}
	p := NewProcessor(q, rec)
	p.Pause()
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.Stop(ctx)
	assert.Equal(t, uint64(100), p.Processed())
	assert.Len(t, rec.seen(), 100)
	assert.Equal(t, 0, q.Len())
}
