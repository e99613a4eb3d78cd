package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/services/api-gateway/auth"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSub struct {
	ch     chan []byte
	once   sync.Once
	closed chan struct{}
}

func (s *fakeSub) Messages() <-chan []byte { return s.ch }

func (s *fakeSub) Close() error {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
	return nil
}

type fakeBus struct {
	mu   sync.Mutex
	subs map[string][]*fakeSub
}

func (b *fakeBus) Subscribe(_ context.Context, channel string) (notification.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &fakeSub{ch: make(chan []byte, 4), closed: make(chan struct{})}
	b.subs[channel] = append(b.subs[channel], s)
	return s, nil
}

func (b *fakeBus) only(t *testing.T, channel string) *fakeSub {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.subs[channel], 1)
	return b.subs[channel][0]
}

func (b *fakeBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

func (b *fakeBus) last(channel string) *fakeSub {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	return subs[len(subs)-1]
}

func newServer(t *testing.T) (*fakeBus, *Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bus := &fakeBus{subs: map[string][]*fakeSub{}}
	hub := NewHub(zap.NewNop(), bus, Config{PingInterval: time.Second})

	r := gin.New()
	g := r.Group("/v1", auth.Identity(nil), auth.Required())
	NewController(zap.NewNop(), hub, nil).Register(g)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return bus, hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
}

func dial(t *testing.T, url string, uid string) *websocket.Conn {
	t.Helper()
	hdr := http.Header{}
	hdr.Set(auth.HeaderUserID, uid)
	ws, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return ws
}

func TestHubSharesSubscriptionPerUser(t *testing.T) {
	bus, hub, url := newServer(t)

	a := dial(t, url, "7")
	b := dial(t, url, "7")
	require.Eventually(t, func() bool { return hub.Connections() == 2 }, time.Second, 10*time.Millisecond)
	require.Equal(t, 1, hub.Users())

	sub := bus.only(t, "user-7")
	sub.ch <- []byte(`{"event":"job.note_attached"}`)

	for _, ws := range []*websocket.Conn{a, b} {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := ws.ReadMessage()
		require.NoError(t, err)
		require.JSONEq(t, `{"event":"job.note_attached"}`, string(msg))
	}

	require.NoError(t, a.Close())
	select {
	case <-sub.closed:
		t.Fatal("subscription closed while a connection remains")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, b.Close())
	select {
	case <-sub.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after last connection")
	}
	require.Eventually(t, func() bool { return hub.Users() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubRequiresIdentity(t *testing.T) {
	_, _, url := newServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubClosesConnectionsWhenFeedEnds(t *testing.T) {
	bus, hub, url := newServer(t)
	ws := dial(t, url, "3")
	require.Eventually(t, func() bool { return hub.Users() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.only(t, "user-3").Close())

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}

func TestHubResubscribesAfterFeedEnds(t *testing.T) {
	ctx := context.Background()
	bus := &fakeBus{subs: map[string][]*fakeSub{}}
	hub := NewHub(zap.NewNop(), bus, Config{})

	first := &client{send: make(chan []byte, 1)}
	require.NoError(t, hub.join(ctx, 5, first))
	require.NoError(t, bus.only(t, "user-5").Close())

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-first.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// A new connection joins before the old reader noticed and left.
	second := &client{send: make(chan []byte, 1)}
	require.NoError(t, hub.join(ctx, 5, second))
	require.Equal(t, 2, bus.count("user-5"))

	hub.leave(5, first)
	require.Equal(t, 1, hub.Users())
	require.Equal(t, 1, hub.Connections())

	sub := bus.last("user-5")
	sub.ch <- []byte(`{"event":"contact.message_attached"}`)
	select {
	case msg := <-second.send:
		require.JSONEq(t, `{"event":"contact.message_attached"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered to the resubscribed connection")
	}

	hub.leave(5, second)
	select {
	case <-sub.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after last connection")
	}
	require.Equal(t, 0, hub.Users())
}
