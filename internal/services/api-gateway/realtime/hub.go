package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Open websocket connections.",
	})
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_frames_total",
		Help: "Broadcast frames by delivery outcome.",
	}, []string{"outcome"})
)

type Config struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

func (c *Config) defaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
}

// Hub fans broadcast frames out to websocket connections. It holds one
// subscription per connected user, shared by all of that user's connections.
type Hub struct {
	log *zap.Logger
	sub notification.Subscriber
	cfg Config

	mu    sync.Mutex
	feeds map[int64]*feed
}

type feed struct {
	sub   notification.Subscription
	conns map[*client]struct{}
}

type client struct {
	ws   *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) stop() { c.once.Do(func() { close(c.send) }) }

func NewHub(log *zap.Logger, sub notification.Subscriber, cfg Config) *Hub {
	cfg.defaults()
	return &Hub{
		log:   obs.Component(log, "realtime.hub"),
		sub:   sub,
		cfg:   cfg,
		feeds: make(map[int64]*feed),
	}
}

// Users reports how many users have at least one open connection.
func (h *Hub) Users() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds)
}

func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, f := range h.feeds {
		n += len(f.conns)
	}
	return n
}

func (h *Hub) join(ctx context.Context, userID int64, c *client) error {
	h.mu.Lock()
	if f, ok := h.feeds[userID]; ok {
		f.conns[c] = struct{}{}
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	sub, err := h.sub.Subscribe(context.WithoutCancel(ctx), notification.Channel(userID))
	if err != nil {
		return fmt.Errorf("subscribe user %d: %w", userID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.feeds[userID]; ok {
		// Lost the race to another connection of the same user.
		_ = sub.Close()
		f.conns[c] = struct{}{}
		return nil
	}
	f := &feed{sub: sub, conns: map[*client]struct{}{c: {}}}
	h.feeds[userID] = f
	go h.pump(userID, f)
	return nil
}

func (h *Hub) leave(userID int64, c *client) {
	h.mu.Lock()
	f, ok := h.feeds[userID]
	if ok {
		_, ok = f.conns[c]
	}
	if !ok {
		// The feed this client joined already ended.
		h.mu.Unlock()
		c.stop()
		return
	}
	delete(f.conns, c)
	last := len(f.conns) == 0
	if last {
		delete(h.feeds, userID)
	}
	h.mu.Unlock()

	c.stop()
	if last {
		if err := f.sub.Close(); err != nil {
			h.log.Warn("close subscription", zap.Int64("uid", userID), zap.Error(err))
		}
	}
}

// pump copies frames to every connection of the user until the
// subscription closes. Slow connections drop frames instead of blocking.
func (h *Hub) pump(userID int64, f *feed) {
	for msg := range f.sub.Messages() {
		h.mu.Lock()
		for c := range f.conns {
			select {
			case c.send <- msg:
				framesTotal.WithLabelValues("sent").Inc()
			default:
				framesTotal.WithLabelValues("dropped").Inc()
				h.log.Warn("dropping frame for slow connection", zap.Int64("uid", userID))
			}
		}
		h.mu.Unlock()
	}

	// The bus ended the subscription: close the user's connections so
	// clients reconnect, and forget the feed so the next join resubscribes.
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feeds[userID] == f {
		delete(h.feeds, userID)
		for c := range f.conns {
			c.stop()
		}
	}
}

// Serve runs one upgraded connection until either side closes it.
func (h *Hub) Serve(ctx context.Context, userID int64, ws *websocket.Conn) error {
	c := &client{ws: ws, send: make(chan []byte, h.cfg.SendBuffer)}
	if err := h.join(ctx, userID, c); err != nil {
		_ = ws.Close()
		return err
	}
	connectionsGauge.Inc()
	defer connectionsGauge.Dec()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.write(c)
	}()

	h.read(c)
	h.leave(userID, c)
	<-done
	return nil
}

func (h *Hub) read(c *client) {
	wait := 2 * h.cfg.PingInterval
	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
