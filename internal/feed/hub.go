package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"coin-feed/internal/event"
	"coin-feed/internal/observability"
	"coin-feed/internal/publish"
)

// ErrHubClosed is returned by Publish once the hub has stopped.
var ErrHubClosed = errors.New("hub closed")

// Snapshotter produces the envelopes sent to a client right after it connects.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]event.Envelope, error)
}

// Client control frame actions.
const (
	ActionSubscribe    = "subscribe"
	ActionUnsubscribe  = "unsubscribe"
	ActionSubscribed   = "subscribed"
	ActionUnsubscribed = "unsubscribed"
)

// Command is a control frame exchanged with a client. Clients send
// subscribe/unsubscribe, the hub answers with subscribed/unsubscribed.
type Command struct {
	Action string `json:"action"`
	CoinID string `json:"coin_id"`
}

// HubConfig configures the websocket hub.
type HubConfig struct {
	// SendBuffer is the per-client queue length. A client whose queue is full
	// when an envelope arrives is disconnected.
	SendBuffer int
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// PongTimeout is how long a client may stay silent before it is dropped.
	PongTimeout time.Duration
	// PingInterval must be shorter than PongTimeout.
	PingInterval time.Duration
	// FrameRate and FrameBurst limit client control frames.
	FrameRate  float64
	FrameBurst int
	// MaxFrameBytes caps a single client frame.
	MaxFrameBytes int64
	// SnapshotTimeout bounds the bootstrap snapshot on connect.
	SnapshotTimeout time.Duration
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:      256,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		FrameRate:       5,
		FrameBurst:      20,
		MaxFrameBytes:   4096,
		SnapshotTimeout: 5 * time.Second,
	}
}

// Hub fans envelopes out to websocket clients. Full broadcasts reach every
// client, per-coin updates only clients subscribed to that coin.
// The client registry is owned by the Run goroutine.
type Hub struct {
	cfg      HubConfig
	boot     Snapshotter
	log      *logrus.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	subs       chan subscription
	broadcast  chan outbound

	done      chan struct{}
	closeOnce sync.Once
	count     atomic.Int64

	clients map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	coins   map[string]struct{}
	limiter *rate.Limiter
	remote  string
}

type subscription struct {
	c      *client
	coinID string
	on     bool
}

type outbound struct {
	scope  event.Scope
	coinID string
	data   []byte
}

// NewHub creates a new Hub. boot and metrics may be nil.
func NewHub(cfg HubConfig, boot Snapshotter, log *logrus.Logger, metrics *observability.Metrics) *Hub {
	if cfg.SendBuffer < 8 {
		cfg.SendBuffer = 8
	}
	return &Hub{
		cfg:     cfg,
		boot:    boot,
		log:     log,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		subs:       make(chan subscription),
		broadcast:  make(chan outbound, 1024),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Run owns the client registry until ctx is cancelled or Close is called.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.metrics.ClientConnected()

		case c := <-h.unregister:
			h.remove(c)

		case s := <-h.subs:
			if _, ok := h.clients[s.c]; !ok {
				continue
			}
			ack := Command{Action: ActionUnsubscribed, CoinID: s.coinID}
			if s.on {
				s.c.coins[s.coinID] = struct{}{}
				ack.Action = ActionSubscribed
			} else {
				delete(s.c.coins, s.coinID)
			}
			data, _ := json.Marshal(ack)
			h.deliver(s.c, data)

		case m := <-h.broadcast:
			for c := range h.clients {
				if m.scope == event.ScopeAll {
					h.deliver(c, m.data)
					continue
				}
				if _, ok := c.coins[m.coinID]; ok {
					h.deliver(c, m.data)
				}
			}
		}
	}
}

// deliver queues data without blocking. A full queue drops the client.
func (h *Hub) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.WithField("remote", c.remote).Warn("dropping slow websocket client")
		h.metrics.ClientDropped("slow")
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
	h.metrics.ClientDisconnected()
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	for c := range h.clients {
		h.remove(c)
	}
}

// Close stops the hub. Connected clients receive a close frame.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

// Publish queues env for delivery. The envelope is encoded once for all clients.
func (h *Hub) Publish(ctx context.Context, env event.Envelope) error {
	if err := publish.Validate(env); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	select {
	case h.broadcast <- outbound{scope: env.Scope, coinID: env.Coin.ID, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request, sends the bootstrap snapshot and then
// streams live envelopes until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, h.cfg.SendBuffer),
		coins:   make(map[string]struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.cfg.FrameRate), h.cfg.FrameBurst),
		remote:  r.RemoteAddr,
	}

	h.queueSnapshot(r.Context(), c)

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// queueSnapshot queries the bootstrap snapshot and queues it on c before c is
// registered, so snapshot frames come first on the wire. The query and the
// registration are not atomic: an envelope published between them is in
// neither the snapshot nor the live stream for c. The snapshot only carries
// the latest notices, so the client sees the next live event instead.
func (h *Hub) queueSnapshot(ctx context.Context, c *client) {
	if h.boot == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.SnapshotTimeout)
	defer cancel()

	start := time.Now()
	envs, err := h.boot.Snapshot(ctx)
	h.metrics.RecordBootstrap(time.Since(start).Seconds(), err)
	if err != nil {
		h.log.WithError(err).WithField("remote", c.remote).Warn("bootstrap snapshot failed")
		return
	}

	for _, env := range envs {
		data, err := json.Marshal(env)
		if err != nil {
			h.log.WithError(err).Error("marshal snapshot envelope")
			continue
		}
		select {
		case c.send <- data:
		default:
			return
		}
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(h.cfg.MaxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("remote", c.remote).Debug("websocket read failed")
			}
			return
		}

		if !c.limiter.Allow() {
			h.log.WithField("remote", c.remote).Warn("websocket client exceeded frame rate")
			h.metrics.ClientDropped("rate_limited")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(h.cfg.WriteTimeout))
			return
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.CoinID == "" {
			h.log.WithField("remote", c.remote).Debug("ignoring malformed control frame")
			continue
		}

		var on bool
		switch cmd.Action {
		case ActionSubscribe:
			on = true
		case ActionUnsubscribe:
		default:
			h.log.WithFields(logrus.Fields{"remote": c.remote, "action": cmd.Action}).Debug("ignoring unknown action")
			continue
		}

		select {
		case h.subs <- subscription{c: c, coinID: cmd.CoinID, on: on}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			h.metrics.MessageSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
