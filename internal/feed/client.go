package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"coin-feed/internal/event"
)

// ClientConfig configures the feed websocket client.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultClientConfig returns default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Client consumes a hub's websocket feed. It reconnects with exponential
// backoff and re-sends its coin subscriptions after every reconnect.
// The snapshot a reconnect delivers is passed through like any envelope.
type Client struct {
	endpoint string
	config   ClientConfig
	log      *logrus.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	coins   map[string]struct{}
	coinsMu sync.Mutex

	envelopes chan event.Envelope

	done         chan struct{}
	wg           sync.WaitGroup
	reconnecting atomic.Bool
}

// NewClient dials endpoint (ws:// or wss://) and starts reading.
func NewClient(ctx context.Context, endpoint string, config *ClientConfig, log *logrus.Logger) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint:  endpoint,
		config:    cfg,
		log:       log,
		coins:     make(map[string]struct{}),
		envelopes: make(chan event.Envelope, 1024),
		done:      make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Envelopes returns the channel envelopes are delivered on.
// It is closed by Close.
func (c *Client) Envelopes() <-chan event.Envelope {
	return c.envelopes
}

func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Subscribe asks the hub for per-coin updates of coinID.
func (c *Client) Subscribe(coinID string) error {
	if err := c.send(Command{Action: ActionSubscribe, CoinID: coinID}); err != nil {
		return err
	}
	c.coinsMu.Lock()
	c.coins[coinID] = struct{}{}
	c.coinsMu.Unlock()
	return nil
}

// Unsubscribe stops per-coin updates of coinID.
func (c *Client) Unsubscribe(coinID string) error {
	c.coinsMu.Lock()
	delete(c.coins, coinID)
	c.coinsMu.Unlock()
	return c.send(Command{Action: ActionUnsubscribe, CoinID: coinID})
}

func (c *Client) send(cmd Command) error {
	if c.closed.Load() {
		return errors.New("client closed")
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return errors.New("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Action, err)
	}
	return nil
}

// Close closes the connection and the envelope channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.envelopes)
	return nil
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err == nil && cmd.Action != "" {
		c.log.WithFields(logrus.Fields{"action": cmd.Action, "coin_id": cmd.CoinID}).Debug("hub acknowledged")
		return
	}

	var env event.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.log.WithError(err).Warn("dropping undecodable frame")
		return
	}

	select {
	case c.envelopes <- env:
	case <-c.done:
	}
}

// reconnect waits, redials and restores subscriptions.
func (c *Client) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.log.WithError(err).Warn("reconnect failed")
		return
	}

	c.coinsMu.Lock()
	coins := make([]string, 0, len(c.coins))
	for id := range c.coins {
		coins = append(coins, id)
	}
	c.coinsMu.Unlock()

	for _, id := range coins {
		if err := c.send(Command{Action: ActionSubscribe, CoinID: id}); err != nil {
			c.log.WithError(err).WithField("coin_id", id).Warn("resubscribe failed")
		}
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// a dead connection surfaces in readLoop
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}
