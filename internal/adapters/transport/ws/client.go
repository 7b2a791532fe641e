package ws

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	domainErrors "github.com/sentryview/sentryview/internal/domain/errors"

	"github.com/sentryview/sentryview/internal/application/ports"
	"github.com/sentryview/sentryview/internal/infrastructure/logging"
	"github.com/sentryview/sentryview/internal/infrastructure/tracing"
)

// Config holds the transport configuration.
type Config struct {
	GatewayURL       string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	MaxReconnectWait time.Duration
}

// DefaultConfig returns sensible transport defaults for the given gateway.
func DefaultConfig(gatewayURL string) Config {
	return Config{
		GatewayURL:       gatewayURL,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		MaxReconnectWait: 30 * time.Second,
	}
}

// Client is a WebSocket stream transport. It dials the gateway, keeps
// reconnecting with exponential backoff, feeds event frames into the
// sink, and reports lifecycle transitions through the hooks. It never
// interprets delivery state itself; that belongs to the sync engine
// behind the sink.
type Client struct {
	cfg      Config
	sink     ports.EventSinkPort
	hooks    ports.TransportHooks
	clientID string
	logger   *logging.Logger
	tracer   *tracing.Tracer

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed []string
	closed     bool

	// writeMu serializes writes; gorilla allows only one concurrent
	// writer, and pongs race with subscribe frames otherwise.
	writeMu sync.Mutex
}

var _ ports.StreamTransportPort = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets the transport logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for connect spans.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a transport for the given gateway. The sink receives
// every event frame; hooks fire on connection lifecycle transitions.
func NewClient(cfg Config, sink ports.EventSinkPort, hooks ports.TransportHooks, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		sink:     sink,
		hooks:    hooks,
		clientID: uuid.NewString(),
		logger:   logging.Default(),
		tracer:   tracing.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ClientID returns the UUID this client announces in its hello frame.
func (c *Client) ClientID() string {
	return c.clientID
}

// Run connects to the gateway and delivers frames until ctx is
// cancelled or Close is called, reconnecting with backoff on failures.
func (c *Client) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = c.cfg.MaxReconnectWait

	resumed := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return domainErrors.ErrTransportClosed
		}

		conn, err := c.dial(ctx, resumed)
		if err != nil {
			wait := bo.NextBackOff()
			c.logger.Warn("gateway dial failed",
				"gateway_url", c.cfg.GatewayURL,
				"retry_in", wait.String(),
				"error", err.Error(),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		if !c.setConn(conn) {
			return domainErrors.ErrTransportClosed
		}
		logging.LogTransportConnected(ctx, c.logger, c.cfg.GatewayURL, resumed)
		if c.hooks.OnUp != nil {
			c.hooks.OnUp(ctx, resumed)
		}

		// Unblock the read loop when the context ends.
		stopWatch := context.AfterFunc(ctx, func() { conn.Close() })

		err = c.readLoop(conn)
		stopWatch()
		c.setConn(nil)
		conn.Close()
		logging.LogTransportDisconnected(ctx, c.logger, err)
		if c.hooks.OnDown != nil {
			c.hooks.OnDown(err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.isClosed() {
			return domainErrors.ErrTransportClosed
		}
		resumed = true
	}
}

// dial establishes one connection and sends the hello frame.
func (c *Client) dial(ctx context.Context, resumed bool) (*websocket.Conn, error) {
	ctx, span := c.tracer.StartConnectSpan(ctx, c.cfg.GatewayURL, resumed)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.cfg.GatewayURL, nil)
	if err != nil {
		span.EndWithError(err)
		return nil, err
	}

	if err := c.writeFrame(conn, helloFrame(c.clientID)); err != nil {
		conn.Close()
		span.EndWithError(err)
		return nil, err
	}

	span.SetSessionID(c.clientID)
	span.End()
	return conn, nil
}

// readLoop consumes frames until the connection breaks.
func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		f, err := decodeFrame(data)
		if err != nil {
			c.logger.Debug("dropping malformed frame", "error", err.Error())
			continue
		}

		switch f.Type {
		case frameEvent:
			accepted := c.sink.RecordEvent(f.Channel, f.EventID, f.Timestamp, f.Sequence)
			if !accepted {
				c.logger.Debug("duplicate event suppressed",
					"channel_id", f.Channel,
					"event_id", f.EventID,
					"seq", f.Sequence,
				)
			}

		case frameCaughtUp:
			if c.hooks.OnCaughtUp != nil {
				c.hooks.OnCaughtUp(f.Channel)
			}

		case framePing:
			if err := c.writeFrame(conn, frame{Type: framePong}); err != nil {
				return err
			}

		default:
			c.logger.Debug("ignoring unknown frame type", "type", f.Type)
		}
	}
}

// Subscribe declares the channel set to deliver. The set is remembered
// and can be re-sent after a reconnect by calling Subscribe again.
func (c *Client) Subscribe(ctx context.Context, channelIDs []string) error {
	c.mu.Lock()
	c.subscribed = append([]string(nil), channelIDs...)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return domainErrors.ErrNotConnected
	}
	return c.writeFrame(conn, subscribeFrame(channelIDs))
}

// Close shuts the connection down and stops the read loop.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) writeFrame(conn *websocket.Conn, f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return conn.WriteJSON(f)
}

// setConn publishes the active connection. When Close has already run,
// a connection established by a dial still in flight is shut here
// instead of being retained, and false is returned.
func (c *Client) setConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	if c.closed && conn != nil {
		c.mu.Unlock()
		conn.Close()
		return false
	}
	c.conn = conn
	c.mu.Unlock()
	return true
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
