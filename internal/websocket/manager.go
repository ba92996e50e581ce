// Package websocket connects host pages to the preview bridge. Each host page
// holds one connection: the hub pushes preview updates down it and forwards
// the messages the sandbox frame posts back up into the bridge mailbox.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/conneroisu/jsxlive/internal/bridge"
	"github.com/conneroisu/jsxlive/internal/logging"
	"github.com/conneroisu/jsxlive/internal/protocol"
)

const (
	sendBuffer     = 64
	readLimit      = 256 << 10
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	defaultRate    = 50
	defaultBurst   = 100
	shutdownReason = "server shutdown"
)

// Client is one connected host page.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	cancel  context.CancelFunc
	remote  string
}

// Manager owns the host page connections.
//
// Invariants:
//   - clients is only accessed with mu held
//   - a client's send channel is never closed; writers stop on its context
type Manager struct {
	bridge  Bridge
	origins OriginValidator
	logger  logging.Logger

	messagesPerSecond rate.Limit
	burst             int

	mu      sync.RWMutex
	clients map[*Client]struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithRateLimit bounds the sandbox messages accepted per connection.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(m *Manager) {
		if perSecond > 0 {
			m.messagesPerSecond = rate.Limit(perSecond)
		}
		if burst > 0 {
			m.burst = burst
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger.WithComponent("websocket")
		}
	}
}

// NewManager creates a manager and starts relaying bridge events. Call
// Shutdown to stop it.
func NewManager(b Bridge, origins OriginValidator, opts ...Option) *Manager {
	if origins == nil {
		origins = NewOriginAllowList()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		bridge:            b,
		origins:           origins,
		logger:            logging.Discard(),
		messagesPerSecond: defaultRate,
		burst:             defaultBurst,
		clients:           make(map[*Client]struct{}),
		ctx:               ctx,
		cancel:            cancel,
	}
	for _, opt := range opts {
		opt(m)
	}

	events, unsubscribe := b.Subscribe()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer unsubscribe()
		m.relay(events)
	}()

	return m
}

// ServeHTTP upgrades the request and serves the connection until either side
// closes it.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)

		return
	}

	origin := r.Header.Get("Origin")
	if !m.origins.IsAllowedOrigin(origin, r.Host) {
		m.logger.Warn(r.Context(), nil, "Rejected websocket origin", "origin", origin, "remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins were checked above.
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionDisabled,
	})
	if err != nil {
		m.logger.Warn(r.Context(), err, "Websocket upgrade failed", "remote", r.RemoteAddr)

		return
	}
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(m.ctx)
	client := &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(m.messagesPerSecond, m.burst),
		cancel:  cancel,
		remote:  r.RemoteAddr,
	}

	if initial, err := json.Marshal(NewUpdateMessage(bridge.Event{
		Type:     bridge.EventDocument,
		Snapshot: m.bridge.Snapshot(),
	})); err == nil {
		client.send <- initial
	}

	m.register(client)
	m.wg.Add(1)
	defer m.wg.Done()
	defer m.unregister(client)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		m.writePump(ctx, client)
	}()

	m.readPump(ctx, client)
	cancel()
	<-writerDone

	if m.ctx.Err() != nil {
		_ = conn.Close(websocket.StatusGoingAway, shutdownReason)
	} else {
		_ = conn.CloseNow()
	}
}

// ClientCount returns the number of connected host pages.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// Shutdown disconnects every client and stops relaying events.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdown.Do(m.cancel)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info(ctx, "Websocket manager shut down")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) register(c *Client) {
	m.mu.Lock()
	m.clients[c] = struct{}{}
	count := len(m.clients)
	m.mu.Unlock()

	m.logger.Info(m.ctx, "Host page connected", "remote", c.remote, "clients", count)
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c)
	count := len(m.clients)
	m.mu.Unlock()

	m.logger.Info(m.ctx, "Host page disconnected", "remote", c.remote, "clients", count)
}

func (m *Manager) relay(events <-chan bridge.Event) {
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(NewUpdateMessage(ev))
			if err != nil {
				m.logger.Error(m.ctx, err, "Failed to encode preview update", "type", ev.Type)

				continue
			}
			m.broadcast(data)
		}
	}
}

func (m *Manager) broadcast(data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for c := range m.clients {
		select {
		case c.send <- data:
		default:
			m.logger.Warn(m.ctx, nil, "Host page too slow, disconnecting", "remote", c.remote)
			c.cancel()
		}
	}
}

func (m *Manager) readPump(ctx context.Context, c *Client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway && ctx.Err() == nil {
				m.logger.Debug(ctx, "Websocket read ended", "remote", c.remote, "error", err.Error())
			}

			return
		}

		if !c.limiter.Allow() {
			m.logger.Debug(ctx, "Dropped sandbox message over rate limit", "remote", c.remote)

			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			m.logger.Warn(ctx, err, "Rejected sandbox message", "remote", c.remote)

			continue
		}

		if !m.bridge.Deliver(env) {
			m.logger.Warn(ctx, nil, "Bridge mailbox unavailable, message dropped",
				"type", env.Message.Type, "generation", env.Generation)
		}
	}
}

func (m *Manager) writePump(ctx context.Context, c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			if err := m.write(ctx, c, data); err != nil {
				m.logger.Debug(ctx, "Websocket write failed", "remote", c.remote, "error", err.Error())
				c.cancel()

				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.cancel()

				return
			}
		}
	}
}

func (m *Manager) write(ctx context.Context, c *Client, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return c.conn.Write(ctx, websocket.MessageText, data)
}
