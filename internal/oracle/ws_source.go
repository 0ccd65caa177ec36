package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"custody-ledger/internal/domain"
)

// WSConfig configures WebSocket source behavior.
type WSConfig struct {
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

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSSource streams price updates over WebSocket and serves the most
// recent reading per feed from a local cache. A feed must be subscribed
// before LatestReading can return anything for it.
type WSSource struct {
	endpoint string
	config   WSConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// latest caches the newest reading per feed reference; waiters holds
	// a channel per feed that closes when its first reading arrives
	latest   map[string]domain.PriceReading
	waiters  map[string]chan struct{}
	latestMu sync.RWMutex

	// subscribed stores feed refs for resubscription after reconnect
	subscribed   map[string]struct{}
	subscribedMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ Source = (*WSSource)(nil)

// NewWSSource creates a WebSocket source and connects to the endpoint.
func NewWSSource(ctx context.Context, endpoint string, config *WSConfig) (*WSSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	s := &WSSource{
		endpoint:   endpoint,
		config:     cfg,
		latest:     make(map[string]domain.PriceReading),
		waiters:    make(map[string]chan struct{}),
		subscribed: make(map[string]struct{}),
		done:       make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// connect establishes WebSocket connection.
func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// subscribeTimeout bounds the wait for a feed's first notification.
const subscribeTimeout = 30 * time.Second

// Subscribe requests a price stream for the feed and blocks until the
// first reading lands in the cache, so LatestReading works as soon as
// Subscribe returns. Later updates keep flowing in the background.
func (s *WSSource) Subscribe(ctx context.Context, feedRef string) error {
	if s.closed.Load() {
		return fmt.Errorf("source closed")
	}

	s.latestMu.Lock()
	_, have := s.latest[feedRef]
	var ready chan struct{}
	if !have {
		ready = s.waiters[feedRef]
		if ready == nil {
			ready = make(chan struct{})
			s.waiters[feedRef] = ready
		}
	}
	s.latestMu.Unlock()

	if err := s.writeSubscribe(feedRef); err != nil {
		return err
	}

	s.subscribedMu.Lock()
	s.subscribed[feedRef] = struct{}{}
	s.subscribedMu.Unlock()

	if ready == nil {
		return nil
	}

	select {
	case <-ready:
		return nil
	case <-s.done:
		return fmt.Errorf("source closed")
	case <-ctx.Done():
		return fmt.Errorf("subscribe %s: %w", feedRef, ctx.Err())
	case <-time.After(subscribeTimeout):
		return fmt.Errorf("subscribe %s: no reading within %s", feedRef, subscribeTimeout)
	}
}

// writeSubscribe sends a subscribe frame without recording the feed.
func (s *WSSource) writeSubscribe(feedRef string) error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  "priceSubscribe",
		Params:  []interface{}{feedRef},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// LatestReading returns the cached reading for a feed.
func (s *WSSource) LatestReading(_ context.Context, feedRef string) (*domain.PriceReading, error) {
	s.latestMu.RLock()
	reading, ok := s.latest[feedRef]
	s.latestMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("feed %s: no reading received", feedRef)
	}
	copy := reading
	return &copy, nil
}

// Close closes the WebSocket connection.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and updates the cache.
func (s *WSSource) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (s *WSSource) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	s.resubscribeAll()
}

// resubscribeAll re-requests streams for all subscribed feeds.
func (s *WSSource) resubscribeAll() {
	s.subscribedMu.RLock()
	feeds := make([]string, 0, len(s.subscribed))
	for feedRef := range s.subscribed {
		feeds = append(feeds, feedRef)
	}
	s.subscribedMu.RUnlock()

	for _, feedRef := range feeds {
		if err := s.writeSubscribe(feedRef); err != nil {
			// Will retry after the next reconnect
			continue
		}
	}
}

// handleMessage processes an incoming WebSocket message.
func (s *WSSource) handleMessage(message []byte) {
	var notif wsPriceNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "priceNotification" {
		return
	}
	if notif.Params == nil || notif.Params.Feed == "" {
		return
	}

	s.latestMu.Lock()
	s.latest[notif.Params.Feed] = domain.PriceReading{
		Price:      notif.Params.Price,
		Decimals:   notif.Params.Decimals,
		ObservedAt: notif.Params.PublishTime,
	}
	if ready, ok := s.waiters[notif.Params.Feed]; ok {
		close(ready)
		delete(s.waiters, notif.Params.Feed)
	}
	s.latestMu.Unlock()
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			s.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsPriceNotification struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  *wsPriceUpdate `json:"params"`
}

type wsPriceUpdate struct {
	Feed        string `json:"feed"`
	Price       int64  `json:"price"`
	Decimals    uint8  `json:"decimals"`
	PublishTime int64  `json:"publishTime"`
}
