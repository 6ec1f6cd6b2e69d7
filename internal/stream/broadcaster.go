// Package stream exposes bus events to external viewers over WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/bus"
)

const (
	// EventsEndpoint is the WebSocket path.
	EventsEndpoint = "/events"

	// HealthEndpoint reports broadcaster state as JSON.
	HealthEndpoint = "/health"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientBuffer   = 256

	defaultReplay = 100
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Broadcaster forwards every bus event as a JSON text frame to each
// connected client. A client that cannot keep up is disconnected rather
// than slowing the bus.
type Broadcaster struct {
	bus      *bus.Bus
	upgrader websocket.Upgrader
	subID    bus.SubscriptionID

	mu      sync.RWMutex
	clients map[*client]struct{}

	server *http.Server
	wg     sync.WaitGroup

	replay int
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithReplay sets how many past events a new client receives when it does
// not ask with ?replay=n.
func WithReplay(n int) Option {
	return func(s *Broadcaster) {
		if n >= 0 {
			s.replay = n
		}
	}
}

// New subscribes a broadcaster to every event on b.
func New(b *bus.Bus, opts ...Option) *Broadcaster {
	s := &Broadcaster{
		bus:    b,
		replay: defaultReplay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.subID = b.Subscribe("", s.broadcast)
	return s
}

// Handler returns the HTTP routes served by the broadcaster.
func (s *Broadcaster) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(EventsEndpoint, s.handleEvents)
	mux.HandleFunc(HealthEndpoint, s.handleHealth)
	return mux
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Broadcaster) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("event stream listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Close(shutdownCtx)
	}
}

// Close disconnects every client and stops the server if one was started.
func (s *Broadcaster) Close(ctx context.Context) error {
	_ = s.bus.Unsubscribe(s.subID)

	s.mu.Lock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
	s.mu.Unlock()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

// ClientCount returns the number of connected clients.
func (s *Broadcaster) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Broadcaster) handleEvents(w http.ResponseWriter, r *http.Request) {
	replay := s.replay
	if v := r.URL.Query().Get("replay"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			replay = n
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if replay > 0 {
		for _, e := range s.bus.History(replay) {
			if data, err := json.Marshal(e); err == nil {
				select {
				case c.send <- data:
				default:
				}
			}
		}
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	log.Debug().Int("clients", s.ClientCount()).Msg("stream client connected")

	s.wg.Add(2)
	go s.writePump(c)
	go s.readPump(c)
}

func (s *Broadcaster) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
	s.mu.Unlock()
}

func (s *Broadcaster) writePump(c *client) {
	defer s.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drop(c)
				return
			}
		}
	}
}

// readPump only services control frames; clients do not send data.
func (s *Broadcaster) readPump(c *client) {
	defer s.wg.Done()
	defer s.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("stream client error")
			}
			return
		}
	}
}

func (s *Broadcaster) broadcast(e bus.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("marshal stream event")
		return
	}

	s.mu.RLock()
	var slow []*client
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Msg("stream client too slow, disconnecting")
		s.drop(c)
	}
}

func (s *Broadcaster) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := struct {
		Status    string `json:"status"`
		Clients   int    `json:"clients"`
		Published int64  `json:"published"`
		Dropped   int64  `json:"dropped"`
	}{
		Status:    "ok",
		Clients:   s.ClientCount(),
		Published: s.bus.Published(),
		Dropped:   s.bus.Dropped(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
