package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/playground"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

// Message types the hub adds on top of playground events
const (
	TypeHello playground.EventType = "hello"
	TypePong  playground.EventType = "pong"
	TypeError playground.EventType = "error"
)

// Source is the event stream a hub forwards
type Source interface {
	Subscribe(buffer int) (<-chan playground.Event, func())
	Snapshot() playground.Snapshot
}

// Recorder receives connection metrics
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

type nopRecorder struct{}

func (nopRecorder) IncWSConnections()              {}
func (nopRecorder) DecWSConnections()              {}
func (nopRecorder) RecordWSMessage(string, string) {}

// Options configures a Hub
type Options struct {
	// AllowedOrigins restricts the Origin header; empty or "*" allows any.
	AllowedOrigins []string
	Buffer         int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	Recorder       Recorder
	Logger         *zap.Logger
}

// HelloData is sent once per connection before any event
type HelloData struct {
	ClientID id.ClientID         `json:"clientId"`
	Snapshot playground.Snapshot `json:"snapshot"`
}

type inbound struct {
	Type string `json:"type"`
}

// Hub streams workspace events to every connected host UI
type Hub struct {
	source   Source
	upgrader websocket.Upgrader
	opts     Options
	recorder Recorder
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[id.ClientID]*websocket.Conn
	closed  bool
	wg      sync.WaitGroup
}

// NewHub creates a hub over source
func NewHub(source Source, opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = playground.DefaultSubscriberBuffer
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := &Hub{
		source:   source,
		opts:     opts,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		clients:  make(map[id.ClientID]*websocket.Conn),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleConnection upgrades the request and streams events until either side goes away
func (h *Hub) HandleConnection(c *gin.Context) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server shutting down"})
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	clientID := id.NewClientID()
	if !h.register(clientID, conn) {
		conn.Close()
		return
	}
	defer h.unregister(clientID)

	h.recorder.IncWSConnections()
	defer h.recorder.DecWSConnections()
	h.logger.Info("Host UI connected", zap.String("client_id", clientID.String()))

	events, unsubscribe := h.source.Subscribe(h.opts.Buffer)
	defer unsubscribe()

	replies := make(chan playground.Event, 8)
	done := make(chan struct{})
	go h.read(conn, clientID, replies, done)

	h.write(conn, clientID, events, replies, done)
	h.logger.Info("Host UI disconnected", zap.String("client_id", clientID.String()))
}

// write owns every write to conn
func (h *Hub) write(conn *websocket.Conn, clientID id.ClientID, events <-chan playground.Event, replies <-chan playground.Event, done <-chan struct{}) {
	defer conn.Close()

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	hello := playground.Event{
		Type: TypeHello,
		Time: time.Now(),
		Data: HelloData{ClientID: clientID, Snapshot: h.source.Snapshot()},
	}
	if err := h.send(conn, hello); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "workspace closed"),
					time.Now().Add(h.opts.WriteTimeout))
				return
			}
			if err := h.send(conn, ev); err != nil {
				return
			}
		case reply := <-replies:
			if err := h.send(conn, reply); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.opts.WriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// read handles client keep-alives until the connection fails
func (h *Hub) read(conn *websocket.Conn, clientID id.ClientID, replies chan<- playground.Event, done chan<- struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.String("client_id", clientID.String()), zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			msg.Type = ""
		}
		h.recorder.RecordWSMessage("in", msg.Type)

		reply := playground.Event{Type: TypePong, Time: time.Now()}
		if msg.Type != "ping" {
			reply = playground.Event{Type: TypeError, Time: time.Now(), Data: "unknown message type"}
		}
		select {
		case replies <- reply:
		default:
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, ev playground.Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	payload, err := sonic.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", string(ev.Type)), zap.Error(err))
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	h.recorder.RecordWSMessage("out", string(ev.Type))
	return nil
}

func (h *Hub) register(clientID id.ClientID, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[clientID] = conn
	return true
}

func (h *Hub) unregister(clientID id.ClientID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientID)
}

// Clients returns the number of connected host UIs
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their handlers to return
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, conn := range h.clients {
		_ = conn.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
