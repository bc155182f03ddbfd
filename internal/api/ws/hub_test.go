package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/minicode/internal/domain/playground"
	"github.com/GriffinCanCode/minicode/internal/domain/source"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

type busSource struct {
	bus *playground.Bus
}

func (s busSource) Subscribe(buffer int) (<-chan playground.Event, func()) {
	return s.bus.Subscribe(buffer)
}

func (s busSource) Snapshot() playground.Snapshot {
	return playground.Snapshot{State: source.Default()}
}

type countingRecorder struct {
	mu       sync.Mutex
	open     int
	messages map[string]int
}

func (r *countingRecorder) IncWSConnections() { r.mu.Lock(); r.open++; r.mu.Unlock() }
func (r *countingRecorder) DecWSConnections() { r.mu.Lock(); r.open--; r.mu.Unlock() }

func (r *countingRecorder) RecordWSMessage(direction, msgType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.messages == nil {
		r.messages = make(map[string]int)
	}
	r.messages[direction+":"+msgType]++
}

func (r *countingRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[key]
}

func (r *countingRecorder) connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

type envelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func startHub(t *testing.T, opts Options) (*Hub, *playground.Bus, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := playground.NewBus()
	hub := NewHub(busSource{bus: bus}, opts)

	router := gin.New()
	router.GET("/stream", hub.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return hub, bus, "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, sonic.Unmarshal(data, &env))
	return env
}

func TestHelloThenEvents(t *testing.T) {
	rec := &countingRecorder{}
	hub, bus, url := startHub(t, Options{Recorder: rec})
	conn := dial(t, url)

	hello := next(t, conn)
	assert.Equal(t, string(TypeHello), hello.Type)
	clientID, _ := hello.Data["clientId"].(string)
	assert.True(t, id.HasPrefix(clientID, id.ClientPrefix))
	require.Contains(t, hello.Data, "snapshot")

	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.Clients())

	bus.Publish(playground.Event{Type: playground.EventConsoleVisibility, Data: playground.VisibilityData{Visible: true}})
	ev := next(t, conn)
	assert.Equal(t, string(playground.EventConsoleVisibility), ev.Type)
	assert.Equal(t, true, ev.Data["visible"])

	assert.Eventually(t, func() bool { return rec.count("out:console-visibility") == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.connections())
}

func TestPingPong(t *testing.T) {
	_, _, url := startHub(t, Options{})
	conn := dial(t, url)
	next(t, conn) // hello

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, string(TypePong), next(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"navigate"}`)))
	assert.Equal(t, string(TypeError), next(t, conn).Type)
}

func TestEveryClientReceivesEvents(t *testing.T) {
	_, bus, url := startHub(t, Options{})
	a, b := dial(t, url), dial(t, url)
	next(t, a)
	next(t, b)
	require.Eventually(t, func() bool { return bus.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(playground.Event{Type: playground.EventConsoleClear})
	assert.Equal(t, string(playground.EventConsoleClear), next(t, a).Type)
	assert.Equal(t, string(playground.EventConsoleClear), next(t, b).Type)
}

func TestBusCloseEndsStream(t *testing.T) {
	rec := &countingRecorder{}
	hub, bus, url := startHub(t, Options{Recorder: rec})
	conn := dial(t, url)
	next(t, conn)
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	bus.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))

	assert.Eventually(t, func() bool { return hub.Clients() == 0 && rec.connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginCheck(t *testing.T) {
	_, _, url := startHub(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	header := http.Header{}
	header.Set("Origin", "http://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:5173")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestClosedHubRejects(t *testing.T) {
	hub, _, url := startHub(t, Options{})
	hub.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
