package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishEncodesEvent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Publish("sale_recorded", map[string]string{"invoice_number": "20250101-00001"})

	require.Len(t, hub.Broadcast, 1)
	var event struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-hub.Broadcast, &event))
	assert.Equal(t, "sale_recorded", event.Type)
	assert.Equal(t, "20250101-00001", event.Data["invoice_number"])
}

func TestPublishDropsWhenQueueIsFull(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	for i := 0; i < cap(hub.Broadcast)+5; i++ {
		hub.Publish("stock_update", i)
	}
	assert.Len(t, hub.Broadcast, cap(hub.Broadcast))
}

func TestRunStopsOnCancel(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	hub.Publish("stock_update", nil)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func startHubServer(t *testing.T, hub *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(hub.Serve))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws"
}

func TestServeDeliversEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	conn, _, err := fastws.DefaultDialer.Dial(startHubServer(t, hub), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish("stock_update", map[string]int{"product_id": 7})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"stock_update"`)
}

func TestServeAfterStopReturns(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	conn, _, err := fastws.DefaultDialer.Dial(startHubServer(t, hub), nil)
	require.NoError(t, err)
	defer conn.Close()

	// The server side closes at once instead of waiting on a stopped hub
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection was left open")
	}
	assert.Equal(t, 0, hub.ClientCount())
}
