package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *LocalBroker) {
	t.Helper()
	broker := NewLocalBroker()
	hub := NewHub(broker, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		hub.Close()
	})

	require.Eventually(t, broker.Subscribed, time.Second, 5*time.Millisecond)
	return hub, broker
}

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Connected(userID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHubDeliversToEverySocketOfUser(t *testing.T) {
	hub, _ := startHub(t)
	alice := uuid.New()
	first := dial(t, hub, alice)
	second := dial(t, hub, alice)
	require.Eventually(t, func() bool { return hub.Connected(alice) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Notify(context.Background(), alice, KindNewMessage, map[string]string{"from": "bob"}))

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got Notification
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, KindNewMessage, got.Type)
		assert.JSONEq(t, `{"from":"bob"}`, string(got.Payload))
	}
}

func TestHubIgnoresOtherUsers(t *testing.T) {
	hub, _ := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	conn := dial(t, hub, alice)

	require.NoError(t, hub.Notify(context.Background(), bob, KindConnectionUpdate, nil))
	require.NoError(t, hub.Notify(context.Background(), alice, KindConnectionUpdate, nil))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, KindConnectionUpdate, got.Type)
	assert.Empty(t, got.Payload)
}

func TestHubUnregistersClosedSocket(t *testing.T) {
	hub, _ := startHub(t)
	alice := uuid.New()
	conn := dial(t, hub, alice)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(alice) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(NewLocalBroker(), nil, zap.NewNop())
	alice := uuid.New()
	slow := &Client{hub: hub, userID: alice, send: make(chan []byte, 1)}
	hub.register(slow)

	hub.deliver(Envelope{UserID: alice, Type: KindNewMessage})
	assert.Equal(t, 1, hub.Connected(alice))

	hub.deliver(Envelope{UserID: alice, Type: KindNewMessage})
	assert.Equal(t, 0, hub.Connected(alice))

	frame, ok := <-slow.send
	require.True(t, ok)
	var got Notification
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, KindNewMessage, got.Type)
	_, ok = <-slow.send
	assert.False(t, ok, "send channel is closed once the client is dropped")
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	check := originChecker([]string{"https://app.jewelconnect.io"})
	assert.True(t, check(req("https://app.jewelconnect.io")))
	assert.True(t, check(req("")))
	assert.False(t, check(req("https://evil.example")))

	assert.True(t, originChecker([]string{"*"})(req("https://anything.example")))
}
