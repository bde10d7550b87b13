package eventlistener

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockWSServer struct {
	server   *httptest.Server
	handler  func(conn net.Conn)
	conns    []net.Conn
	connLock sync.Mutex
}

func newMockWSServer(handler func(conn net.Conn)) *mockWSServer {
	mock := &mockWSServer{handler: handler}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}

		mock.connLock.Lock()
		mock.conns = append(mock.conns, conn)
		mock.connLock.Unlock()

		go mock.handler(conn)
	}))

	return mock
}

func (m *mockWSServer) Close() {
	m.server.Close()
	m.connLock.Lock()
	defer m.connLock.Unlock()
	for _, conn := range m.conns {
		conn.Close()
	}
}

func (m *mockWSServer) URL() string {
	return "ws" + strings.TrimPrefix(m.server.URL, "http")
}

// readSubscription consumes the logsSubscribe request the listener sends on
// connect.
func readSubscription(t *testing.T, conn net.Conn) string {
	t.Helper()
	data, _, err := wsutil.ReadClientData(conn)
	require.NoError(t, err)
	return string(data)
}

func notification(signature string) []byte {
	return []byte(`{"method":"logsNotification","params":{"result":{"signature":"` + signature + `"}}}`)
}

func TestListener_DispatchesSignatures(t *testing.T) {
	subReceived := make(chan string, 1)

	mock := newMockWSServer(func(conn net.Conn) {
		subReceived <- readSubscription(t, conn)
		require.NoError(t, wsutil.WriteServerText(conn, notification("sig123")))
	})
	defer mock.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	listener, err := NewEventListener(ctx, mock.URL(), zap.NewNop())
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan string, 1)
	go func() {
		_ = listener.Listen(ctx, func(_ context.Context, signature string) {
			received <- signature
		})
	}()

	select {
	case sub := <-subReceived:
		assert.Contains(t, sub, "logsSubscribe")
		assert.Contains(t, sub, "confirmed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for subscription request")
	}

	select {
	case sig := <-received:
		assert.Equal(t, "sig123", sig)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for dispatched signature")
	}
}

func TestListener_DropsUnusableFrames(t *testing.T) {
	mock := newMockWSServer(func(conn net.Conn) {
		readSubscription(t, conn)

		frames := [][]byte{
			[]byte("{not json"),
			[]byte(`{"method":"accountNotification","params":{"result":{"signature":"wrongMethod"}}}`),
			[]byte(`{"method":"logsNotification","params":{"result":{}}}`),
			// Signature nested under value, as some providers send it.
			[]byte(`{"method":"logsNotification","params":{"result":{"value":{"signature":"nested"}}}}`),
			notification("plain"),
		}
		for _, frame := range frames {
			require.NoError(t, wsutil.WriteServerText(conn, frame))
		}
	})
	defer mock.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	listener, err := NewEventListener(ctx, mock.URL(), zap.NewNop())
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan string, 8)
	go func() {
		_ = listener.Listen(ctx, func(_ context.Context, signature string) {
			received <- signature
		})
	}()

	got := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case sig := <-received:
			got[sig] = true
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for dispatched signatures")
		}
	}
	assert.True(t, got["nested"])
	assert.True(t, got["plain"])

	select {
	case sig := <-received:
		t.Fatalf("unexpected extra dispatch: %q", sig)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestListener_ReconnectsAfterDrop(t *testing.T) {
	var connCount int
	var mu sync.Mutex

	mock := newMockWSServer(func(conn net.Conn) {
		mu.Lock()
		connCount++
		current := connCount
		mu.Unlock()

		readSubscription(t, conn)
		if current == 1 {
			conn.Close()
			return
		}
		require.NoError(t, wsutil.WriteServerText(conn, notification("afterReconnect")))
	})
	defer mock.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, err := NewEventListener(ctx, mock.URL(), zap.NewNop())
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan string, 1)
	go func() {
		_ = listener.Listen(ctx, func(_ context.Context, signature string) {
			received <- signature
		})
	}()

	select {
	case sig := <-received:
		assert.Equal(t, "afterReconnect", sig)
	case <-time.After(4 * time.Second):
		t.Fatal("timeout waiting for event after reconnection")
	}
}

func TestListener_CloseUnblocksListen(t *testing.T) {
	mock := newMockWSServer(func(conn net.Conn) {
		readSubscription(t, conn)
		// Keep the connection open, send nothing.
	})
	defer mock.Close()

	listener, err := NewEventListener(context.Background(), mock.URL(), zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- listener.Listen(context.Background(), func(context.Context, string) {})
	}()

	time.Sleep(100 * time.Millisecond)
	listener.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestListener_DialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewEventListener(ctx, "ws://127.0.0.1:1", zap.NewNop())
	assert.Error(t, err)
}
