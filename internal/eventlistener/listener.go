// internal/eventlistener/listener.go
package eventlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"
)

// NewEventListener dials the WebSocket endpoint. A failure here is fatal for
// the caller: an engine that cannot hear events has nothing to do.
func NewEventListener(ctx context.Context, wsURL string, logger *zap.Logger) (*EventListener, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, _, err := ws.Dial(dialCtx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket %s: %w", wsURL, err)
	}

	return &EventListener{
		wsURL:  wsURL,
		conn:   conn,
		logger: logger.Named("listener"),
		done:   make(chan struct{}),
	}, nil
}

// Listen subscribes to the log stream and dispatches every transaction
// signature to handle in its own goroutine, so a slow candidate never blocks
// the read loop. Read failures trigger reconnection, not termination: the
// exit monitor must keep running on stale positions even when the feed is
// down. Listen returns nil once the context is cancelled or the listener is
// closed.
func (el *EventListener) Listen(ctx context.Context, handle func(ctx context.Context, signature string)) error {
	if err := el.subscribe(); err != nil {
		return err
	}
	el.logger.Info("🎧 Listening for transaction events", zap.String("url", el.wsURL))

	for {
		if el.stopped(ctx) {
			return nil
		}

		data, _, err := wsutil.ReadServerData(el.currentConn())
		if err != nil {
			if el.stopped(ctx) {
				return nil
			}
			el.logger.Warn("websocket read failed, reconnecting", zap.Error(err))
			if err := el.reconnect(ctx); err != nil {
				return nil
			}
			continue
		}

		el.dispatch(ctx, data, handle)
	}
}

// dispatch parses one frame. Anything that is not a well-formed
// logsNotification with a signature is dropped without ceremony; the stream
// is noisy and malformed frames are routine.
func (el *EventListener) dispatch(ctx context.Context, data []byte, handle func(ctx context.Context, signature string)) {
	var note LogNotification
	if err := json.Unmarshal(data, &note); err != nil {
		el.logger.Debug("dropping unparseable frame", zap.Error(err))
		return
	}
	if note.Method != methodLogsNotification {
		return
	}
	sig := note.signature()
	if sig == "" {
		return
	}

	go handle(ctx, sig)
}

// subscribe sends the logsSubscribe request on the current connection.
func (el *EventListener) subscribe() error {
	conn := el.currentConn()

	req := `{"jsonrpc":"2.0","id":1,"method":"logsSubscribe","params":["all",{"commitment":"confirmed"}]}`
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	defer conn.SetWriteDeadline(time.Time{})

	if err := wsutil.WriteClientText(conn, []byte(req)); err != nil {
		return fmt.Errorf("failed to send subscription request: %w", err)
	}
	return nil
}

// reconnect re-dials with exponential backoff until it succeeds, the context
// is cancelled or the listener is closed. There is no attempt cap: a feed
// outage of any length is survivable, missed events are simply lost.
func (el *EventListener) reconnect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = reconnectMaxInterval

	for {
		if el.stopped(ctx) {
			return ctx.Err()
		}

		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		conn, _, _, err := ws.Dial(dialCtx, el.wsURL)
		cancel()
		if err == nil {
			el.swapConn(conn)
			if err := el.subscribe(); err != nil {
				el.logger.Warn("resubscription failed", zap.Error(err))
				continue
			}
			el.logger.Info("✅ Reconnected to event stream", zap.String("url", el.wsURL))
			return nil
		}

		wait := bo.NextBackOff()
		el.logger.Warn("reconnect attempt failed",
			zap.Error(err), zap.Duration("retry_in", wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-el.done:
			return net.ErrClosed
		case <-time.After(wait):
		}
	}
}

func (el *EventListener) currentConn() net.Conn {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.conn
}

func (el *EventListener) swapConn(conn net.Conn) {
	el.mu.Lock()
	old := el.conn
	el.conn = conn
	el.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
}

func (el *EventListener) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-el.done:
		return true
	default:
		return false
	}
}

// Close tears down the connection and unblocks Listen. Safe to call more
// than once.
func (el *EventListener) Close() {
	el.closeOnce.Do(func() {
		close(el.done)
		el.mu.Lock()
		defer el.mu.Unlock()
		if el.conn != nil {
			_ = el.conn.Close()
		}
	})
}
