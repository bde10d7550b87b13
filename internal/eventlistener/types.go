// internal/eventlistener/types.go
package eventlistener

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	methodLogsNotification = "logsNotification"

	writeTimeout         = 5 * time.Second
	dialTimeout          = 10 * time.Second
	reconnectMaxInterval = 5 * time.Second
)

// LogNotification mirrors the logsNotification frames pushed by the node
// after a logsSubscribe. Some providers nest the signature under value.
type LogNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Signature string `json:"signature"`
			Value     struct {
				Signature string `json:"signature"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (n *LogNotification) signature() string {
	if n.Params.Result.Signature != "" {
		return n.Params.Result.Signature
	}
	return n.Params.Result.Value.Signature
}

// EventListener holds one WebSocket subscription to the node's log stream.
// The initial dial happens in the constructor; once listening, a dropped
// connection is re-established with backoff for as long as the context
// lives.
type EventListener struct {
	wsURL     string
	logger    *zap.Logger
	mu        sync.Mutex
	conn      net.Conn
	closeOnce sync.Once
	done      chan struct{}
}
