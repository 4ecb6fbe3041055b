package transports

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketLink adapts a gorilla WebSocket connection to the Link
// interface. It works for both server-accepted connections (telephony leg)
// and client-dialed connections (agent leg). Writes are serialized with a
// mutex because gorilla connections support only one concurrent writer.
type WebSocketLink struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketLink wraps an established WebSocket connection
func NewWebSocketLink(conn *websocket.Conn) *WebSocketLink {
	return &WebSocketLink{conn: conn}
}

// Receive blocks until the next text or binary frame arrives. Control
// frames (ping/pong/close) are handled by the underlying library.
func (l *WebSocketLink) Receive() (Message, error) {
	for {
		msgType, data, err := l.conn.ReadMessage()
		if err != nil {
			return Message{}, err
		}

		switch msgType {
		case websocket.TextMessage:
			return Message{Type: TextMessage, Data: data}, nil
		case websocket.BinaryMessage:
			return Message{Type: BinaryMessage, Data: data}, nil
		default:
			// Skip anything else and keep reading
			continue
		}
	}
}

// SendText writes a text frame
func (l *WebSocketLink) SendText(data []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket text write: %w", err)
	}
	return nil
}

// SendBinary writes a binary frame
func (l *WebSocketLink) SendBinary(data []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("websocket binary write: %w", err)
	}
	return nil
}

// Close closes the underlying connection. Safe to call from any goroutine
// and more than once; pending reads unblock with an error.
func (l *WebSocketLink) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// IsExpectedClose reports whether err is a normal shutdown artifact rather
// than a genuine transport failure worth logging loudly.
func IsExpectedClose(err error) bool {
	if err == nil {
		return false
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
