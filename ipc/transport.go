package ipc

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport moves envelopes to and from the engine bridge. Read and Write
// may be called from different goroutines; Close unblocks a pending Read.
type Transport interface {
	Read() (Envelope, error)
	Write(env Envelope) error
	Close() error
}

// streamTransport frames envelopes with a length prefix over a byte stream
// such as a Unix socket.
type streamTransport struct {
	rw io.ReadWriteCloser
	mu sync.Mutex
}

func NewStreamTransport(rw io.ReadWriteCloser) Transport {
	return &streamTransport{rw: rw}
}

func (s *streamTransport) Read() (Envelope, error) { return ReadEnvelope(s.rw) }

func (s *streamTransport) Write(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteEnvelope(s.rw, env)
}

func (s *streamTransport) Close() error { return s.rw.Close() }

// wsTransport sends one envelope per websocket text message.
type wsTransport struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// DialWebSocket connects to an engine bridge that speaks websocket instead
// of the local socket protocol.
func DialWebSocket(ctx context.Context, url string) (Transport, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocketTransport(ws), nil
}

func NewWebSocketTransport(ws *websocket.Conn) Transport {
	return &wsTransport{ws: ws}
}

func (t *wsTransport) Read() (Envelope, error) {
	for {
		kind, payload, err := t.ws.ReadMessage()
		if err != nil {
			return Envelope{}, fmt.Errorf("read message: %w", err)
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		return decodeEnvelope(payload)
	}
}

func (t *wsTransport) Write(env Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	_ = t.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.mu.Unlock()
	return t.ws.Close()
}
