package worker

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WSTransport is a Transport over a gorilla/websocket connection, for
// a montage worker or file-reader worker running as a separate
// process from the orchestrator. The send-side pump mirrors the
// teacher's Client.writePump: a buffered channel feeding a single
// goroutine so concurrent callers never write to the connection
// directly.
type WSTransport struct {
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	receiver func(msg []byte)
}

// NewWSTransport wraps an already-established connection and starts
// its read and write pumps.
func NewWSTransport(conn *websocket.Conn) *WSTransport {
	t := &WSTransport{conn: conn, send: make(chan []byte, 64)}
	go t.writePump()
	go t.readPump()
	return t
}

func (t *WSTransport) writePump() {
	for msg := range t.send {
		if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (t *WSTransport) readPump() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		t.mu.Lock()
		r := t.receiver
		t.mu.Unlock()
		if r != nil {
			r(data)
		}
	}
}

func (t *WSTransport) Send(msg []byte) error {
	select {
	case t.send <- msg:
		return nil
	default:
		return ErrTransportClosed
	}
}

func (t *WSTransport) SetReceiver(fn func(msg []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.receiver = fn
}

func (t *WSTransport) Close() error {
	close(t.send)
	return t.conn.Close()
}
