package worker

import "errors"

// ErrTransportClosed is returned by Send once the transport has been
// closed.
var ErrTransportClosed = errors.New("worker: transport closed")

// Transport delivers encoded envelopes between two commission
// endpoints. Send is called by the client (or worker) to hand off an
// outgoing message; SetReceiver registers the callback invoked for
// each incoming message. Implementations: ChannelTransport
// (in-process, single binary) and WSTransport (gorilla/websocket,
// cross-process — grounded on the teacher's Client/writePump pattern).
type Transport interface {
	Send(msg []byte) error
	SetReceiver(func(msg []byte))
	Close() error
}
