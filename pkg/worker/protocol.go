// Package worker implements the commission protocol of spec §4.5: the
// request/response envelope, per-service `rn` sequencing, waiter
// lists, and the transports (in-process channel, WebSocket) that bind
// montage clients, montage workers, and file-reader workers together.
package worker

// Request is a commission sent to a worker. Actions that expect a
// reply carry RN; notifications the worker sends unprompted (like
// cache-signals) never do.
type Request struct {
	Action string         `json:"action"`
	RN     int64          `json:"rn,omitempty"`
	Props  map[string]any `json:"props,omitempty"`
}

// Response answers a Request with the same RN, or carries an
// unprompted notification when RN is zero.
type Response struct {
	Action  string         `json:"action"`
	RN      int64          `json:"rn,omitempty"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Handler processes a Request on the worker side and returns the
// Response to send back (Action/RN are filled in by the dispatcher).
type Handler func(req Request) (map[string]any, error)
