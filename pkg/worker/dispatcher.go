package worker

import "encoding/json"

// Dispatcher is the worker side of the protocol: it receives
// Requests over a transport, validates props against each action's
// schema, and replies with a Response carrying the handler's result
// or its failure (spec §4.5 steps 2-3).
type Dispatcher struct {
	transport Transport
	routes    map[string]route
}

type route struct {
	schema  Schema
	handler Handler
}

// NewDispatcher wires a Dispatcher to transport's incoming messages.
func NewDispatcher(transport Transport) *Dispatcher {
	d := &Dispatcher{transport: transport, routes: make(map[string]route)}
	transport.SetReceiver(d.handleIncoming)
	return d
}

// Register binds action to handler, validated by schema before the
// handler runs. A nil schema skips validation.
func (d *Dispatcher) Register(action string, schema Schema, handler Handler) {
	d.routes[action] = route{schema: schema, handler: handler}
}

// handleIncoming dispatches each request on its own goroutine so one
// long-running action (a background cache fill, say) never blocks the
// transport's receive loop from delivering the next one.
func (d *Dispatcher) handleIncoming(msg []byte) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}
	go d.dispatch(req)
}

func (d *Dispatcher) dispatch(req Request) {
	r, ok := d.routes[req.Action]
	if !ok {
		d.reply(req, nil, errUnknownAction(req.Action))
		return
	}
	if r.schema != nil {
		if err := r.schema.Validate(req.Props); err != nil {
			d.reply(req, nil, err)
			return
		}
	}
	data, err := r.handler(req)
	d.reply(req, data, err)
}

func (d *Dispatcher) reply(req Request, data map[string]any, err error) {
	resp := Response{Action: req.Action, RN: req.RN, Success: err == nil, Data: data}
	if err != nil {
		resp.Error = err.Error()
	}
	encoded, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return
	}
	_ = d.transport.Send(encoded)
}

// Notify sends an unprompted, RN-less message to the client — the
// worker-originated notifications of spec §4.5 (cache-signals).
func (d *Dispatcher) Notify(action string, data map[string]any) error {
	encoded, err := json.Marshal(Response{Action: action, Success: true, Data: data})
	if err != nil {
		return err
	}
	return d.transport.Send(encoded)
}

type unknownActionError struct{ action string }

func (e unknownActionError) Error() string { return "worker: unknown action " + e.action }

func errUnknownAction(action string) error { return unknownActionError{action: action} }
