package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrSuperseded is the rejection reason for a pending commission
// overwritten by a later one on the same action (spec §4.5 step 1).
var ErrSuperseded = errors.New("worker: commission superseded")

type pendingCommission struct {
	action string
	result chan Response
}

// Client is the commissioning side of the protocol: it allocates a
// monotonically increasing rn per outgoing request, tracks pending
// commissions, and resolves them as responses arrive (spec §4.5's
// commission lifecycle). It satisfies sigcache.Commissioner.
type Client struct {
	transport Transport
	id        string // this consumer's id, for multiplexed shared-worker ports

	rn int64

	mu       sync.Mutex
	pending  map[int64]*pendingCommission
	byAction map[string][]int64

	waitersMu sync.Mutex
	waiters   map[string][]chan struct{}
	done      map[string]bool

	notify func(Response)
}

// NewClient wraps transport for commissioning. notify, if non-nil, is
// invoked for every message arriving without an rn (rn == 0): the
// unprompted, from-worker notifications like cache-signals (spec §4.5).
// A response whose rn matches no pending commission is dropped.
func NewClient(transport Transport, notify func(Response)) *Client {
	c := &Client{
		transport: transport,
		id:        uuid.NewString(),
		pending:   make(map[int64]*pendingCommission),
		byAction:  make(map[string][]int64),
		waiters:   make(map[string][]chan struct{}),
		done:      make(map[string]bool),
		notify:    notify,
	}
	transport.SetReceiver(c.handleIncoming)
	return c
}

// ID returns this client's consumer id, the value annotated onto every
// outgoing commission as callerId (spec §4.5's shared-worker cache:
// "each commission annotates messages with the consumer's id so a
// single port can multiplex consumers").
func (c *Client) ID() string { return c.id }

func (c *Client) handleIncoming(msg []byte) {
	var resp Response
	if err := json.Unmarshal(msg, &resp); err != nil {
		return
	}
	if resp.RN == 0 {
		if c.notify != nil {
			c.notify(resp)
		}
		return
	}
	c.mu.Lock()
	p, ok := c.pending[resp.RN]
	if ok {
		delete(c.pending, resp.RN)
		c.removeFromAction(p.action, resp.RN)
	}
	c.mu.Unlock()
	if ok {
		p.result <- resp
	}
}

func (c *Client) removeFromAction(action string, rn int64) {
	ids := c.byAction[action]
	for i, id := range ids {
		if id == rn {
			c.byAction[action] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// commissionRequest posts action/props, optionally superseding any
// prior pending commission for the same action, and waits for the
// matching response or ctx cancellation.
func (c *Client) commissionRequest(ctx context.Context, action string, props map[string]any, overwriteRequest bool) (Response, error) {
	rn := atomic.AddInt64(&c.rn, 1)
	p := &pendingCommission{action: action, result: make(chan Response, 1)}

	if props == nil {
		props = make(map[string]any, 1)
	}
	props["callerId"] = c.id

	c.mu.Lock()
	if overwriteRequest {
		for _, priorRN := range append([]int64(nil), c.byAction[action]...) {
			if prior, ok := c.pending[priorRN]; ok {
				delete(c.pending, priorRN)
				prior.result <- Response{Action: action, RN: priorRN, Success: false, Error: ErrSuperseded.Error()}
			}
		}
		c.byAction[action] = nil
	}
	c.pending[rn] = p
	c.byAction[action] = append(c.byAction[action], rn)
	c.mu.Unlock()

	req := Request{Action: action, RN: rn, Props: props}
	data, err := json.Marshal(req)
	if err != nil {
		c.forgetPending(action, rn)
		return Response{}, err
	}
	if err := c.transport.Send(data); err != nil {
		c.forgetPending(action, rn)
		return Response{}, err
	}

	select {
	case resp := <-p.result:
		if !resp.Success {
			return resp, errors.New(resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		c.forgetPending(action, rn)
		return Response{}, ctx.Err()
	}
}

// forgetPending drops rn's bookkeeping after a commission that will
// never be fulfilled (send failure or caller-side cancellation) — left
// behind, it would leak forever, since handleIncoming only ever clears
// entries for rn values that actually receive a response.
func (c *Client) forgetPending(action string, rn int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, rn)
	c.removeFromAction(action, rn)
}

// Commission implements sigcache.Commissioner: issue action with
// payload, decode the response's data into reply (if reply is
// non-nil). Never supersedes a prior pending commission for action;
// use CommissionOverwrite for that.
func (c *Client) Commission(ctx context.Context, action string, payload any, reply any) error {
	props, err := toProps(payload)
	if err != nil {
		return err
	}
	resp, err := c.commissionRequest(ctx, action, props, false)
	if err != nil {
		return err
	}
	return decodeReply(resp, reply)
}

// CommissionOverwrite is Commission with overwriteRequest=true (spec
// §4.5 step 1, and §8's superseded-commission scenario S6).
func (c *Client) CommissionOverwrite(ctx context.Context, action string, payload any, reply any) error {
	props, err := toProps(payload)
	if err != nil {
		return err
	}
	resp, err := c.commissionRequest(ctx, action, props, true)
	if err != nil {
		return err
	}
	return decodeReply(resp, reply)
}

func toProps(payload any) (map[string]any, error) {
	if payload == nil {
		return nil, nil
	}
	if m, ok := payload.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeReply(resp Response, reply any) error {
	if reply == nil || resp.Data == nil {
		return nil
	}
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, reply)
}

// Await blocks until the named waiter list (set up by setup-worker /
// setup-cache) has been signalled, or ctx is done (spec §4.5's
// waiters: "callers of dependent actions must await these lists
// before dispatching").
func (c *Client) Await(ctx context.Context, name string) error {
	c.waitersMu.Lock()
	if c.done[name] {
		c.waitersMu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	c.waiters[name] = append(c.waiters[name], ch)
	c.waitersMu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signal marks the named waiter list complete, releasing every
// Await call registered against it, including future ones.
func (c *Client) Signal(name string) {
	c.waitersMu.Lock()
	defer c.waitersMu.Unlock()
	c.done[name] = true
	for _, ch := range c.waiters[name] {
		close(ch)
	}
	c.waiters[name] = nil
}
