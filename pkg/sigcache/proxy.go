package sigcache

import "context"

// Commissioner is the minimal capability RemoteProxy needs from a
// worker-commission client (pkg/worker.Client satisfies this): issue a
// named action with a payload and decode a reply. It is declared here,
// rather than importing pkg/worker directly, so sigcache never depends
// on the protocol package — only the other way around.
type Commissioner interface {
	Commission(ctx context.Context, action string, payload any, reply any) error
}

// RemoteProxy is the "shared-worker cache" of spec §4.5: it wraps a
// single transport multiplexed across consumers and satisfies Cache by
// commissioning get-range-start/get-range-end/get-signals on the remote
// worker. Output-side bookkeeping is not meaningful for a proxy (a
// remote reader worker owns its own output cache), so those methods
// return zero values; callers route writes through Commission directly.
type RemoteProxy struct {
	client Commissioner
}

// NewRemoteProxy wraps client for use as a SignalDataCache Cache.
func NewRemoteProxy(client Commissioner) *RemoteProxy {
	return &RemoteProxy{client: client}
}

type rangeReply struct {
	Value float64 `json:"value"`
}

func (p *RemoteProxy) InputRangeStart(ctx context.Context) (float64, error) {
	var reply rangeReply
	if err := p.client.Commission(ctx, "get-range-start", nil, &reply); err != nil {
		return 0, err
	}
	return reply.Value, nil
}

func (p *RemoteProxy) InputRangeEnd(ctx context.Context) (float64, error) {
	var reply rangeReply
	if err := p.client.Commission(ctx, "get-range-end", nil, &reply); err != nil {
		return 0, err
	}
	return reply.Value, nil
}

type signalsReply struct {
	Signals []SignalPart `json:"signals"`
}

func (p *RemoteProxy) InputSignals(ctx context.Context) ([]SignalPart, error) {
	var reply signalsReply
	if err := p.client.Commission(ctx, "get-signals", nil, &reply); err != nil {
		return nil, err
	}
	return reply.Signals, nil
}

func (p *RemoteProxy) OutputRangeStart() float64            { return 0 }
func (p *RemoteProxy) OutputRangeEnd() float64               { return 0 }
func (p *RemoteProxy) OutputSignalSamplingRates() []float32  { return nil }
func (p *RemoteProxy) OutputSignalUpdatedRanges() [][2]int   { return nil }
func (p *RemoteProxy) InsertSignals(context.Context, Part) error { return nil }
func (p *RemoteProxy) AsCachePart() Part                     { return Part{} }
func (p *RemoteProxy) InvalidateOutputSignals()               {}
func (p *RemoteProxy) ReleaseBuffers()                        {}
