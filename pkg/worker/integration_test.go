package worker

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dma-labs/biomontage/pkg/demoreader"
	"github.com/dma-labs/biomontage/pkg/montage"
	"github.com/dma-labs/biomontage/pkg/reader"
	"github.com/dma-labs/biomontage/pkg/sigcache"
)

func testLog() zerolog.Logger { return zerolog.New(io.Discard) }

// TestGetSignalsOverCommissionProtocol exercises the full path spec
// §4.5 describes: a reader worker on one side of a transport serving
// raw signals, and a montage client commissioning get-signals against
// it through a RemoteProxy cache (closing the loop between pkg/worker
// and pkg/sigcache.RemoteProxy).
func TestGetSignalsOverCommissionProtocol(t *testing.T) {
	d := demoreader.New([]demoreader.ChannelSpec{
		{Name: "c0", FrequencyHz: 5, AmplitudeUV: 10},
	}, 100, 5, 1, testLog())
	if err := d.SetupCacheWithInput(); err != nil {
		t.Fatalf("SetupCacheWithInput: %v", err)
	}
	part := d.GenerateSignals(0, 5)
	if err := d.Cache().InsertSignals(context.Background(), sigcache.Part{
		Start: 0, End: 5, Signals: part.Signals,
	}); err != nil {
		t.Fatalf("InsertSignals: %v", err)
	}

	readerSide, montageSide := NewChannelPair()
	dispatcher := NewDispatcher(readerSide)
	NewReaderWorker(d.Reader, dispatcher)

	client := NewClient(montageSide, nil)
	proxy := sigcache.NewRemoteProxy(client)

	montageReader := reader.New(d.Coords(), nil, testLog())
	if err := montageReader.SetupWithCache(proxy); err != nil {
		t.Fatalf("SetupWithCache: %v", err)
	}

	proc := montage.NewProcessor(montageReader, sigcache.NewLocal(testLog()), 100, []montage.ChannelConfig{
		{Name: "out0", Visible: true, Active: []montage.WeightedRef{{Index: 0, Weight: 1}}},
	}, montage.Settings{}, nil, testLog())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := proc.GetSignals(ctx, 0, 5, montage.ChannelFilter{})
	if err != nil {
		t.Fatalf("GetSignals over commission protocol: %v", err)
	}
	if len(result.Signals) != 1 || len(result.Signals[0].Data) != 500 {
		t.Fatalf("expected 500 samples, got %+v", result)
	}
}
