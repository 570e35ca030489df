package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dma-labs/biomontage/pkg/demoreader"
	"github.com/dma-labs/biomontage/pkg/montage"
	"github.com/dma-labs/biomontage/pkg/sigcache"
)

func newTestMontageSetup(t *testing.T, preCache bool) (*demoreader.DemoReader, *montage.Processor) {
	t.Helper()
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

	proc := montage.NewProcessor(d.Reader, sigcache.NewLocal(testLog()), 100, []montage.ChannelConfig{
		{Name: "out0", Visible: true, Active: []montage.WeightedRef{{Index: 0, Weight: 1}}},
	}, montage.Settings{PreCache: preCache}, nil, testLog())
	return d, proc
}

// TestGetSignalsEmitsCacheSignalsNotification exercises the montage
// worker's cache-signals wiring end to end: a PreCache get-signals
// commission should both return a part and, because it had to compute
// fresh, cache it and notify the client (spec §4.5's cache-signals
// progress notification).
func TestGetSignalsEmitsCacheSignalsNotification(t *testing.T) {
	_, proc := newTestMontageSetup(t, true)

	workerSide, clientSide := NewChannelPair()
	dispatcher := NewDispatcher(workerSide)
	NewMontageWorker(proc, dispatcher)

	var mu sync.Mutex
	var notifications []Response
	notified := make(chan struct{}, 1)
	client := NewClient(clientSide, func(resp Response) {
		mu.Lock()
		notifications = append(notifications, resp)
		mu.Unlock()
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var reply map[string]any
	if err := client.Commission(ctx, "get-signals", map[string]any{"range": []float64{0, 5}}, &reply); err != nil {
		t.Fatalf("get-signals commission: %v", err)
	}
	if _, ok := reply["events"]; !ok {
		t.Fatalf("get-signals response missing events key: %+v", reply)
	}
	if _, ok := reply["interruptions"]; !ok {
		t.Fatalf("get-signals response missing interruptions key: %+v", reply)
	}

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cache-signals notification")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(notifications) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifications))
	}
	got := notifications[0]
	if got.Action != "cache-signals" {
		t.Fatalf("expected cache-signals notification, got action %q", got.Action)
	}
	if got.RN != 0 {
		t.Fatalf("cache-signals notification must carry no rn, got %d", got.RN)
	}
	if _, ok := got.Data["range"]; !ok {
		t.Fatalf("cache-signals notification missing range: %+v", got.Data)
	}
}

// TestReleaseCacheReleasesReaderAndOutputCache exercises release-cache
// (spec §4.5): after the commission succeeds, the reader's cache is
// torn down, so a subsequent get-signals fails instead of silently
// serving stale data.
func TestReleaseCacheReleasesReaderAndOutputCache(t *testing.T) {
	d, proc := newTestMontageSetup(t, false)

	workerSide, clientSide := NewChannelPair()
	dispatcher := NewDispatcher(workerSide)
	NewMontageWorker(proc, dispatcher)
	client := NewClient(clientSide, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var getReply map[string]any
	if err := client.Commission(ctx, "get-signals", map[string]any{"range": []float64{0, 1}}, &getReply); err != nil {
		t.Fatalf("get-signals before release: %v", err)
	}

	if err := client.Commission(ctx, "release-cache", nil, nil); err != nil {
		t.Fatalf("release-cache commission: %v", err)
	}

	if d.Reader.Cache() != nil {
		t.Fatalf("expected reader cache to be released, still present")
	}

	if err := client.Commission(ctx, "get-signals", map[string]any{"range": []float64{0, 1}}, &getReply); err == nil {
		t.Fatal("expected get-signals to fail after release-cache, got nil error")
	}
}
