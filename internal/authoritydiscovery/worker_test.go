package authoritydiscovery

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/authority-discovery/pkg/authkey"
	"github.com/dep2p/authority-discovery/pkg/types"
)

func newTestWorker(t *testing.T, role types.Role, localPeer types.PeerID, runtime RuntimeAPI, keys KeySource) (*Worker, *fakeNetwork, *clock.Mock, chan DHTEvent) {
	t.Helper()
	net := newFakeNetwork(localPeer, mustAddr(t, "/ip4/10.0.0.1/tcp/30333"))
	events := make(chan DHTEvent, 4)
	mock := clock.NewMock()
	cfg := NewConfig(
		WithRole(role),
		WithPublishInterval(10*time.Minute),
		WithInitialPublishDelay(30*time.Second),
		WithRefillInterval(10*time.Minute),
		WithMaxInFlightLookups(8),
	)
	w := NewWorker(cfg, net, keys, runtime, events, nil, mock)
	return w, net, mock, events
}

// TestWorkerPublishesAfterInitialDelay covers S1: the first publish
// happens promptly after the configured initial delay, not only after
// a full steady-state interval.
func TestWorkerPublishesAfterInitialDelay(t *testing.T) {
	priv := testSigningKey(t, 41)
	authority := priv.PublicKey().AuthorityID()
	keys := authkey.NewStaticKeySource(priv)
	runtime := &fakeRuntimeAPI{authorities: []types.AuthorityID{authority}}

	w, net, mock, events := newTestWorker(t, types.RoleAuthority, "local-peer", runtime, keys)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	waitForLoopReady()
	mock.Add(30 * time.Second)
	waitForPutCalls(t, net, 1)

	net.mu.Lock()
	require.Len(t, net.putCalls, 1)
	require.True(t, net.putCalls[0].Key.Equal(authority.RecordKey()))
	net.mu.Unlock()

	cancel()
	<-done
	_ = events
}

// TestWorkerQueuingTicksDeliverPromptly covers the "queuing, not
// sliding" tick requirement (§4.7/§9): advancing the mock clock past
// the initial delay and a full publish period in one jump still
// delivers both the initial publish and the publish tick that fell due
// during the jump; neither is lost.
func TestWorkerQueuingTicksDeliverPromptly(t *testing.T) {
	priv := testSigningKey(t, 42)
	authority := priv.PublicKey().AuthorityID()
	keys := authkey.NewStaticKeySource(priv)
	runtime := &fakeRuntimeAPI{authorities: []types.AuthorityID{authority}}

	w, net, mock, _ := newTestWorker(t, types.RoleAuthority, "local-peer", runtime, keys)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	waitForLoopReady()
	// Skip past the initial delay and straight through one full publish
	// interval in a single jump: the initial-delay timer and the publish
	// tick that was due each produce one put.
	mock.Add(30*time.Second + 10*time.Minute)
	waitForPutCalls(t, net, 2)

	cancel()
	<-done
}

// TestWorkerSentryRoleNeverPublishes covers §1/§4.3: a Sentry-role
// worker must not publish even when its KeySource holds a key for an
// authority present in the runtime's current set.
func TestWorkerSentryRoleNeverPublishes(t *testing.T) {
	priv := testSigningKey(t, 44)
	authority := priv.PublicKey().AuthorityID()
	keys := authkey.NewStaticKeySource(priv)
	runtime := &fakeRuntimeAPI{authorities: []types.AuthorityID{authority}}

	w, net, mock, _ := newTestWorker(t, types.RoleSentry, "local-peer", runtime, keys)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	waitForLoopReady()
	mock.Add(30*time.Second + 10*time.Minute)
	waitForLoopReady()

	net.mu.Lock()
	require.Empty(t, net.putCalls)
	net.mu.Unlock()

	cancel()
	<-done
}

// TestWorkerStopsOnStreamEnd covers S3/§4.7: closing the DHT event
// channel terminates Run cleanly with a nil error.
func TestWorkerStopsOnStreamEnd(t *testing.T) {
	runtime := &fakeRuntimeAPI{authorities: nil}
	keys := authkey.NewStaticKeySource()

	w, _, _, events := newTestWorker(t, types.RoleSentry, "local-peer", runtime, keys)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(context.Background()) }()

	close(events)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after event stream closed")
	}
}

// TestWorkerRoutesValueFoundEvent covers the C5 routing leg of S2 at
// the Worker Loop level: a ValueFound event delivered on the event
// channel reaches the ingest pipeline and populates the cache.
func TestWorkerRoutesValueFoundEvent(t *testing.T) {
	priv := testSigningKey(t, 43)
	authority := priv.PublicKey().AuthorityID()
	keys := authkey.NewStaticKeySource(priv)
	runtime := &fakeRuntimeAPI{authorities: []types.AuthorityID{authority}}

	w, _, _, events := newTestWorker(t, types.RoleSentry, "local-peer", runtime, keys)
	w.queue.refill([]types.AuthorityID{authority})
	w.queue.startNewLookups(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	remoteAddr := "/ip4/10.0.0.9/tcp/30333/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N"
	value := signRecord(t, priv, remoteAddr)
	events <- ValueFoundEvent{Values: []DHTKeyValue{{Key: authority.RecordKey(), Value: value}}}

	require.Eventually(t, func() bool {
		got, ok := w.cache.get(authority)
		return ok && len(got) == 1 && got[0].String() == remoteAddr
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

// waitForLoopReady gives the Worker Loop's goroutine a chance to
// register its tickers/timer against the mock clock and enter its
// select before the test advances time. Run sets up every clock
// primitive synchronously before blocking, so a short real-time
// pause is enough to avoid racing that setup.
func waitForLoopReady() {
	time.Sleep(20 * time.Millisecond)
}

func waitForPutCalls(t *testing.T, net *fakeNetwork, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		net.mu.Lock()
		got := len(net.putCalls)
		net.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d put calls", n)
}
