package authoritydiscovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/authority-discovery/pkg/types"
)

func authoritySet(t *testing.T, n int) []types.AuthorityID {
	t.Helper()
	ids := make([]types.AuthorityID, n)
	for i := 0; i < n; i++ {
		ids[i] = sampleAuthority(t, byte(i+1))
	}
	return ids
}

// TestLookupThrottling exercises S9: 20 remote authorities, no DHT
// responses yet, exactly MaxInFlightLookups gets issued and
// requests_pending = 20 - MaxInFlightLookups.
func TestLookupThrottling(t *testing.T) {
	const maxInFlight = 8
	net := newFakeNetwork("local-peer")
	q := newLookupQueue(maxInFlight, net, newMetrics(nil))

	authorities := authoritySet(t, 20)
	q.refill(authorities)
	q.startNewLookups(context.Background())

	require.Equal(t, maxInFlight, net.getCallCount())
	require.Equal(t, maxInFlight, q.inFlightCount())
	require.Equal(t, 20-maxInFlight, q.pendingCount())
}

func TestLookupQueueOnResponseFreesSlot(t *testing.T) {
	const maxInFlight = 2
	net := newFakeNetwork("local-peer")
	q := newLookupQueue(maxInFlight, net, newMetrics(nil))

	authorities := authoritySet(t, 3)
	q.refill(authorities)
	q.startNewLookups(context.Background())
	require.Equal(t, 2, net.getCallCount())
	require.Equal(t, 1, q.pendingCount())

	key := authorities[0].RecordKey()
	q.onResponse(context.Background(), key)

	require.Equal(t, 3, net.getCallCount())
	require.Equal(t, 0, q.pendingCount())
	require.Equal(t, 2, q.inFlightCount())
}

func TestLookupQueueRefillExcludesInFlight(t *testing.T) {
	net := newFakeNetwork("local-peer")
	q := newLookupQueue(8, net, newMetrics(nil))

	authorities := authoritySet(t, 3)
	q.refill(authorities)
	q.startNewLookups(context.Background())
	require.Equal(t, 0, q.pendingCount())
	require.Equal(t, 3, q.inFlightCount())

	q.refill(authorities)
	require.Equal(t, 0, q.pendingCount(), "already in-flight authorities must not be re-queued")
}
