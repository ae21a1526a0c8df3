package authoritydiscovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

// TestPriorityGroupExcludesLocalPeer covers invariant 4 and the
// belt-and-braces check described in SPEC_FULL.md §4.6.
func TestPriorityGroupExcludesLocalPeer(t *testing.T) {
	const localPeerID = "QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N"
	net := newFakeNetwork(types.PeerID(localPeerID))
	cache := newAddressCache(10, 100)

	authority := sampleAuthority(t, 21)
	own := mustAddr(t, "/ip4/10.0.0.1/tcp/30333/p2p/"+localPeerID)
	other := mustAddr(t, "/ip4/10.0.0.2/tcp/30334/p2p/QmaaQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx6X")
	cache.insert(authority, []multiaddr.Multiaddr{own, other})

	emitter := newPriorityGroupEmitter("authorities", cache, net)
	require.NoError(t, emitter.emit(context.Background()))

	call, ok := net.lastPriorityGroup()
	require.True(t, ok)
	require.Equal(t, "authorities", call.GroupID)
	require.Len(t, call.Peers, 1)
	require.Equal(t, other.String(), call.Peers[0].String())
}

func TestPriorityGroupPublishDiscoverCycle(t *testing.T) {
	// S2: Node A's published address, ingested by Node B, produces
	// exactly the priority-group emission described in the scenario.
	priv := testSigningKey(t, 22)
	authority := priv.PublicKey().AuthorityID()
	const peerA = "QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N"
	addr := "/ip6/2001:db8::/tcp/30333/p2p/" + peerA

	netB := newFakeNetwork("node-b-peer-id")
	cache := newAddressCache(10, 100)
	queue := newLookupQueue(8, netB, newMetrics(nil))
	pipeline := newIngestPipeline(cache, queue, netB, newMetrics(nil))

	queue.refill([]types.AuthorityID{authority})
	queue.startNewLookups(context.Background())

	value := signRecord(t, priv, addr)
	pipeline.handleValueFound(context.Background(), []DHTKeyValue{
		{Key: authority.RecordKey(), Value: value},
	})

	emitter := newPriorityGroupEmitter("authorities", cache, netB)
	require.NoError(t, emitter.emit(context.Background()))

	call, ok := netB.lastPriorityGroup()
	require.True(t, ok)
	require.Len(t, call.Peers, 1)
	require.Equal(t, addr, call.Peers[0].String())
}
