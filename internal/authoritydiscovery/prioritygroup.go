package authoritydiscovery

import (
	"context"

	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
)

var priorityGroupLog = log.Logger("authoritydiscovery.prioritygroup")

// priorityGroupEmitter computes C6's deduplicated "authorities" peer
// set and hands it to the network layer.
type priorityGroupEmitter struct {
	groupID string
	cache   *addressCache
	network NetworkProvider
}

func newPriorityGroupEmitter(groupID string, cache *addressCache, network NetworkProvider) *priorityGroupEmitter {
	return &priorityGroupEmitter{groupID: groupID, cache: cache, network: network}
}

// emit computes the union of cached addresses, strips any address
// whose terminal PeerId is the local node (belt-and-braces: ingest
// already filters this), and calls SetPriorityGroup. The call is
// idempotent from the network's perspective.
func (e *priorityGroupEmitter) emit(ctx context.Context) error {
	local := e.network.LocalPeerID()
	all := e.cache.allAddresses()

	peers := make([]multiaddr.Multiaddr, 0, len(all))
	for _, addr := range all {
		if pid, ok := addr.PeerID(); ok && pid == string(local) {
			continue
		}
		peers = append(peers, addr)
	}

	if err := e.network.SetPriorityGroup(ctx, e.groupID, peers); err != nil {
		priorityGroupLog.Warn("network refused priority group", "group", e.groupID, "err", err)
		return newWorkerError("emit_priority_group", ErrNetworkAccept, err.Error())
	}
	return nil
}
