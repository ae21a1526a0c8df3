package main

import (
	"context"

	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

var netLog = log.Logger("authoritydiscovery.cmd.network")

// loggingNetwork is a minimal authoritydiscovery.NetworkProvider that
// logs every call instead of driving a real DHT transport. It exists
// so this binary can exercise the Fx wiring end to end; embedding
// applications replace it with their own DHT-backed implementation.
type loggingNetwork struct {
	peerID    types.PeerID
	externals []multiaddr.Multiaddr
}

func newLoggingNetwork(peerID types.PeerID, externals []multiaddr.Multiaddr) *loggingNetwork {
	return &loggingNetwork{peerID: peerID, externals: externals}
}

func (n *loggingNetwork) SetPriorityGroup(_ context.Context, groupID string, peers []multiaddr.Multiaddr) error {
	netLog.Info("set priority group", "group", groupID, "peers", len(peers))
	return nil
}

func (n *loggingNetwork) PutValue(_ context.Context, key types.RecordKey, value []byte) {
	netLog.Info("put value", "key", key.String(), "bytes", len(value))
}

func (n *loggingNetwork) GetValue(_ context.Context, key types.RecordKey) {
	netLog.Info("get value issued", "key", key.String())
}

func (n *loggingNetwork) LocalPeerID() types.PeerID { return n.peerID }

func (n *loggingNetwork) ExternalAddresses() []multiaddr.Multiaddr { return n.externals }

// staticRuntimeAPI reports a fixed authority set, standing in for a
// real chain runtime query.
type staticRuntimeAPI struct {
	authorities []types.AuthorityID
}

func (r *staticRuntimeAPI) Authorities(_ context.Context) ([]types.AuthorityID, error) {
	return r.authorities, nil
}
