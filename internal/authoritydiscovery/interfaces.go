package authoritydiscovery

import (
	"context"

	"github.com/dep2p/authority-discovery/pkg/authkey"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

// NetworkProvider is the set of networking-layer capabilities the
// worker consumes. Out of scope: the concrete DHT transport.
type NetworkProvider interface {
	SetPriorityGroup(ctx context.Context, groupID string, peers []multiaddr.Multiaddr) error
	PutValue(ctx context.Context, key types.RecordKey, value []byte)
	GetValue(ctx context.Context, key types.RecordKey)
	LocalPeerID() types.PeerID
	ExternalAddresses() []multiaddr.Multiaddr
}

// DHTKeyValue is one element of a ValueFoundEvent.
type DHTKeyValue struct {
	Key   types.RecordKey
	Value []byte
}

// DHTEvent is the lazy event stream the worker consumes. Variants
// other than ValueFoundEvent/ValueNotFoundEvent are logged and
// otherwise ignored.
type DHTEvent interface {
	isDHTEvent()
}

// ValueFoundEvent carries the (possibly multi-entry) result of a
// completed get.
type ValueFoundEvent struct {
	Values []DHTKeyValue
}

func (ValueFoundEvent) isDHTEvent() {}

// ValueNotFoundEvent reports a get that resolved with no value.
type ValueNotFoundEvent struct {
	Key types.RecordKey
}

func (ValueNotFoundEvent) isDHTEvent() {}

// OtherEvent is a catch-all for DHT event variants the worker does
// not act on beyond logging.
type OtherEvent struct {
	Description string
}

func (OtherEvent) isDHTEvent() {}

// RuntimeAPI yields the current authority set for a chain tip.
type RuntimeAPI interface {
	Authorities(ctx context.Context) ([]types.AuthorityID, error)
}

// KeySource is the external keystore contract the Publisher signs
// through. Re-exported so callers outside this package only need to
// import authoritydiscovery.
type KeySource = authkey.KeySource

// ServiceRequest is the single request kind exposed on the
// in-process service channel.
type ServiceRequest struct {
	Authority types.AuthorityID
	Reply     chan<- []multiaddr.Multiaddr
}
