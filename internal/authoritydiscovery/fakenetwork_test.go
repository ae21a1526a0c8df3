package authoritydiscovery

import (
	"context"
	"sync"

	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

// fakeNetwork is a hand-written NetworkProvider test double, in the
// style of the teacher's own TestNetwork-shaped fakes: it records
// every call instead of generating a mock.
type fakeNetwork struct {
	mu sync.Mutex

	peerID    types.PeerID
	externals []multiaddr.Multiaddr

	putCalls            []putCall
	getCalls            []types.RecordKey
	priorityGroupCalls  []priorityGroupCall
	setPriorityGroupErr error
}

type putCall struct {
	Key   types.RecordKey
	Value []byte
}

type priorityGroupCall struct {
	GroupID string
	Peers   []multiaddr.Multiaddr
}

func newFakeNetwork(peerID types.PeerID, externals ...multiaddr.Multiaddr) *fakeNetwork {
	return &fakeNetwork{peerID: peerID, externals: externals}
}

func (f *fakeNetwork) SetPriorityGroup(_ context.Context, groupID string, peers []multiaddr.Multiaddr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priorityGroupCalls = append(f.priorityGroupCalls, priorityGroupCall{GroupID: groupID, Peers: peers})
	return f.setPriorityGroupErr
}

func (f *fakeNetwork) PutValue(_ context.Context, key types.RecordKey, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls = append(f.putCalls, putCall{Key: key, Value: value})
}

func (f *fakeNetwork) GetValue(_ context.Context, key types.RecordKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, key)
}

func (f *fakeNetwork) LocalPeerID() types.PeerID { return f.peerID }

func (f *fakeNetwork) ExternalAddresses() []multiaddr.Multiaddr { return f.externals }

func (f *fakeNetwork) getCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.getCalls)
}

func (f *fakeNetwork) lastPriorityGroup() (priorityGroupCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.priorityGroupCalls) == 0 {
		return priorityGroupCall{}, false
	}
	return f.priorityGroupCalls[len(f.priorityGroupCalls)-1], true
}
