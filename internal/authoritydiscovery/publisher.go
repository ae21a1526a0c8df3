package authoritydiscovery

import (
	"context"

	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

var publisherLog = log.Logger("authoritydiscovery.publisher")

// publisher composes, signs, and publishes the local node's address
// record behind C3. It never holds signing key material itself: every
// signature is delegated through KeySource.
type publisher struct {
	role      types.Role
	network   NetworkProvider
	keys      KeySource
	runtime   RuntimeAPI
	metrics   *metrics
}

func newPublisher(role types.Role, network NetworkProvider, keys KeySource, runtime RuntimeAPI, m *metrics) *publisher {
	return &publisher{role: role, network: network, keys: keys, runtime: runtime, metrics: m}
}

// addressesToPublish appends a terminal PeerId component equal to
// localPeerID to any address that lacks one, leaving addresses that
// already end in a PeerId unchanged (S8).
func addressesToPublish(externals []multiaddr.Multiaddr, localPeerID types.PeerID) ([]multiaddr.Multiaddr, error) {
	out := make([]multiaddr.Multiaddr, len(externals))
	for i, addr := range externals {
		if addr.HasPeerID() {
			out[i] = addr
			continue
		}
		withPeer, err := multiaddr.WithPeerID(addr, string(localPeerID))
		if err != nil {
			return nil, err
		}
		out[i] = withPeer
	}
	return out, nil
}

// publish runs one publish tick: for every authority key the local
// node holds that also appears in the runtime's current authority
// set, sign and put a SignedAuthorityAddresses record. A signing
// failure is logged and skips that key until the next tick; it is not
// counted in any metric. Encoding cannot fail here. Neither is fatal
// (§7). A
// Sentry-role publisher never builds or signs anything, regardless of
// what KeySource happens to hold (§1/§4.3: Sentry only resolves).
func (p *publisher) publish(ctx context.Context) {
	if !p.role.CanPublish() {
		return
	}

	currentAuthorities, err := p.runtime.Authorities(ctx)
	if err != nil {
		publisherLog.Warn("publish tick: failed to fetch runtime authority set", "err", err)
		return
	}
	current := make(map[string]struct{}, len(currentAuthorities))
	for _, a := range currentAuthorities {
		current[a.String()] = struct{}{}
	}

	localKeys, err := p.keys.LocalAuthorityIDs(ctx)
	if err != nil {
		publisherLog.Warn("publish tick: failed to enumerate local authority keys", "err", err)
		return
	}

	localPeerID := p.network.LocalPeerID()
	externals := p.network.ExternalAddresses()

	addrs, err := addressesToPublish(externals, localPeerID)
	if err != nil {
		publisherLog.Warn("publish tick: failed to compose addresses to publish", "err", err)
		return
	}

	published := 0
	for _, authority := range localKeys {
		if _, ok := current[authority.String()]; !ok {
			continue
		}
		if p.publishOne(ctx, authority, addrs) {
			published++
		}
	}
	publisherLog.Debug("publish tick complete", "published", published, "local_keys", len(localKeys))
}

func (p *publisher) publishOne(ctx context.Context, authority types.AuthorityID, addrs []multiaddr.Multiaddr) bool {
	inner := EncodeAuthorityAddresses(AuthorityAddresses{Addresses: addrs})

	sig, err := p.keys.Sign(ctx, authority, inner)
	if err != nil {
		publisherLog.Warn("publish: signing failed, skipping until next tick", "authority", authority.ShortString(), "err", err)
		return false
	}

	outer := EncodeSignedAuthorityAddresses(SignedAuthorityAddresses{Addresses: inner, Signature: sig})

	p.network.PutValue(ctx, authority.RecordKey(), outer)
	if p.metrics != nil {
		p.metrics.dhtPuts.Inc()
	}
	return true
}
