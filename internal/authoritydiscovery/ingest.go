package authoritydiscovery

import (
	"context"

	"github.com/dep2p/authority-discovery/pkg/authkey"
	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

var ingestLog = log.Logger("authoritydiscovery.ingest")

// ingestPipeline runs the eight-step verify/filter/truncate/insert
// sequence from SPEC_FULL.md §4.5 against a batch of DHT key/value
// pairs.
type ingestPipeline struct {
	cache   *addressCache
	queue   *lookupQueue
	network NetworkProvider
	metrics *metrics
}

func newIngestPipeline(cache *addressCache, queue *lookupQueue, network NetworkProvider, m *metrics) *ingestPipeline {
	return &ingestPipeline{cache: cache, queue: queue, network: network, metrics: m}
}

// handleValueFound processes one ValueFoundEvent, which may bundle
// several (record_key, bytes) pairs.
func (p *ingestPipeline) handleValueFound(ctx context.Context, values []DHTKeyValue) {
	if p.metrics != nil {
		p.metrics.handledValueFoundEvents.Inc()
	}
	for _, kv := range values {
		p.ingestOne(ctx, kv)
	}
}

func (p *ingestPipeline) ingestOne(ctx context.Context, kv DHTKeyValue) {
	// Step 1: unknown record keys are bogus, not fatal.
	authority, ok := p.queue.authorityFor(kv.Key)
	if !ok {
		ingestLog.Debug("bogus value: unknown record key", "key", kv.Key.String())
		if p.metrics != nil {
			p.metrics.bogusValues.Inc()
		}
		return
	}

	// Step 2: decode the outer signed envelope.
	signed, err := DecodeSignedAuthorityAddresses(kv.Value)
	if err != nil {
		ingestLog.Debug("discarding record: outer decode failed", "authority", authority.ShortString(), "err", err)
		if p.metrics != nil {
			p.metrics.encodingFailures.Inc()
		}
		p.finishLookup(ctx, kv.Key, false)
		return
	}

	// Step 3: decode the inner bundle.
	bundle, err := DecodeAuthorityAddresses(signed.Addresses)
	if err != nil {
		ingestLog.Debug("discarding record: inner decode failed", "authority", authority.ShortString(), "err", err)
		if p.metrics != nil {
			p.metrics.encodingFailures.Inc()
		}
		p.finishLookup(ctx, kv.Key, false)
		return
	}

	// Step 4: verify the signature over the already-encoded inner
	// bytes using the authority's own public key.
	pub, err := authkey.NewPublicKey(authority.Bytes())
	if err != nil || !pub.Verify(signed.Addresses, signed.Signature) {
		ingestLog.Debug("discarding record: signature check failed", "authority", authority.ShortString())
		if p.metrics != nil {
			p.metrics.signatureCheckFailures.Inc()
		}
		p.finishLookup(ctx, kv.Key, false)
		return
	}

	// Steps 5-6: filter to addresses with a non-local terminal PeerId.
	// Malformed elements were already dropped by DecodeAuthorityAddresses.
	local := p.network.LocalPeerID()
	var filtered []multiaddr.Multiaddr
	for _, addr := range bundle.Addresses {
		pid, ok := addr.PeerID()
		if !ok {
			continue
		}
		if pid == string(local) {
			continue
		}
		filtered = append(filtered, addr)
	}

	// Step 7: truncation to the per-authority cap happens inside
	// cache.insert.
	p.cache.insert(authority, filtered)

	if p.metrics != nil {
		p.metrics.dhtGetsSucceeded.Inc()
	}

	// Step 8.
	p.finishLookup(ctx, kv.Key, true)
}

// handleValueNotFound is the failed-lookup path: an unknown key is
// ignored, a key that was in flight counts as a failure.
func (p *ingestPipeline) handleValueNotFound(ctx context.Context, key types.RecordKey) {
	if _, ok := p.queue.authorityFor(key); !ok {
		return
	}
	if p.metrics != nil {
		p.metrics.dhtGetsFailed.Inc()
	}
	p.queue.onResponse(ctx, key)
}

func (p *ingestPipeline) finishLookup(ctx context.Context, key types.RecordKey, succeeded bool) {
	if !succeeded && p.metrics != nil {
		p.metrics.dhtGetsFailed.Inc()
	}
	p.queue.onResponse(ctx, key)
}
