package authoritydiscovery

import (
	"context"

	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/types"
)

var lookupLog = log.Logger("authoritydiscovery.lookupqueue")

// lookupQueue is the bounded-concurrency scheduler for outstanding DHT
// gets behind C4. Like addressCache, it is single-owner state touched
// only from the Worker Loop goroutine.
type lookupQueue struct {
	maxInFlight int
	pending     []types.AuthorityID
	inFlight    map[string]types.AuthorityID // record key hex -> authority

	network NetworkProvider
	metrics *metrics
}

func newLookupQueue(maxInFlight int, network NetworkProvider, m *metrics) *lookupQueue {
	return &lookupQueue{
		maxInFlight: maxInFlight,
		inFlight:    make(map[string]types.AuthorityID),
		network:     network,
		metrics:     m,
	}
}

// refill replaces pending with current minus any authority already
// in flight, preserving the caller-supplied order and deduplicating.
func (q *lookupQueue) refill(current []types.AuthorityID) {
	inFlightAuthorities := make(map[string]struct{}, len(q.inFlight))
	for _, a := range q.inFlight {
		inFlightAuthorities[a.String()] = struct{}{}
	}

	seen := make(map[string]struct{}, len(current))
	pending := make([]types.AuthorityID, 0, len(current))
	for _, a := range current {
		key := a.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, busy := inFlightAuthorities[key]; busy {
			continue
		}
		pending = append(pending, a)
	}
	q.pending = pending
	if q.metrics != nil {
		q.metrics.requestsPending.Set(float64(len(q.pending)))
	}
}

// startNewLookups issues DHT gets until maxInFlight is reached or
// pending is exhausted.
func (q *lookupQueue) startNewLookups(ctx context.Context) {
	for len(q.inFlight) < q.maxInFlight && len(q.pending) > 0 {
		authority := q.pending[0]
		q.pending = q.pending[1:]

		key := authority.RecordKey()
		q.inFlight[key.String()] = authority
		q.network.GetValue(ctx, key)

		if q.metrics != nil {
			q.metrics.dhtGetsIssued.Inc()
			q.metrics.requestsPending.Set(float64(len(q.pending)))
		}
		lookupLog.Debug("lookup issued", "authority", authority.ShortString(), "in_flight", len(q.inFlight))
	}
}

// authorityFor resolves which authority record_key was issued for,
// if it is currently in flight.
func (q *lookupQueue) authorityFor(key types.RecordKey) (types.AuthorityID, bool) {
	a, ok := q.inFlight[key.String()]
	return a, ok
}

// onResponse removes key from in_flight and starts replacement
// lookups. Safe to call for a key that was already removed (a no-op).
func (q *lookupQueue) onResponse(ctx context.Context, key types.RecordKey) {
	delete(q.inFlight, key.String())
	q.startNewLookups(ctx)
}

func (q *lookupQueue) pendingCount() int  { return len(q.pending) }
func (q *lookupQueue) inFlightCount() int { return len(q.inFlight) }
