package authoritydiscovery

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

var cacheLog = log.Logger("authoritydiscovery.cache")

// addressCache is the per-authority, LRU-bounded address set behind
// C1. It is owned exclusively by the Worker Loop goroutine; nothing
// in this file takes a lock (see SPEC_FULL.md §5).
type addressCache struct {
	maxPerAuthority int
	entries         *lru.Cache[string, []multiaddr.Multiaddr]
}

// newAddressCache builds a cache bounding both the per-authority
// address count (maxPerAuthority) and, via the LRU, the number of
// distinct authorities retained across a long session.
func newAddressCache(maxPerAuthority, maxAuthorities int) *addressCache {
	entries, err := lru.New[string, []multiaddr.Multiaddr](maxAuthorities)
	if err != nil {
		// Only returned by golang-lru for a non-positive size; a
		// construction-time configuration error, not a runtime one.
		panic(err)
	}
	return &addressCache{maxPerAuthority: maxPerAuthority, entries: entries}
}

// insert replaces the entry for authority, truncating to
// maxPerAuthority after deduplicating in encounter order.
func (c *addressCache) insert(authority types.AuthorityID, addrs []multiaddr.Multiaddr) {
	deduped := dedupeInOrder(addrs)
	if len(deduped) > c.maxPerAuthority {
		deduped = deduped[:c.maxPerAuthority]
	}
	c.entries.Add(authority.String(), deduped)
	cacheLog.Debug("cache entry replaced", "authority", authority.ShortString(), "count", len(deduped))
}

// get returns the cached addresses for authority, if any.
func (c *addressCache) get(authority types.AuthorityID) ([]multiaddr.Multiaddr, bool) {
	return c.entries.Get(authority.String())
}

// peerIDs returns the set of distinct terminal peer ids across every
// cached address.
func (c *addressCache) peerIDs() map[types.PeerID]struct{} {
	out := make(map[types.PeerID]struct{})
	for _, key := range c.entries.Keys() {
		addrs, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		for _, a := range addrs {
			if pid, ok := a.PeerID(); ok {
				out[types.PeerID(pid)] = struct{}{}
			}
		}
	}
	return out
}

// allAddresses returns the union of every address currently cached,
// for C6's priority-group computation.
func (c *addressCache) allAddresses() []multiaddr.Multiaddr {
	seen := make(map[string]struct{})
	var out []multiaddr.Multiaddr
	for _, key := range c.entries.Keys() {
		addrs, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		for _, a := range addrs {
			b := string(a.Bytes())
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// retainAuthorities evicts every cached authority not present in
// current.
func (c *addressCache) retainAuthorities(current []types.AuthorityID) {
	keep := make(map[string]struct{}, len(current))
	for _, a := range current {
		keep[a.String()] = struct{}{}
	}
	for _, key := range c.entries.Keys() {
		if _, ok := keep[key]; !ok {
			c.entries.Remove(key)
		}
	}
}

func dedupeInOrder(addrs []multiaddr.Multiaddr) []multiaddr.Multiaddr {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]multiaddr.Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		b := string(a.Bytes())
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, a)
	}
	return out
}
