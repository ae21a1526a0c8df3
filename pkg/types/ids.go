// Package types defines the value types shared across the
// authority-discovery worker: authority identities, peer identities,
// DHT record keys and the authority/sentry role distinction.
//
// These are pure value types and do not depend on any other internal
// package.
package types

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
)

var (
	ErrEmptyAuthorityID  = errors.New("types: empty authority id")
	ErrEmptyPeerID       = errors.New("types: empty peer id")
	ErrInvalidPublicKey  = errors.New("types: invalid public key encoding")
	ErrInvalidBase58     = errors.New("types: invalid base58 encoding")
)

// recordKeyDomain prefixes every DHT record key derived from an
// AuthorityID, so the key space cannot collide with unrelated DHT
// content published by other protocols sharing the same network.
const recordKeyDomain = "authority_discovery/authority_addresses/"

// AuthorityID is the compressed secp256k1 public key of a validator's
// authority-discovery signing key. It is the value authority records
// are published and looked up under.
type AuthorityID []byte

// NewAuthorityID validates that b is a well-formed compressed
// secp256k1 public key and wraps it as an AuthorityID.
func NewAuthorityID(b []byte) (AuthorityID, error) {
	id := AuthorityID(append([]byte(nil), b...))
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return id, nil
}

// ParseAuthorityID decodes a base58-encoded authority id.
func ParseAuthorityID(s string) (AuthorityID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBase58, err)
	}
	return NewAuthorityID(b)
}

// String returns the base58 textual form.
func (id AuthorityID) String() string {
	return base58.Encode(id)
}

// ShortString returns a truncated form suitable for log lines.
func (id AuthorityID) ShortString() string {
	s := id.String()
	if len(s) <= 14 {
		return s
	}
	return s[:8] + ".." + s[len(s)-3:]
}

// Bytes returns the raw compressed public key bytes.
func (id AuthorityID) Bytes() []byte {
	return []byte(id)
}

// IsEmpty reports whether id carries no key material.
func (id AuthorityID) IsEmpty() bool {
	return len(id) == 0
}

// Validate checks that id decodes as a point on the secp256k1 curve.
func (id AuthorityID) Validate() error {
	if id.IsEmpty() {
		return ErrEmptyAuthorityID
	}
	if _, err := secp256k1.ParsePubKey(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}
	return nil
}

// Equal reports byte-equality of two authority ids.
func (id AuthorityID) Equal(other AuthorityID) bool {
	if len(id) != len(other) {
		return false
	}
	for i := range id {
		if id[i] != other[i] {
			return false
		}
	}
	return true
}

// RecordKey returns the domain-separated DHT key that addresses for
// this authority are published and looked up under.
func (id AuthorityID) RecordKey() RecordKey {
	h := sha256.Sum256(append([]byte(recordKeyDomain), id...))
	return RecordKey(h[:])
}

// RecordKey is the opaque DHT key derived from an AuthorityID.
type RecordKey []byte

// String renders the key as hex for logging.
func (k RecordKey) String() string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(k)*2)
	for i, b := range k {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}

// Equal reports byte-equality of two record keys.
func (k RecordKey) Equal(other RecordKey) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// PeerID is a libp2p-style node identifier, base58-encoded for
// external representation.
type PeerID string

// EmptyPeerID is the zero value of PeerID.
const EmptyPeerID PeerID = ""

// String returns the textual form of the peer id.
func (id PeerID) String() string {
	return string(id)
}

// ShortString returns a truncated form suitable for log lines.
func (id PeerID) ShortString() string {
	s := string(id)
	if len(s) <= 14 {
		return s
	}
	return s[:8] + ".." + s[len(s)-3:]
}

// Bytes returns the decoded multihash bytes of the peer id.
func (id PeerID) Bytes() ([]byte, error) {
	return base58.Decode(string(id))
}

// IsEmpty reports whether id carries no value.
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// Validate checks that id base58-decodes to a non-empty byte string.
func (id PeerID) Validate() error {
	if id.IsEmpty() {
		return ErrEmptyPeerID
	}
	decoded, err := base58.Decode(string(id))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBase58, err)
	}
	if len(decoded) == 0 {
		return ErrEmptyPeerID
	}
	return nil
}

// Equal compares two peer ids for equality.
func (id PeerID) Equal(other PeerID) bool {
	return id == other
}

// Role distinguishes validator nodes that sign and publish their own
// authority addresses from sentry/full nodes that only resolve them.
type Role int

const (
	// RoleSentry nodes never publish; they only look up authority
	// addresses to build their priority connection group.
	RoleSentry Role = iota
	// RoleAuthority nodes additionally sign and publish their own
	// addresses under their AuthorityID's record key.
	RoleAuthority
)

// String renders the role for logging.
func (r Role) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	case RoleSentry:
		return "sentry"
	default:
		return "unknown"
	}
}

// CanPublish reports whether nodes in this role publish their own
// addresses.
func (r Role) CanPublish() bool {
	return r == RoleAuthority
}
