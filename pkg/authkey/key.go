// Package authkey defines the public/private key abstractions the
// authority-discovery worker signs and verifies authority records
// with, plus the slim external keystore contract the worker consumes.
//
// The worker never manages key material itself: signing is always
// delegated through the KeySource interface to whatever keystore the
// embedding node already runs. This package only wraps the secp256k1
// primitives needed to verify records received from the DHT and to act
// as a stand-in keystore for tests and single-key deployments.
package authkey

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/dep2p/authority-discovery/pkg/types"
)

var ErrVerificationFailed = errors.New("authkey: signature verification failed")

// PublicKey verifies signatures produced over authority records.
//
// Bytes()/Raw() expose key material; callers must not log the
// returned values, only use them for verification or AuthorityID
// derivation.
type PublicKey interface {
	Bytes() []byte
	Equal(other PublicKey) bool
	Verify(data, signature []byte) bool
	AuthorityID() types.AuthorityID
	Raw() *secp256k1.PublicKey
}

// PrivateKey signs authority records on behalf of a local authority
// identity. Raw() is for persistence and test assertions only; never
// log its value.
type PrivateKey interface {
	PublicKey() PublicKey
	Sign(data []byte) ([]byte, error)
	Raw() *secp256k1.PrivateKey
}

type publicKey struct {
	key *secp256k1.PublicKey
}

// NewPublicKey wraps a compressed secp256k1 public key.
func NewPublicKey(compressed []byte) (PublicKey, error) {
	key, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, fmt.Errorf("authkey: invalid public key: %w", err)
	}
	return &publicKey{key: key}, nil
}

func (p *publicKey) Bytes() []byte { return p.key.SerializeCompressed() }

func (p *publicKey) Equal(other PublicKey) bool {
	if other == nil {
		return false
	}
	return p.key.IsEqual(other.Raw())
}

func (p *publicKey) Verify(data, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(data)
	return sig.Verify(digest[:], p.key)
}

func (p *publicKey) AuthorityID() types.AuthorityID {
	return types.AuthorityID(p.Bytes())
}

func (p *publicKey) Raw() *secp256k1.PublicKey { return p.key }

type privateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKey wraps a raw secp256k1 scalar. Used by tests and by
// in-process keystore implementations; the worker itself never holds
// one directly.
func NewPrivateKey(raw []byte) (PrivateKey, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("authkey: private key must be 32 bytes, got %d", len(raw))
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	return &privateKey{key: key}, nil
}

func (p *privateKey) PublicKey() PublicKey {
	return &publicKey{key: p.key.PubKey()}
}

func (p *privateKey) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig := ecdsa.Sign(p.key, digest[:])
	return sig.Serialize(), nil
}

func (p *privateKey) Raw() *secp256k1.PrivateKey { return p.key }

// KeySource is the external contract the worker uses to discover
// which authority identities the local node controls and to sign on
// their behalf. It is satisfied by the embedding node's keystore;
// this package never implements persistence or key generation.
type KeySource interface {
	// LocalAuthorityIDs returns the authority identities the local
	// node holds signing keys for. An authority node may control more
	// than one key across rotations.
	LocalAuthorityIDs(ctx context.Context) ([]types.AuthorityID, error)

	// Sign produces a signature over data using the signing key for
	// authority. It returns an error if the node does not hold that
	// key.
	Sign(ctx context.Context, authority types.AuthorityID, data []byte) ([]byte, error)
}

// StaticKeySource is an in-memory KeySource backed by a fixed set of
// private keys, used by tests and single-key deployments.
type StaticKeySource struct {
	keys map[string]PrivateKey
}

// NewStaticKeySource builds a KeySource over the given private keys.
func NewStaticKeySource(keys ...PrivateKey) *StaticKeySource {
	m := make(map[string]PrivateKey, len(keys))
	for _, k := range keys {
		m[string(k.PublicKey().AuthorityID())] = k
	}
	return &StaticKeySource{keys: m}
}

func (s *StaticKeySource) LocalAuthorityIDs(_ context.Context) ([]types.AuthorityID, error) {
	ids := make([]types.AuthorityID, 0, len(s.keys))
	for k := range s.keys {
		ids = append(ids, types.AuthorityID(k))
	}
	return ids, nil
}

func (s *StaticKeySource) Sign(_ context.Context, authority types.AuthorityID, data []byte) ([]byte, error) {
	key, ok := s.keys[string(authority)]
	if !ok {
		return nil, fmt.Errorf("authkey: no signing key for authority %s", authority.ShortString())
	}
	return key.Sign(data)
}
