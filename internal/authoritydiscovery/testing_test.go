package authoritydiscovery

import (
	"testing"

	"github.com/dep2p/authority-discovery/pkg/authkey"
)

// testSigningKey deterministically derives a private key from seed so
// tests can construct stable authority identities without depending
// on real randomness.
func testSigningKey(t *testing.T, seed byte) authkey.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed
	}
	key, err := authkey.NewPrivateKey(raw)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return key
}
