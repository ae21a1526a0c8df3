package authoritydiscovery

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/authority-discovery/pkg/multiaddr"
)

func TestAuthorityAddressesRoundTrip(t *testing.T) {
	addrs := []string{
		"/ip4/10.0.0.1/tcp/30333/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N",
		"/ip6/2001:db8::/tcp/30334",
	}

	bundle := AuthorityAddresses{}
	for _, a := range addrs {
		bundle.Addresses = append(bundle.Addresses, mustAddr(t, a))
	}

	encoded := EncodeAuthorityAddresses(bundle)
	decoded, err := DecodeAuthorityAddresses(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Addresses, len(addrs))
	for i, a := range decoded.Addresses {
		require.Equal(t, addrs[i], a.String())
	}
}

func TestDecodeAuthorityAddressesDropsMalformedElements(t *testing.T) {
	good := mustAddr(t, "/ip4/10.0.0.1/tcp/30333")
	encoded := EncodeAuthorityAddresses(AuthorityAddresses{
		Addresses: []multiaddr.Multiaddr{good},
	})
	// A second addresses element whose bytes are not a valid Multiaddr:
	// decoding drops it and keeps the good one.
	encoded = protowire.AppendTag(encoded, fieldAuthorityAddresses, protowire.BytesType)
	encoded = protowire.AppendBytes(encoded, []byte{0xff, 0xff, 0xff, 0xff, 0xff})
	decoded, err := DecodeAuthorityAddresses(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Addresses, 1)
	require.True(t, decoded.Addresses[0].Equal(good))
}

func TestSignedAuthorityAddressesRoundTrip(t *testing.T) {
	inner := EncodeAuthorityAddresses(AuthorityAddresses{
		Addresses: []multiaddr.Multiaddr{mustAddr(t, "/ip4/127.0.0.1/tcp/30333")},
	})
	signed := SignedAuthorityAddresses{Addresses: inner, Signature: []byte("sig")}

	encoded := EncodeSignedAuthorityAddresses(signed)
	decoded, err := DecodeSignedAuthorityAddresses(encoded)
	require.NoError(t, err)
	require.Equal(t, inner, decoded.Addresses)
	require.Equal(t, []byte("sig"), decoded.Signature)
}

func TestDecodeSignedAuthorityAddressesRejectsMissingFields(t *testing.T) {
	_, err := DecodeSignedAuthorityAddresses(nil)
	require.Error(t, err)
}
