package authoritydiscovery

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/authority-discovery/pkg/multiaddr"
)

// Wire field numbers for the two record shapes fixed by SPEC_FULL.md
// §6. The layout must stay byte-compatible with already-deployed
// peers, so these numbers are not free to change.
const (
	fieldAuthorityAddresses = protowire.Number(1)

	fieldSignedAddresses  = protowire.Number(1)
	fieldSignedSignature  = protowire.Number(2)
)

// AuthorityAddresses is the inner, unsigned record: an ordered bundle
// of serialized MultiAddresses.
type AuthorityAddresses struct {
	Addresses []multiaddr.Multiaddr
}

// SignedAuthorityAddresses is the outer record published to the DHT:
// the already-encoded AuthorityAddresses bytes plus a signature over
// those exact bytes.
type SignedAuthorityAddresses struct {
	Addresses []byte
	Signature []byte
}

// EncodeAuthorityAddresses produces the length-prefixed, tag-ordered
// encoding of a.
func EncodeAuthorityAddresses(a AuthorityAddresses) []byte {
	var buf []byte
	for _, addr := range a.Addresses {
		buf = protowire.AppendTag(buf, fieldAuthorityAddresses, protowire.BytesType)
		buf = protowire.AppendBytes(buf, addr.Bytes())
	}
	return buf
}

// DecodeAuthorityAddresses parses bytes produced by
// EncodeAuthorityAddresses. Elements that fail to parse as a
// Multiaddr are dropped silently, per SPEC_FULL.md §4.5 step 5;
// malformed wire framing is a hard decoding error.
func DecodeAuthorityAddresses(b []byte) (AuthorityAddresses, error) {
	var out AuthorityAddresses
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return AuthorityAddresses{}, fmt.Errorf("%w: bad tag", ErrDecoding)
		}
		b = b[n:]

		if num != fieldAuthorityAddresses || typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return AuthorityAddresses{}, fmt.Errorf("%w: bad field value", ErrDecoding)
			}
			b = b[m:]
			continue
		}

		val, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return AuthorityAddresses{}, fmt.Errorf("%w: bad length-delimited value", ErrDecoding)
		}
		b = b[n:]

		addr, err := multiaddr.NewMultiaddrBytes(val)
		if err != nil {
			continue
		}
		out.Addresses = append(out.Addresses, addr)
	}
	return out, nil
}

// EncodeSignedAuthorityAddresses encodes the outer wrapper. Addresses
// must already be the encoded AuthorityAddresses bytes the signature
// was computed over.
func EncodeSignedAuthorityAddresses(s SignedAuthorityAddresses) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldSignedAddresses, protowire.BytesType)
	buf = protowire.AppendBytes(buf, s.Addresses)
	buf = protowire.AppendTag(buf, fieldSignedSignature, protowire.BytesType)
	buf = protowire.AppendBytes(buf, s.Signature)
	return buf
}

// DecodeSignedAuthorityAddresses parses bytes produced by
// EncodeSignedAuthorityAddresses.
func DecodeSignedAuthorityAddresses(b []byte) (SignedAuthorityAddresses, error) {
	var out SignedAuthorityAddresses
	var sawAddresses, sawSignature bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return SignedAuthorityAddresses{}, fmt.Errorf("%w: bad tag", ErrDecoding)
		}
		b = b[n:]

		if typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return SignedAuthorityAddresses{}, fmt.Errorf("%w: bad field value", ErrDecoding)
			}
			b = b[m:]
			continue
		}

		val, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return SignedAuthorityAddresses{}, fmt.Errorf("%w: bad length-delimited value", ErrDecoding)
		}
		b = b[n:]

		switch num {
		case fieldSignedAddresses:
			out.Addresses = val
			sawAddresses = true
		case fieldSignedSignature:
			out.Signature = val
			sawSignature = true
		}
	}

	if !sawAddresses || !sawSignature {
		return SignedAuthorityAddresses{}, fmt.Errorf("%w: missing addresses or signature field", ErrSchemaMismatch)
	}
	return out, nil
}
