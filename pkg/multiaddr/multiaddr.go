// Package multiaddr implements a trimmed self-describing network address
// format in the style of multiformats/multiaddr: a sequence of
// /protocol/value components encoded as a tag-prefixed byte string.
//
// Only the protocols the authority-discovery worker needs to parse and
// construct are supported: ip4, ip6, dns, dns4, dns6, dnsaddr, tcp, udp,
// quic, quic-v1, ws, wss and the terminal p2p (peer-id) component.
package multiaddr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Protocol codes, aligned with the multiformats/multicodec table so
// values stay wire-compatible with real libp2p multiaddrs.
const (
	P_IP4     = 0x0004
	P_TCP     = 0x0006
	P_UDP     = 0x0111
	P_IP6     = 0x0029
	P_DNS     = 0x0035
	P_DNS4    = 0x0036
	P_DNS6    = 0x0037
	P_DNSADDR = 0x0038
	P_QUIC    = 0x01CC
	P_QUIC_V1 = 0x01CD
	P_WS      = 0x01DD
	P_WSS     = 0x01DE
	P_P2P     = 0x01A5
)

// varSize marks a protocol whose value is varint-length-prefixed.
const varSize = -1

type protoDef struct {
	name string
	code int
	size int // bits for fixed-size values, 0 for none, varSize for length-prefixed
}

var protocolsByName = map[string]protoDef{}
var protocolsByCode = map[int]protoDef{}

func register(p protoDef) {
	protocolsByName[p.name] = p
	protocolsByCode[p.code] = p
}

func init() {
	register(protoDef{"ip4", P_IP4, 32})
	register(protoDef{"tcp", P_TCP, 16})
	register(protoDef{"udp", P_UDP, 16})
	register(protoDef{"ip6", P_IP6, 128})
	register(protoDef{"dns", P_DNS, varSize})
	register(protoDef{"dns4", P_DNS4, varSize})
	register(protoDef{"dns6", P_DNS6, varSize})
	register(protoDef{"dnsaddr", P_DNSADDR, varSize})
	register(protoDef{"quic", P_QUIC, 0})
	register(protoDef{"quic-v1", P_QUIC_V1, 0})
	register(protoDef{"ws", P_WS, 0})
	register(protoDef{"wss", P_WSS, 0})
	register(protoDef{"p2p", P_P2P, varSize})
}

var (
	ErrInvalidProtocol = errors.New("multiaddr: unknown protocol")
	ErrInvalidFormat   = errors.New("multiaddr: malformed address")
	ErrEmpty           = errors.New("multiaddr: empty address")
)

// Multiaddr is an immutable, self-describing network address.
type Multiaddr struct {
	bytes []byte
}

// component is a single decoded /protocol/value pair.
type component struct {
	proto protoDef
	value []byte // raw decoded value (network-order bytes for ip/port, utf8 for dns/p2p)
}

// NewMultiaddr parses the slash-separated textual form, e.g.
// "/ip4/127.0.0.1/tcp/30333/p2p/<peer-id>".
func NewMultiaddr(s string) (Multiaddr, error) {
	if s == "" || s == "/" {
		return Multiaddr{}, ErrEmpty
	}
	if !strings.HasPrefix(s, "/") {
		return Multiaddr{}, fmt.Errorf("%w: must start with /", ErrInvalidFormat)
	}
	parts := strings.Split(s, "/")[1:]

	var buf bytes.Buffer
	for i := 0; i < len(parts); {
		name := parts[i]
		proto, ok := protocolsByName[name]
		if !ok {
			return Multiaddr{}, fmt.Errorf("%w: %q", ErrInvalidProtocol, name)
		}
		i++

		var valStr string
		if proto.size != 0 {
			if i >= len(parts) {
				return Multiaddr{}, fmt.Errorf("%w: missing value for %q", ErrInvalidFormat, name)
			}
			valStr = parts[i]
			i++
		}

		valBytes, err := encodeValue(proto, valStr)
		if err != nil {
			return Multiaddr{}, err
		}

		writeVarint(&buf, uint64(proto.code))
		if proto.size == varSize {
			writeVarint(&buf, uint64(len(valBytes)))
		}
		buf.Write(valBytes)
	}

	return Multiaddr{bytes: buf.Bytes()}, nil
}

// NewMultiaddrBytes wraps an already-encoded byte slice, validating it
// decodes into a well-formed component sequence.
func NewMultiaddrBytes(b []byte) (Multiaddr, error) {
	m := Multiaddr{bytes: append([]byte(nil), b...)}
	if _, err := m.components(); err != nil {
		return Multiaddr{}, err
	}
	return m, nil
}

// Bytes returns the canonical binary encoding.
func (m Multiaddr) Bytes() []byte { return m.bytes }

// String renders the canonical textual form.
func (m Multiaddr) String() string {
	comps, err := m.components()
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range comps {
		sb.WriteByte('/')
		sb.WriteString(c.proto.name)
		if c.proto.size != 0 {
			s, err := decodeValue(c.proto, c.value)
			if err != nil {
				return ""
			}
			sb.WriteByte('/')
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Equal reports byte-equality of the canonical encodings.
func (m Multiaddr) Equal(other Multiaddr) bool {
	return bytes.Equal(m.bytes, other.bytes)
}

// Empty reports whether the address carries no components.
func (m Multiaddr) Empty() bool { return len(m.bytes) == 0 }

func (m Multiaddr) components() ([]component, error) {
	var comps []component
	b := m.bytes
	for len(b) > 0 {
		code, n, err := readVarint(b)
		if err != nil {
			return nil, err
		}
		b = b[n:]

		proto, ok := protocolsByCode[int(code)]
		if !ok {
			return nil, fmt.Errorf("%w: code %d", ErrInvalidProtocol, code)
		}

		var val []byte
		switch {
		case proto.size == 0:
			// no value
		case proto.size == varSize:
			size, n, err := readVarint(b)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			if uint64(len(b)) < size {
				return nil, fmt.Errorf("%w: truncated value for %s", ErrInvalidFormat, proto.name)
			}
			val = b[:size]
			b = b[size:]
		default:
			size := proto.size / 8
			if len(b) < size {
				return nil, fmt.Errorf("%w: truncated value for %s", ErrInvalidFormat, proto.name)
			}
			val = b[:size]
			b = b[size:]
		}
		comps = append(comps, component{proto: proto, value: val})
	}
	return comps, nil
}

// Protocols returns the ordered protocol names present in the address.
func (m Multiaddr) Protocols() []string {
	comps, err := m.components()
	if err != nil {
		return nil
	}
	names := make([]string, len(comps))
	for i, c := range comps {
		names[i] = c.proto.name
	}
	return names
}

// ValueForProtocol returns the textual value of the first occurrence of
// the named protocol.
func (m Multiaddr) ValueForProtocol(name string) (string, error) {
	comps, err := m.components()
	if err != nil {
		return "", err
	}
	for _, c := range comps {
		if c.proto.name == name {
			return decodeValue(c.proto, c.value)
		}
	}
	return "", fmt.Errorf("protocol %s not present", name)
}

// Encapsulate appends other's components after m's.
func (m Multiaddr) Encapsulate(other Multiaddr) Multiaddr {
	out := make([]byte, 0, len(m.bytes)+len(other.bytes))
	out = append(out, m.bytes...)
	out = append(out, other.bytes...)
	return Multiaddr{bytes: out}
}

// HasPeerID reports whether the address already ends in a /p2p component.
func (m Multiaddr) HasPeerID() bool {
	comps, err := m.components()
	if err != nil || len(comps) == 0 {
		return false
	}
	return comps[len(comps)-1].proto.code == P_P2P
}

// PeerID returns the terminal peer-id component, if present.
func (m Multiaddr) PeerID() (string, bool) {
	comps, err := m.components()
	if err != nil || len(comps) == 0 {
		return "", false
	}
	last := comps[len(comps)-1]
	if last.proto.code != P_P2P {
		return "", false
	}
	return string(last.value), true
}

// WithPeerID returns a copy of m with a terminal /p2p/<peerID> component
// appended. Callers should only call this on addresses that do not
// already end in /p2p (see HasPeerID).
func WithPeerID(transport Multiaddr, peerID string) (Multiaddr, error) {
	p2p, err := NewMultiaddr("/p2p/" + peerID)
	if err != nil {
		return Multiaddr{}, err
	}
	return transport.Encapsulate(p2p), nil
}

// WithoutPeerID strips a terminal /p2p component, if present.
func WithoutPeerID(m Multiaddr) Multiaddr {
	comps, err := m.components()
	if err != nil || len(comps) == 0 {
		return m
	}
	last := comps[len(comps)-1]
	if last.proto.code != P_P2P {
		return m
	}
	var buf bytes.Buffer
	for _, c := range comps[:len(comps)-1] {
		writeVarint(&buf, uint64(c.proto.code))
		if c.proto.size == varSize {
			writeVarint(&buf, uint64(len(c.value)))
		}
		buf.Write(c.value)
	}
	return Multiaddr{bytes: buf.Bytes()}
}

func encodeValue(proto protoDef, s string) ([]byte, error) {
	switch proto.code {
	case P_IP4:
		parts := strings.Split(s, ".")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: invalid ip4 %q", ErrInvalidFormat, s)
		}
		out := make([]byte, 4)
		for i, p := range parts {
			v, err := strconv.Atoi(p)
			if err != nil || v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: invalid ip4 %q", ErrInvalidFormat, s)
			}
			out[i] = byte(v)
		}
		return out, nil
	case P_IP6:
		return encodeIP6(s)
	case P_TCP, P_UDP:
		v, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid port %q", ErrInvalidFormat, s)
		}
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, uint16(v))
		return out, nil
	case P_DNS, P_DNS4, P_DNS6, P_DNSADDR, P_P2P:
		return []byte(s), nil
	default:
		return nil, nil
	}
}

func decodeValue(proto protoDef, b []byte) (string, error) {
	switch proto.code {
	case P_IP4:
		if len(b) != 4 {
			return "", ErrInvalidFormat
		}
		return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3]), nil
	case P_IP6:
		return decodeIP6(b)
	case P_TCP, P_UDP:
		if len(b) != 2 {
			return "", ErrInvalidFormat
		}
		return strconv.Itoa(int(binary.BigEndian.Uint16(b))), nil
	case P_DNS, P_DNS4, P_DNS6, P_DNSADDR, P_P2P:
		return string(b), nil
	default:
		return "", nil
	}
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readVarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: bad varint", ErrInvalidFormat)
	}
	return v, n, nil
}
