package roughtime

import (
	"crypto/rand"
	"io"

	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// DefaultMsgSize is the default TLV message size make_request pads to,
// per spec.md §4.9. The framed packet is 12 bytes longer.
const DefaultMsgSize = 1024

// DefaultMinSizeBytes is the anti-amplification packet-size floor,
// spec.md §4.9/§6.
const DefaultMinSizeBytes = 1024

// RequestOptions configures BuildRequest. Zero values take the spec's
// defaults: Vers defaults to [Fiducial], Nonce is freshly randomized
// from Rand (or crypto/rand.Reader), MsgSize defaults to DefaultMsgSize.
type RequestOptions struct {
	Vers        []uint32
	Nonce       []byte
	MsgSize     int
	ServerLongtermPub *[32]byte
	Rand        io.Reader
}

// BuildRequest constructs and frames a client request per spec.md §4.9.
// It returns the encoded packet (or, for version 0, the bare TLV
// message), the chosen version and the nonce actually used.
func BuildRequest(opts RequestOptions) (packet []byte, chosen version.Version, nonce []byte, err error) {
	vers := opts.Vers
	if len(vers) == 0 {
		vers = []uint32{uint32(version.Fiducial)}
	}
	chosen = version.ChooseVersion(vers)

	nonce = opts.Nonce
	if nonce == nil {
		rnd := opts.Rand
		if rnd == nil {
			rnd = rand.Reader
		}
		nonce = make([]byte, version.NonceLength(chosen))
		if _, err := io.ReadFull(rnd, nonce); err != nil {
			return nil, chosen, nil, err
		}
	}
	if err := version.ValidateNonce(chosen, nonce); err != nil {
		return nil, chosen, nil, wrapError(KindInvalidRequest, err)
	}

	msgSize := opts.MsgSize
	if msgSize == 0 {
		msgSize = DefaultMsgSize
	}

	fields := []wire.Field{{Tag: wire.NONC, Value: nonce}}
	if version.RequiresVersionField(chosen) {
		fields = append(fields, wire.Field{Tag: wire.VER, Value: wire.PutUint32(uint32(chosen))})
	}
	if version.RequiresTypeField(chosen) {
		fields = append(fields, wire.Field{Tag: wire.TYPE, Value: wire.PutUint32(0)})
	}
	if version.SupportsSRV(chosen) && opts.ServerLongtermPub != nil {
		srv := SRV(*opts.ServerLongtermPub)
		fields = append(fields, wire.Field{Tag: wire.SRV, Value: srv[:]})
	}

	unpadded, err := wire.Encode(fields)
	if err != nil {
		return nil, chosen, nil, err
	}
	// The pad field adds one tag and one offset (8 bytes) to the header
	// on top of its own value.
	if len(unpadded)+8 > msgSize {
		return nil, chosen, nil, newError(KindInvalidRequest, "fixed fields exceed requested message size")
	}
	padTag := version.PadTag(chosen)
	fields = append(fields, wire.Field{Tag: padTag, Value: make([]byte, msgSize-len(unpadded)-8)})
	msg, err := wire.Encode(fields)
	if err != nil {
		return nil, chosen, nil, err
	}

	if chosen == version.Google || chosen == version.Sentinel {
		return msg, chosen, nonce, nil
	}
	return wire.EncodePacket(msg), chosen, nonce, nil
}

// ParsedRequest is the result of ParseRequest.
type ParsedRequest struct {
	Nonce       []byte
	RequestBytes []byte // the full packet/message bytes, as received — this is the Merkle leaf data for v >= Fiducial
	Version     version.Version
	ClientVers  []uint32 // the request's VER value as a one-element list; nil when the request has no VER
	Message     *wire.Message
	MessageLen  int
}

// ParseRequest decodes and validates a raw request packet per spec.md
// §4.9, enforcing minSizeBytes (0 disables the floor; DefaultMinSizeBytes
// is the spec's default when the caller wants it).
func ParseRequest(buf []byte, minSizeBytes int) (ParsedRequest, error) {
	msg, err := wire.DecodePacket(buf, minSizeBytes)
	if err != nil {
		return ParsedRequest{}, wrapError(KindInvalidRequest, err)
	}
	m, err := wire.Decode(msg)
	if err != nil {
		return ParsedRequest{}, wrapError(KindInvalidRequest, err)
	}

	nonce, err := m.Require(wire.NONC)
	if err != nil {
		return ParsedRequest{}, wrapError(KindInvalidRequest, err)
	}

	var v version.Version
	var clientVers []uint32
	if verRaw, ok := m.Get(wire.VER); ok {
		ver, err := wire.Uint32(verRaw)
		if err != nil {
			return ParsedRequest{}, wrapError(KindInvalidRequest, err)
		}
		v = version.Version(ver)
		clientVers = []uint32{ver}
	} else {
		v = version.Google
	}

	if err := version.ValidateNonce(v, nonce); err != nil {
		return ParsedRequest{}, wrapError(KindInvalidRequest, err)
	}
	if typeRaw, ok := m.Get(wire.TYPE); ok {
		if err := version.ValidateType(v, typeRaw); err != nil {
			return ParsedRequest{}, wrapError(KindInvalidRequest, err)
		}
	} else if version.RequiresTypeField(v) {
		return ParsedRequest{}, newError(KindInvalidRequest, "missing TYPE")
	}

	return ParsedRequest{
		Nonce:        nonce,
		RequestBytes: buf,
		Version:      v,
		ClientVers:   clientVers,
		Message:      m,
		MessageLen:   len(msg),
	}, nil
}
