package packets

import "bytes"

// Packet is implemented by every MQTT 3.1.1 control packet this
// client sends or receives.
type Packet interface {
	// Kind returns the control packet type (one of the Type*
	// constants).
	Kind() byte

	// PacketID returns the packet identifier carried by this packet
	// and true, or (0, false) for packet types that carry none. This
	// realizes the PID correlation rules in the client core's spec:
	// PUBLISH only carries a PID at QoS > 0.
	PacketID() (uint16, bool)

	// encodeVariable appends this packet's variable header and
	// payload (everything after the fixed header) to dst.
	encodeVariable(dst []byte) ([]byte, error)

	// flags returns the fixed header flags byte (bits 3-0 of the
	// first packet byte).
	flags() byte
}

// Encode appends the wire bytes for p to buf, growing buf as needed. It never shrinks or otherwise mutates bytes
// already in buf.
func Encode(p Packet, buf *bytes.Buffer) error {
	variable, err := p.encodeVariable(nil)
	if err != nil {
		return err
	}
	head := []byte{p.Kind()<<4 | p.flags()}
	head, err = encodeRemainingLength(head, len(variable))
	if err != nil {
		return err
	}
	buf.Write(head)
	buf.Write(variable)
	return nil
}

// Decode attempts to consume one complete packet from the front of
// buf. It returns the decoded packet and the number of bytes consumed
// from buf on success. If buf holds an incomplete packet it returns
// ErrShortBuffer and the caller should read more bytes and retry;
// buf is never mutated by Decode.
func Decode(buf []byte) (Packet, int, error) {
	fh, headerLen, err := decodeFixedHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	total := headerLen + fh.remainingLength
	if len(buf) < total {
		return nil, 0, ErrShortBuffer
	}
	variable := buf[headerLen:total]

	var p Packet
	switch fh.kind {
	case TypeConnect:
		p, err = decodeConnect(fh, variable)
	case TypeConnack:
		p, err = decodeConnack(fh, variable)
	case TypePublish:
		p, err = decodePublish(fh, variable)
	case TypePuback:
		p, err = decodePuback(fh, variable)
	case TypeSubscribe:
		p, err = decodeSubscribe(fh, variable)
	case TypeSuback:
		p, err = decodeSuback(fh, variable)
	case TypeUnsubscribe:
		p, err = decodeUnsubscribe(fh, variable)
	case TypeUnsuback:
		p, err = decodeUnsuback(fh, variable)
	case TypePingreq:
		p, err = decodePingreq(fh, variable)
	case TypePingresp:
		p, err = decodePingresp(fh, variable)
	case TypeDisconnect:
		p, err = decodeDisconnect(fh, variable)
	default:
		return nil, 0, ErrMalformed
	}
	if err != nil {
		return nil, 0, err
	}
	return p, total, nil
}
