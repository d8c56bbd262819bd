package packets

import "errors"

// ErrShortBuffer is returned by Decode when buf holds an incomplete
// packet. Callers should read more bytes from the stream and retry;
// it is not a protocol error.
var ErrShortBuffer = errors.New("packets: buffer does not yet hold a complete packet")

// ErrMalformed is returned when the bytes decoded so far cannot be a
// valid MQTT 3.1.1 control packet (oversized remaining length,
// truncated string or field, wrong body length, unknown packet type).
// The reserved fixed header flag bits are not checked.
var ErrMalformed = errors.New("packets: malformed packet")

// ErrUnsupportedQoS is returned when encoding or decoding a PUBLISH,
// or encoding a SUBSCRIBE, carrying QoS 2. This client only implements
// QoS 0 and 1.
var ErrUnsupportedQoS = errors.New("packets: QoS 2 is not supported")
