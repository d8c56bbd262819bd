package mqttclient

import "github.com/go-mqttcore/mqttclient/packets"

// ioType distinguishes how the actor should treat a queued request,
// mirroring the client core's IoType.
type ioType int

const (
	// ioWriteOnly writes packet and does not wait for any response
	// (PUBLISH at QoS 0, DISCONNECT). The actor writes PUBACK and
	// PINGREQ itself, without a queued request.
	ioWriteOnly ioType = iota
	// ioWriteAndResponse writes packet, then parks reply until a
	// packet carrying the same PID arrives (PUBLISH at QoS 1,
	// SUBSCRIBE, UNSUBSCRIBE).
	ioWriteAndResponse
	// ioWriteConnect writes packet, then parks reply on the one-shot
	// CONNACK slot rather than the PID-keyed map.
	ioWriteConnect
	// ioShutdown asks the actor to close its stream and exit; no
	// packet is written.
	ioShutdown
)

// ioRequest is one unit of work handed to the actor over its request
// channel.
type ioRequest struct {
	kind   ioType
	packet packets.Packet
	pid    uint16 // meaningful only for ioWriteAndResponse
	reply  chan ioResult
}

// ioResult is delivered on an ioRequest's reply channel at most once;
// requests still parked when the actor takes a shutdown request get
// none.
type ioResult struct {
	packet packets.Packet
	err    error
}
