package mqttclient

import "github.com/go-mqttcore/mqttclient/packets"

// PublishMessage describes an outbound PUBLISH. Build one with
// NewPublish and optionally chain SetQoS/SetRetain before passing it
// to Client.Publish.
type PublishMessage struct {
	Topic   string
	Payload []byte
	qos     packets.QoS
	retain  bool
}

// NewPublish starts a PublishMessage at QoS 0, not retained.
func NewPublish(topic string, payload []byte) *PublishMessage {
	return &PublishMessage{Topic: topic, Payload: payload}
}

// SetQoS sets the delivery QoS. QoS 2 is rejected by Client.Publish,
// since this client implements 3.1.1 QoS 0/1 only.
func (m *PublishMessage) SetQoS(qos packets.QoS) *PublishMessage {
	m.qos = qos
	return m
}

// SetRetain sets the RETAIN flag.
func (m *PublishMessage) SetRetain(retain bool) *PublishMessage {
	m.retain = retain
	return m
}

// SubscribeRequest is one subscription to request, pairing a topic
// filter with the maximum QoS the caller is willing to receive it at.
type SubscribeRequest struct {
	Topic string
	QoS   packets.QoS
}

// SubscribeResult is the broker's per-topic response to a Subscribe
// call, in the same order the topics were requested.
type SubscribeResult struct {
	ReturnCodes []packets.SubackReturnCode
}

// AnyFailures reports whether the broker refused any of the requested
// subscriptions (SUBACK return code 0x80). This does not fail
// Subscribe itself: a partial grant is a valid outcome the caller must
// inspect, not a transport-level error.
func (r SubscribeResult) AnyFailures() bool {
	for _, rc := range r.ReturnCodes {
		if rc == packets.SubackFailure {
			return true
		}
	}
	return false
}

// ReadResult is an inbound PUBLISH delivered to the caller via
// Client.ReadSubscriptions.
type ReadResult struct {
	Topic   string
	Payload []byte
	QoS     packets.QoS
	Retain  bool
	Dup     bool
}
