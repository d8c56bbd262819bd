// Package mqttclient implements an asynchronous MQTT 3.1.1 client.
//
// A Client owns exactly one network connection, driven by a single
// background actor goroutine (see actor.go); every exported method is
// safe to call concurrently from multiple goroutines and simply
// enqueues a request for that goroutine to perform. Only QoS 0 and
// QoS 1 PUBLISH are supported; QoS 2 is rejected with a
// ProtocolViolation-class error.
package mqttclient

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/go-mqttcore/mqttclient/packets"
)

// Client is an established or in-progress MQTT session. Build
// ClientOptions with NewOptionsBuilder and pass them to Connect.
type Client struct {
	opts *ClientOptions
	a    *actor
	stop context.CancelFunc

	// inflight bounds concurrent QoS 1 publishes awaiting PUBACK when
	// opts.MaxInflightPublish is set; nil means unbounded.
	inflight *semaphore.Weighted

	closed int32
}

// Connect dials the broker described by opts, performs the MQTT
// CONNECT/CONNACK handshake, and returns a ready-to-use Client. The
// returned Client must eventually be closed with Disconnect or Close.
func Connect(ctx context.Context, opts *ClientOptions) (*Client, error) {
	s, err := dialStream(ctx, opts)
	if err != nil {
		return nil, err
	}
	return newClientFromStream(ctx, s, opts)
}

// newClientFromStream performs the CONNECT/CONNACK handshake over an
// already-established stream. Connect uses it after dialing; tests use
// it directly with an in-memory stream (e.g. net.Pipe) to exercise the
// actor without a real broker.
func newClientFromStream(ctx context.Context, s stream, opts *ClientOptions) (*Client, error) {
	actorCtx, cancel := context.WithCancel(context.Background())
	a := newActor(s, opts)
	go a.run(actorCtx)

	c := &Client{opts: opts, a: a, stop: cancel}
	if opts.MaxInflightPublish > 0 {
		c.inflight = semaphore.NewWeighted(opts.MaxInflightPublish)
	}

	secs, _ := opts.KeepAlive.Enabled()
	connectPkt := packets.NewConnect311(opts.ClientID, secs, opts.Username, opts.Password)

	reply := make(chan ioResult, 1)
	req := &ioRequest{kind: ioWriteConnect, packet: connectPkt, reply: reply}

	if err := c.send(ctx, req); err != nil {
		c.Close()
		return nil, err
	}

	res, err := c.awaitTimeout(ctx, reply)
	if err != nil {
		c.Close()
		return nil, err
	}

	connack := res.(*packets.Connack)
	if connack.ReturnCode != packets.ConnectAccepted {
		c.Close()
		return nil, newError(KindProtocolRejected, connack.ReturnCode.String())
	}

	return c, nil
}

// Publish sends msg to the broker. For QoS 0 it returns once the
// packet has been handed to the actor for writing; for QoS 1 it
// blocks until the broker's PUBACK arrives, ctx is done, or
// OperationTimeout elapses.
func (c *Client) Publish(ctx context.Context, msg *PublishMessage) error {
	if msg.qos == packets.QoS2 {
		return newError(KindProtocolViolation, "QoS 2 is not supported")
	}

	if msg.qos == packets.QoS0 {
		pkt := &packets.Publish{Topic: msg.Topic, Payload: msg.Payload, QoS: packets.QoS0, Retain: msg.retain}
		return c.send(ctx, &ioRequest{kind: ioWriteOnly, packet: pkt})
	}

	if c.inflight != nil {
		if err := c.inflight.Acquire(ctx, 1); err != nil {
			return wrapError(KindTimeout, "acquire inflight publish slot", err)
		}
		defer c.inflight.Release(1)
	}

	c.opts.Metrics.inflightDelta(1)
	defer c.opts.Metrics.inflightDelta(-1)

	pid, ok := c.a.pids.Alloc()
	if !ok {
		return newError(KindPidExhausted, "no free packet identifier")
	}
	pkt := &packets.Publish{Topic: msg.Topic, Payload: msg.Payload, QoS: packets.QoS1, Retain: msg.retain, PID: pid}

	reply := make(chan ioResult, 1)
	if err := c.send(ctx, &ioRequest{kind: ioWriteAndResponse, packet: pkt, pid: pid, reply: reply}); err != nil {
		c.a.pids.Free(pid)
		return err
	}
	res, err := c.awaitTimeout(ctx, reply)
	if err != nil {
		return err
	}
	if _, ok := res.(*packets.Puback); !ok {
		return newError(KindProtocolViolation, "expected PUBACK")
	}
	return nil
}

// Subscribe requests the given topic filters and waits for the
// broker's SUBACK, returning the per-topic grant or failure codes in
// request order.
func (c *Client) Subscribe(ctx context.Context, topics []SubscribeRequest) (*SubscribeResult, error) {
	if len(topics) == 0 {
		return nil, newError(KindProtocolViolation, "subscribe requires at least one topic")
	}

	pid, ok := c.a.pids.Alloc()
	if !ok {
		return nil, newError(KindPidExhausted, "no free packet identifier")
	}

	pkt := &packets.Subscribe{PID: pid}
	for _, t := range topics {
		if t.QoS == packets.QoS2 {
			c.a.pids.Free(pid)
			return nil, newError(KindProtocolViolation, "QoS 2 is not supported")
		}
		pkt.Topics = append(pkt.Topics, packets.SubscribeTopic{Topic: t.Topic, QoS: t.QoS})
	}

	reply := make(chan ioResult, 1)
	if err := c.send(ctx, &ioRequest{kind: ioWriteAndResponse, packet: pkt, pid: pid, reply: reply}); err != nil {
		c.a.pids.Free(pid)
		return nil, err
	}
	res, err := c.awaitTimeout(ctx, reply)
	if err != nil {
		return nil, err
	}
	suback, ok := res.(*packets.Suback)
	if !ok {
		return nil, newError(KindProtocolViolation, "expected SUBACK")
	}
	return &SubscribeResult{ReturnCodes: suback.ReturnCodes}, nil
}

// Unsubscribe requests removal of the given topic filters and waits
// for the broker's UNSUBACK.
func (c *Client) Unsubscribe(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return newError(KindProtocolViolation, "unsubscribe requires at least one topic")
	}

	pid, ok := c.a.pids.Alloc()
	if !ok {
		return newError(KindPidExhausted, "no free packet identifier")
	}
	pkt := &packets.Unsubscribe{PID: pid, Topics: topics}

	reply := make(chan ioResult, 1)
	if err := c.send(ctx, &ioRequest{kind: ioWriteAndResponse, packet: pkt, pid: pid, reply: reply}); err != nil {
		c.a.pids.Free(pid)
		return err
	}
	res, err := c.awaitTimeout(ctx, reply)
	if err != nil {
		return err
	}
	if _, ok := res.(*packets.Unsuback); !ok {
		return newError(KindProtocolViolation, "expected UNSUBACK")
	}
	return nil
}

// ReadSubscriptions returns the next inbound PUBLISH delivered to a
// subscribed topic. It blocks until one arrives, ctx is done, or the
// connection is lost.
func (c *Client) ReadSubscriptions(ctx context.Context) (*ReadResult, error) {
	select {
	case r, ok := <-c.a.pubCh:
		if !ok {
			return nil, c.a.err()
		}
		return &r, nil
	case <-c.a.doneCh:
		return nil, c.a.err()
	case <-ctx.Done():
		return nil, wrapError(KindTimeout, "read subscriptions", ctx.Err())
	}
}

// Disconnect sends DISCONNECT and closes the connection. It does not
// wait for any acknowledgement, since MQTT 3.1.1 defines none for
// DISCONNECT.
func (c *Client) Disconnect(ctx context.Context) error {
	_ = c.send(ctx, &ioRequest{kind: ioWriteOnly, packet: packets.Disconnect{}})
	return c.Close()
}

// Close tears down the connection without sending DISCONNECT. It is
// safe to call more than once and safe to call after Disconnect.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	select {
	case c.a.reqCh <- &ioRequest{kind: ioShutdown}:
	default:
		c.stop()
	}
	<-c.a.doneCh
	c.stop()
	return nil
}

// Err returns nil while the connection is active. Once it has ended it
// returns a Disconnected-kind *Error; when something other than a
// disconnect ended it, that cause is available through Unwrap.
func (c *Client) Err() error {
	select {
	case <-c.a.doneCh:
		return c.a.err()
	default:
		return nil
	}
}

func (c *Client) send(ctx context.Context, req *ioRequest) error {
	select {
	case <-c.a.doneCh:
		return c.a.err()
	default:
	}
	select {
	case c.a.reqCh <- req:
		return nil
	case <-c.a.doneCh:
		return c.a.err()
	case <-ctx.Done():
		return wrapError(KindTimeout, "enqueue request", ctx.Err())
	}
}

func (c *Client) await(ctx context.Context, reply chan ioResult) (packets.Packet, error) {
	select {
	case res := <-reply:
		return res.packet, res.err
	case <-c.a.doneCh:
		return nil, c.a.err()
	case <-ctx.Done():
		return nil, wrapError(KindTimeout, "await response", ctx.Err())
	}
}

// awaitTimeout is await bounded additionally by opts.OperationTimeout,
// for the per-operation waits (Publish/Subscribe/Unsubscribe/Connect)
// the client core's spec calls out explicitly.
func (c *Client) awaitTimeout(ctx context.Context, reply chan ioResult) (packets.Packet, error) {
	tctx, cancel := context.WithTimeout(ctx, c.opts.OperationTimeout)
	defer cancel()
	start := time.Now()
	p, err := c.await(tctx, reply)
	c.opts.Metrics.observeWait(time.Since(start).Seconds())
	return p, err
}
