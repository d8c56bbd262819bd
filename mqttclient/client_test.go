package mqttclient

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-mqttcore/mqttclient/packets"
)

// fakeBroker drives the broker side of a net.Pipe connection in tests,
// decoding whatever the client writes and letting the test script
// canned responses back.
type fakeBroker struct {
	conn net.Conn
	buf  []byte
}

func newFakeBroker(conn net.Conn) *fakeBroker {
	_ = conn.SetDeadline(time.Now().Add(8 * time.Second))
	return &fakeBroker{conn: conn}
}

// next blocks until one full packet has been read from the client.
func (b *fakeBroker) next(t *testing.T) packets.Packet {
	t.Helper()
	tmp := make([]byte, 4096)
	for {
		p, n, err := packets.Decode(b.buf)
		if err == nil {
			b.buf = b.buf[n:]
			return p
		}
		require.ErrorIs(t, err, packets.ErrShortBuffer)
		n, err = b.conn.Read(tmp)
		require.NoError(t, err)
		b.buf = append(b.buf, tmp[:n]...)
	}
}

func (b *fakeBroker) send(t *testing.T, p packets.Packet) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, packets.Encode(p, &buf))
	_, err := b.conn.Write(buf.Bytes())
	require.NoError(t, err)
}

// drainUntilClosed reads and discards whatever the client writes
// until the connection is closed or its deadline expires. Used where
// a test deliberately leaves the client's writes unanswered and must
// keep the actor's write from blocking forever on the pipe.
func (b *fakeBroker) drainUntilClosed() {
	tmp := make([]byte, 4096)
	for {
		if _, err := b.conn.Read(tmp); err != nil {
			return
		}
	}
}

func testOptions(t *testing.T) *ClientOptions {
	t.Helper()
	opts, err := NewOptionsBuilder().
		SetHost("unused"). // newClientFromStream skips dialing
		SetPort(1).
		SetClientID("test-client").
		SetOperationTimeout(2 * time.Second).
		Build()
	require.NoError(t, err)
	return opts
}

// dialPipe returns a connected (client stream, broker stream) pair
// over net.Pipe, with the client side typed as mqttclient's stream
// interface.
func dialPipe() (stream, net.Conn) {
	clientSide, brokerSide := net.Pipe()
	return clientSide, brokerSide
}

func connectOverPipe(t *testing.T) (*Client, *fakeBroker) {
	t.Helper()
	clientSide, brokerSide := dialPipe()
	broker := newFakeBroker(brokerSide)

	type result struct {
		c   *Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := newClientFromStream(context.Background(), clientSide, testOptions(t))
		done <- result{c, err}
	}()

	pkt := broker.next(t)
	_, ok := pkt.(*packets.Connect)
	require.True(t, ok, "expected CONNECT, got %T", pkt)
	broker.send(t, &packets.Connack{ReturnCode: packets.ConnectAccepted})

	r := <-done
	require.NoError(t, r.err)
	return r.c, broker
}

func TestConnectSuccess(t *testing.T) {
	c, _ := connectOverPipe(t)
	defer c.Close()
	assert.Nil(t, c.Err())
}

func TestConnectRejected(t *testing.T) {
	clientSide, brokerSide := dialPipe()
	broker := newFakeBroker(brokerSide)

	type result struct {
		c   *Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := newClientFromStream(context.Background(), clientSide, testOptions(t))
		done <- result{c, err}
	}()

	broker.next(t)
	broker.send(t, &packets.Connack{ReturnCode: packets.ConnectRefusedNotAuthorized})

	r := <-done
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, ErrProtocolRejected)
}

func TestConnectTimesOutWithoutConnack(t *testing.T) {
	clientSide, brokerSide := dialPipe()
	defer brokerSide.Close()
	// The broker accepts the CONNECT bytes but never answers them.
	go newFakeBroker(brokerSide).drainUntilClosed()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClientFromStream(ctx, clientSide, testOptions(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPublishQoS0DoesNotWaitForAck(t *testing.T) {
	c, broker := connectOverPipe(t)
	defer c.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Publish(context.Background(), NewPublish("a/b", []byte("hi")))
	}()

	pkt := broker.next(t)
	pub, ok := pkt.(*packets.Publish)
	require.True(t, ok)
	assert.Equal(t, "a/b", pub.Topic)
	assert.Equal(t, packets.QoS0, pub.QoS)

	require.NoError(t, <-errCh)
}

func TestPublishQoS1WaitsForPuback(t *testing.T) {
	c, broker := connectOverPipe(t)
	defer c.Close()

	errCh := make(chan error, 1)
	go func() {
		msg := NewPublish("a/b", []byte("hi")).SetQoS(packets.QoS1)
		errCh <- c.Publish(context.Background(), msg)
	}()

	pkt := broker.next(t)
	pub, ok := pkt.(*packets.Publish)
	require.True(t, ok)
	assert.Equal(t, packets.QoS1, pub.QoS)
	require.NotZero(t, pub.PID)

	broker.send(t, &packets.Puback{PID: pub.PID})
	require.NoError(t, <-errCh)
}

func TestSubscribeReturnsPerTopicResults(t *testing.T) {
	c, broker := connectOverPipe(t)
	defer c.Close()

	type subResult struct {
		res *SubscribeResult
		err error
	}
	done := make(chan subResult, 1)
	go func() {
		res, err := c.Subscribe(context.Background(), []SubscribeRequest{
			{Topic: "a/b", QoS: packets.QoS0},
			{Topic: "c/d", QoS: packets.QoS1},
		})
		done <- subResult{res, err}
	}()

	pkt := broker.next(t)
	sub, ok := pkt.(*packets.Subscribe)
	require.True(t, ok)
	require.Len(t, sub.Topics, 2)

	broker.send(t, &packets.Suback{PID: sub.PID, ReturnCodes: []packets.SubackReturnCode{
		packets.SubackQoS0, packets.SubackFailure,
	}})

	r := <-done
	require.NoError(t, r.err)
	assert.True(t, r.res.AnyFailures())
}

func TestUnsubscribeRoundTrip(t *testing.T) {
	c, broker := connectOverPipe(t)
	defer c.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Unsubscribe(context.Background(), []string{"a/b"})
	}()

	pkt := broker.next(t)
	unsub, ok := pkt.(*packets.Unsubscribe)
	require.True(t, ok)

	broker.send(t, &packets.Unsuback{PID: unsub.PID})
	require.NoError(t, <-errCh)
}

func TestReadSubscriptionsDeliversInboundPublish(t *testing.T) {
	c, broker := connectOverPipe(t)
	defer c.Close()

	broker.send(t, &packets.Publish{Topic: "news/today", Payload: []byte("hello"), QoS: packets.QoS0})

	r, err := c.ReadSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "news/today", r.Topic)
	assert.Equal(t, []byte("hello"), r.Payload)
}

func TestReadSubscriptionsAcksQoS1Publish(t *testing.T) {
	c, broker := connectOverPipe(t)
	defer c.Close()

	broker.send(t, &packets.Publish{Topic: "news/today", Payload: []byte("hello"), QoS: packets.QoS1, PID: 5})

	// The actor writes the PUBACK before delivering the message, and the
	// pipe is unbuffered, so the broker reads it first.
	pkt := broker.next(t)
	puback, ok := pkt.(*packets.Puback)
	require.True(t, ok)
	assert.Equal(t, uint16(5), puback.PID)

	r, err := c.ReadSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "news/today", r.Topic)
}

func TestKeepAliveSendsPingreqAndSurvivesPingresp(t *testing.T) {
	clientSide, brokerSide := dialPipe()
	broker := newFakeBroker(brokerSide)

	opts := testOptions(t)
	opts.KeepAlive = KeepAliveEnabled(1)

	type result struct {
		c   *Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := newClientFromStream(context.Background(), clientSide, opts)
		done <- result{c, err}
	}()

	broker.next(t)
	broker.send(t, &packets.Connack{ReturnCode: packets.ConnectAccepted})
	r := <-done
	require.NoError(t, r.err)
	defer r.c.Close()

	pkt := broker.next(t)
	_, ok := pkt.(packets.Pingreq)
	require.True(t, ok, "expected PINGREQ within one keep-alive period, got %T", pkt)

	broker.send(t, packets.Pingresp{})

	// The connection should still be usable after a normal ping/pong.
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, r.c.Err())
}

func TestKeepAliveTimeoutWithoutPingrespDisconnects(t *testing.T) {
	clientSide, brokerSide := dialPipe()
	broker := newFakeBroker(brokerSide)

	// Keep-alive shorter than the operation timeout, matching the
	// documented scenario exactly: the first PINGREQ goes unacked, a
	// second is resent at the next keep-alive tick (never itself
	// fatal), and only the 2s deadline from the first PINGREQ ends
	// the connection, roughly 2s after it was sent.
	opts := testOptions(t)
	opts.KeepAlive = KeepAliveEnabled(1)
	opts.OperationTimeout = 2 * time.Second

	type result struct {
		c   *Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := newClientFromStream(context.Background(), clientSide, opts)
		done <- result{c, err}
	}()

	broker.next(t)
	broker.send(t, &packets.Connack{ReturnCode: packets.ConnectAccepted})
	r := <-done
	require.NoError(t, r.err)
	defer r.c.Close()

	broker.next(t) // first PINGREQ, never acknowledged

	// Drain any resent PINGREQ in the background so the actor's write
	// never blocks on the unread pipe while we wait out the deadline.
	go broker.drainUntilClosed()

	<-r.c.a.doneCh
	assert.ErrorIs(t, r.c.Err(), ErrDisconnected)
}

func TestPublishQoS2Rejected(t *testing.T) {
	c, _ := connectOverPipe(t)
	defer c.Close()

	err := c.Publish(context.Background(), NewPublish("a/b", nil).SetQoS(packets.QoS2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolViolation)
}
