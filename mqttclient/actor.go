package mqttclient

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/go-mqttcore/mqttclient/internal/pidpool"
	"github.com/go-mqttcore/mqttclient/packets"
)

// decoded is one fully-decoded packet (or a read failure) handed from
// readLoop to the actor's run loop.
type decoded struct {
	packet packets.Packet
	err    error
}

// actor owns the connection exclusively: its run loop writes the
// stream and its readLoop goroutine reads it. Every other goroutine talks to it
// through reqCh and reads delivered PUBLISH packets from pubCh. This
// is the Go rendition of the client core's IoTask: a single select
// loop stands in for the original's future-combinator select! over
// {incoming request, socket read, keep-alive timer, PINGRESP
// deadline}.
type actor struct {
	opts *ClientOptions
	s    stream
	pids *pidpool.Pool

	reqCh  chan *ioRequest
	pubCh  chan ReadResult
	inbCh  chan decoded
	doneCh chan struct{}

	closeErr error
	mu       sync.Mutex // guards closeErr only
}

func newActor(s stream, opts *ClientOptions) *actor {
	return &actor{
		opts:   opts,
		s:      s,
		pids:   &pidpool.Pool{},
		reqCh:  make(chan *ioRequest, opts.PacketBufferLen),
		pubCh:  make(chan ReadResult, opts.PacketBufferLen),
		inbCh:  make(chan decoded, opts.PacketBufferLen),
		doneCh: make(chan struct{}),
	}
}

// run is the actor's main loop. It returns once reading the stream
// fails, a protocol violation is detected, a PINGRESP is overdue, ctx
// is canceled, or a shutdown request is received. Except on a shutdown
// request, the error that ended it is delivered to every still-parked
// request and recorded for Client.Err.
func (a *actor) run(ctx context.Context) {
	defer close(a.doneCh)
	defer a.s.Close()

	go a.readLoop()

	pending := make(map[uint16]chan ioResult)
	var connackWait chan ioResult

	var keepAliveTimer *time.Timer
	var keepAliveC <-chan time.Time
	if secs, ok := a.opts.KeepAlive.Enabled(); ok && secs > 0 {
		keepAliveTimer = time.NewTimer(time.Duration(secs) * time.Second)
		keepAliveC = keepAliveTimer.C
		defer keepAliveTimer.Stop()
	}

	var pingTimer *time.Timer
	var pingC <-chan time.Time
	pingExpected := false
	stopPing := func() {
		if pingTimer != nil {
			pingTimer.Stop()
			pingC = nil
			pingExpected = false
		}
	}

	fail := func(err error) {
		a.mu.Lock()
		a.closeErr = err
		a.mu.Unlock()
		if connackWait != nil {
			connackWait <- ioResult{err: err}
			connackWait = nil
		}
		for pid, ch := range pending {
			ch <- ioResult{err: err}
			delete(pending, pid)
		}
	}

	for {
		select {
		case <-ctx.Done():
			fail(wrapError(KindDisconnected, "context canceled", ctx.Err()))
			return

		case req := <-a.reqCh:
			if req.kind == ioShutdown {
				return
			}
			if err := a.write(req.packet); err != nil {
				if req.reply != nil {
					req.reply <- ioResult{err: wrapError(KindIO, "write", err)}
				}
				continue
			}
			if keepAliveTimer != nil {
				resetTimer(keepAliveTimer, time.Duration(mustKeepAliveSecs(a.opts))*time.Second)
			}
			switch req.kind {
			case ioWriteConnect:
				connackWait = req.reply
			case ioWriteAndResponse:
				pending[req.pid] = req.reply
			}

		case d := <-a.inbCh:
			if d.err != nil {
				fail(wrapError(KindIO, "read", d.err))
				return
			}
			if err := a.handleInbound(d.packet, pending, &connackWait, &pingExpected, stopPing); err != nil {
				fail(err)
				return
			}

		case <-keepAliveC:
			if err := a.write(packets.Pingreq{}); err != nil {
				fail(wrapError(KindIO, "write pingreq", err))
				return
			}
			if !pingExpected {
				pingExpected = true
				pingTimer = time.NewTimer(a.opts.OperationTimeout)
				pingC = pingTimer.C
			}
			if keepAliveTimer != nil {
				resetTimer(keepAliveTimer, time.Duration(mustKeepAliveSecs(a.opts))*time.Second)
			}

		case <-pingC:
			fail(newError(KindDisconnected, "no PINGRESP within operation timeout"))
			return
		}
	}
}

// handleInbound dispatches one decoded packet against the pending
// correlation state. It never blocks: delivery to pubCh is attempted
// without blocking the actor loop, per the buffered-channel contract
// documented on ClientOptions.PacketBufferLen.
func (a *actor) handleInbound(p packets.Packet, pending map[uint16]chan ioResult, connackWait *chan ioResult, pingExpected *bool, stopPing func()) error {
	a.opts.Trace.RecvPacket(p)
	a.opts.Metrics.received(kindName(p.Kind()))

	switch pkt := p.(type) {
	case *packets.Connack:
		if *connackWait == nil {
			a.opts.Trace.Debug("dropped unexpected CONNACK")
			return nil
		}
		(*connackWait) <- ioResult{packet: pkt}
		*connackWait = nil
		return nil

	case *packets.Puback:
		return a.resolvePending(pending, pkt.PID, pkt)

	case *packets.Suback:
		return a.resolvePending(pending, pkt.PID, pkt)

	case *packets.Unsuback:
		return a.resolvePending(pending, pkt.PID, pkt)

	case packets.Pingresp:
		*pingExpected = false
		stopPing()
		return nil

	case *packets.Publish:
		if pkt.QoS == packets.QoS1 {
			if err := a.write(&packets.Puback{PID: pkt.PID}); err != nil {
				return wrapError(KindIO, "write puback", err)
			}
		}
		result := ReadResult{Topic: pkt.Topic, Payload: pkt.Payload, QoS: pkt.QoS, Retain: pkt.Retain, Dup: pkt.Dup}
		select {
		case a.pubCh <- result:
		default:
			// Slow consumer: drop rather than block the actor loop and
			// risk stalling PINGREQ/PUBACK for every other correlation.
			a.opts.Trace.Debug("dropped inbound publish on topic %q: pubCh full", pkt.Topic)
		}
		return nil

	default:
		// Pingreq, Disconnect, and anything else with no PID to
		// correlate: nothing to do but note it went by.
		a.opts.Trace.Debug("ignoring inbound %T", p)
		return nil
	}
}

func (a *actor) resolvePending(pending map[uint16]chan ioResult, pid uint16, p packets.Packet) error {
	ch, ok := pending[pid]
	if !ok {
		a.opts.Trace.Debug("dropped response for unknown pid %d", pid)
		return nil
	}
	delete(pending, pid)
	a.pids.Free(pid)
	ch <- ioResult{packet: p}
	return nil
}

func (a *actor) write(p packets.Packet) error {
	var buf bytes.Buffer
	if err := packets.Encode(p, &buf); err != nil {
		return err
	}
	a.opts.Trace.SendPacket(p)
	a.opts.Metrics.sent(kindName(p.Kind()))
	_, err := a.s.Write(buf.Bytes())
	return err
}

// readLoop decodes packets off the stream and feeds them to inbCh. It
// exits, closing nothing itself, when the stream returns an error;
// the actor's run loop owns closing the stream.
func (a *actor) readLoop() {
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, err := a.s.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			if len(buf) > a.opts.MaxPacketLen {
				a.inbCh <- decoded{err: newError(KindProtocolViolation, "packet exceeds max length")}
				return
			}
			for {
				p, consumed, derr := packets.Decode(buf)
				if derr == packets.ErrShortBuffer {
					break
				}
				if derr != nil {
					a.inbCh <- decoded{err: derr}
					return
				}
				a.inbCh <- decoded{packet: p}
				buf = buf[consumed:]
			}
		}
		if err != nil {
			if err == io.EOF {
				a.inbCh <- decoded{err: io.ErrUnexpectedEOF}
			} else {
				a.inbCh <- decoded{err: err}
			}
			return
		}
	}
}

// err returns a Disconnected-kind error for a stopped actor: the
// recorded cause itself when it is already of that kind, the cause
// wrapped in one otherwise, or ErrDisconnected if it stopped without a
// recorded cause (a clean shutdown request).
func (a *actor) err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closeErr == nil {
		return ErrDisconnected
	}
	if e, ok := a.closeErr.(*Error); ok && e.Kind == KindDisconnected {
		return e
	}
	return wrapError(KindDisconnected, "connection closed", a.closeErr)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func mustKeepAliveSecs(opts *ClientOptions) uint16 {
	secs, _ := opts.KeepAlive.Enabled()
	return secs
}

func kindName(k byte) string {
	switch k {
	case packets.TypeConnect:
		return "connect"
	case packets.TypeConnack:
		return "connack"
	case packets.TypePublish:
		return "publish"
	case packets.TypePuback:
		return "puback"
	case packets.TypeSubscribe:
		return "subscribe"
	case packets.TypeSuback:
		return "suback"
	case packets.TypeUnsubscribe:
		return "unsubscribe"
	case packets.TypeUnsuback:
		return "unsuback"
	case packets.TypePingreq:
		return "pingreq"
	case packets.TypePingresp:
		return "pingresp"
	case packets.TypeDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}
