package packets

// QoS is an MQTT quality of service level. This client implements
// QoS0 and QoS1 only; QoS2 is recognized so callers and the codec can
// reject it explicitly rather than silently misbehaving.
type QoS byte

const (
	QoS0 QoS = 0
	QoS1 QoS = 1
	QoS2 QoS = 2
)

// Publish is the PUBLISH control packet.
type Publish struct {
	Dup     bool
	QoS     QoS
	Retain  bool
	Topic   string
	PID     uint16 // only meaningful when QoS > 0
	Payload []byte
}

func (p *Publish) Kind() byte { return TypePublish }

// PacketID returns the PID and true when QoS > 0; PUBLISH at QoS 0
// carries no packet identifier (client core spec, PID correlation
// rules).
func (p *Publish) PacketID() (uint16, bool) {
	if p.QoS == QoS0 {
		return 0, false
	}
	return p.PID, true
}

func (p *Publish) flags() byte {
	var f byte
	if p.Dup {
		f |= 0x08
	}
	f |= byte(p.QoS) << 1
	if p.Retain {
		f |= 0x01
	}
	return f
}

func (p *Publish) encodeVariable(dst []byte) ([]byte, error) {
	if p.QoS == QoS2 {
		return nil, ErrUnsupportedQoS
	}
	dst = putString(dst, p.Topic)
	if p.QoS != QoS0 {
		dst = putUint16(dst, p.PID)
	}
	dst = append(dst, p.Payload...)
	return dst, nil
}

func decodePublish(fh fixedHeader, buf []byte) (*Publish, error) {
	qos := QoS((fh.flags >> 1) & 0x03)
	if qos == QoS2 {
		return nil, ErrUnsupportedQoS
	}
	topic, n, err := getString(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]

	var pid uint16
	if qos != QoS0 {
		pid, err = getUint16(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[2:]
	}

	payload := make([]byte, len(buf))
	copy(payload, buf)

	return &Publish{
		Dup:     fh.flags&0x08 != 0,
		QoS:     qos,
		Retain:  fh.flags&0x01 != 0,
		Topic:   topic,
		PID:     pid,
		Payload: payload,
	}, nil
}
