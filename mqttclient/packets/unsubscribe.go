package packets

// Unsubscribe is the UNSUBSCRIBE control packet.
type Unsubscribe struct {
	PID    uint16
	Topics []string
}

func (u *Unsubscribe) Kind() byte { return TypeUnsubscribe }

func (u *Unsubscribe) PacketID() (uint16, bool) { return u.PID, true }

// flags is fixed at 0b0010 for UNSUBSCRIBE (MQTT 3.1.1 section 3.10.1).
func (u *Unsubscribe) flags() byte { return 0x02 }

func (u *Unsubscribe) encodeVariable(dst []byte) ([]byte, error) {
	dst = putUint16(dst, u.PID)
	for _, t := range u.Topics {
		dst = putString(dst, t)
	}
	return dst, nil
}

func decodeUnsubscribe(_ fixedHeader, buf []byte) (*Unsubscribe, error) {
	pid, err := getUint16(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[2:]

	var topics []string
	for len(buf) > 0 {
		topic, n, err := getString(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		return nil, ErrMalformed
	}
	return &Unsubscribe{PID: pid, Topics: topics}, nil
}
