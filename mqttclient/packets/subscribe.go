package packets

// SubscribeTopic is one topic filter / requested QoS pair in a
// SUBSCRIBE packet.
type SubscribeTopic struct {
	Topic string
	QoS   QoS
}

// Subscribe is the SUBSCRIBE control packet.
type Subscribe struct {
	PID    uint16
	Topics []SubscribeTopic
}

func (s *Subscribe) Kind() byte { return TypeSubscribe }

func (s *Subscribe) PacketID() (uint16, bool) { return s.PID, true }

// flags is fixed at 0b0010 for SUBSCRIBE (MQTT 3.1.1 section 3.8.1).
func (s *Subscribe) flags() byte { return 0x02 }

func (s *Subscribe) encodeVariable(dst []byte) ([]byte, error) {
	dst = putUint16(dst, s.PID)
	for _, t := range s.Topics {
		if t.QoS == QoS2 {
			return nil, ErrUnsupportedQoS
		}
		dst = putString(dst, t.Topic)
		dst = append(dst, byte(t.QoS))
	}
	return dst, nil
}

func decodeSubscribe(_ fixedHeader, buf []byte) (*Subscribe, error) {
	pid, err := getUint16(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[2:]

	var topics []SubscribeTopic
	for len(buf) > 0 {
		topic, n, err := getString(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		if len(buf) < 1 {
			return nil, ErrMalformed
		}
		qos := QoS(buf[0])
		buf = buf[1:]
		topics = append(topics, SubscribeTopic{Topic: topic, QoS: qos})
	}
	if len(topics) == 0 {
		return nil, ErrMalformed
	}
	return &Subscribe{PID: pid, Topics: topics}, nil
}
