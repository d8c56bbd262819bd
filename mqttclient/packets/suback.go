package packets

// SubackReturnCode is one per-topic result in a SUBACK (MQTT 3.1.1
// section 3.9.3).
type SubackReturnCode byte

const (
	SubackQoS0    SubackReturnCode = 0x00
	SubackQoS1    SubackReturnCode = 0x01
	SubackQoS2    SubackReturnCode = 0x02
	SubackFailure SubackReturnCode = 0x80
)

// Suback is the SUBACK control packet.
type Suback struct {
	PID         uint16
	ReturnCodes []SubackReturnCode
}

func (s *Suback) Kind() byte { return TypeSuback }

func (s *Suback) PacketID() (uint16, bool) { return s.PID, true }

func (s *Suback) flags() byte { return 0 }

func (s *Suback) encodeVariable(dst []byte) ([]byte, error) {
	dst = putUint16(dst, s.PID)
	for _, rc := range s.ReturnCodes {
		dst = append(dst, byte(rc))
	}
	return dst, nil
}

func decodeSuback(_ fixedHeader, buf []byte) (*Suback, error) {
	pid, err := getUint16(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[2:]
	if len(buf) == 0 {
		return nil, ErrMalformed
	}
	codes := make([]SubackReturnCode, len(buf))
	for i, b := range buf {
		codes[i] = SubackReturnCode(b)
	}
	return &Suback{PID: pid, ReturnCodes: codes}, nil
}
