package packets

// Connect is the CONNECT control packet (MQTT 3.1.1 section 3.1).
// This client never sends a Will and always sets CleanSession, per
// the client core's spec; the fields exist so Decode can still parse
// a CONNECT this client did not itself construct (useful for codec
// round-trip tests).
type Connect struct {
	ProtocolName  string
	ProtocolLevel byte
	CleanSession  bool
	KeepAlive     uint16
	ClientID      string
	Username      *string
	Password      []byte
}

// NewConnect311 builds a CONNECT packet for MQTT 3.1.1 with
// CleanSession always true and no Will, matching the client core's
// handshake contract.
func NewConnect311(clientID string, keepAlive uint16, username *string, password []byte) *Connect {
	return &Connect{
		ProtocolName:  "MQTT",
		ProtocolLevel: 4,
		CleanSession:  true,
		KeepAlive:     keepAlive,
		ClientID:      clientID,
		Username:      username,
		Password:      password,
	}
}

func (c *Connect) Kind() byte { return TypeConnect }

func (c *Connect) PacketID() (uint16, bool) { return 0, false }

func (c *Connect) flags() byte { return 0 }

func (c *Connect) encodeVariable(dst []byte) ([]byte, error) {
	dst = putString(dst, c.ProtocolName)
	dst = append(dst, c.ProtocolLevel)

	var connectFlags byte
	if c.CleanSession {
		connectFlags |= 0x02
	}
	if c.Password != nil {
		connectFlags |= 0x40
	}
	if c.Username != nil {
		connectFlags |= 0x80
	}
	dst = append(dst, connectFlags)
	dst = putUint16(dst, c.KeepAlive)

	dst = putString(dst, c.ClientID)
	if c.Username != nil {
		dst = putString(dst, *c.Username)
	}
	if c.Password != nil {
		dst = putBytes(dst, c.Password)
	}
	return dst, nil
}

func decodeConnect(_ fixedHeader, buf []byte) (*Connect, error) {
	protocolName, n, err := getString(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]
	if len(buf) < 4 {
		return nil, ErrMalformed
	}
	protocolLevel := buf[0]
	connectFlags := buf[1]
	keepAlive, err := getUint16(buf[2:4])
	if err != nil {
		return nil, err
	}
	buf = buf[4:]

	clientID, n, err := getString(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]

	// This client never sets a Will, but a spec-compliant decoder
	// must still skip over one if present so the remaining fields
	// line up correctly.
	if connectFlags&0x04 != 0 {
		_, n, err := getString(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		_, n, err = getBytes(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
	}

	c := &Connect{
		ProtocolName:  protocolName,
		ProtocolLevel: protocolLevel,
		CleanSession:  connectFlags&0x02 != 0,
		KeepAlive:     keepAlive,
		ClientID:      clientID,
	}
	if connectFlags&0x80 != 0 {
		username, n, err := getString(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		c.Username = &username
	}
	if connectFlags&0x40 != 0 {
		password, _, err := getBytes(buf)
		if err != nil {
			return nil, err
		}
		c.Password = password
	}
	return c, nil
}
