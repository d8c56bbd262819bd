package mqttclient

import (
	"crypto/tls"
	"time"
)

// OptionsBuilder builds a ClientOptions fluently, mirroring the
// client core's builder. Each setter returns the builder so calls
// chain; call Build to validate and obtain the final ClientOptions.
type OptionsBuilder struct {
	opts ClientOptions
}

// NewOptionsBuilder starts a fresh builder with library defaults.
func NewOptionsBuilder() *OptionsBuilder {
	return &OptionsBuilder{}
}

// SetHost sets the broker hostname or IP address.
func (b *OptionsBuilder) SetHost(host string) *OptionsBuilder {
	b.opts.Host = host
	return b
}

// SetPort sets the broker TCP port.
func (b *OptionsBuilder) SetPort(port uint16) *OptionsBuilder {
	b.opts.Port = port
	return b
}

// SetClientID sets the MQTT client identifier sent in CONNECT. An
// empty id is valid (the broker assigns one) as long as CleanSession
// is true, which this client always sets.
func (b *OptionsBuilder) SetClientID(id string) *OptionsBuilder {
	b.opts.ClientID = id
	return b
}

// SetCredentials sets the username/password carried in CONNECT.
// Passing an empty username omits the username (and password) field
// entirely, matching the MQTT 3.1.1 username/password flag coupling.
func (b *OptionsBuilder) SetCredentials(username string, password []byte) *OptionsBuilder {
	if username == "" {
		b.opts.Username = nil
		b.opts.Password = nil
		return b
	}
	b.opts.Username = &username
	b.opts.Password = password
	return b
}

// SetKeepAlive sets the keep-alive period. Use KeepAliveDisabled() to
// turn off client-initiated PINGREQ.
func (b *OptionsBuilder) SetKeepAlive(k KeepAlive) *OptionsBuilder {
	b.opts.KeepAlive = k
	return b
}

// SetOperationTimeout bounds how long Connect/Publish/Subscribe/
// Unsubscribe wait for their correlated response before returning
// ErrTimeout.
func (b *OptionsBuilder) SetOperationTimeout(d time.Duration) *OptionsBuilder {
	b.opts.OperationTimeout = d
	return b
}

// SetPacketBufferLen sets the channel capacity used for the actor's
// request queue and the decoded-publish delivery queue.
func (b *OptionsBuilder) SetPacketBufferLen(n int) *OptionsBuilder {
	b.opts.PacketBufferLen = n
	return b
}

// SetMaxPacketLen bounds the read buffer: once the bytes read but not
// yet decoded exceed n, the read loop fails the connection with a
// ProtocolViolation error.
func (b *OptionsBuilder) SetMaxPacketLen(n int) *OptionsBuilder {
	b.opts.MaxPacketLen = n
	return b
}

// SetMaxInflightPublish bounds concurrent QoS 1 publishes awaiting
// PUBACK. A value of zero (the default) leaves it unbounded.
func (b *OptionsBuilder) SetMaxInflightPublish(n int64) *OptionsBuilder {
	b.opts.MaxInflightPublish = n
	return b
}

// SetTLSClientConfig enables TLS for the connection using cfg. A nil
// cfg (the default) connects over plain TCP.
func (b *OptionsBuilder) SetTLSClientConfig(cfg *tls.Config) *OptionsBuilder {
	b.opts.TLSConfig = cfg
	return b
}

// SetTrace installs t as the actor's instrumentation hook. A nil t
// leaves the default NopTrace in place.
func (b *OptionsBuilder) SetTrace(t Trace) *OptionsBuilder {
	b.opts.Trace = t
	return b
}

// SetMetrics installs m as the actor's Prometheus instrumentation. A
// nil m (the default) disables metrics.
func (b *OptionsBuilder) SetMetrics(m *Metrics) *OptionsBuilder {
	b.opts.Metrics = m
	return b
}

// Build validates the accumulated options and returns the final
// ClientOptions, applying library defaults for anything left unset.
func (b *OptionsBuilder) Build() (*ClientOptions, error) {
	opts := b.opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
