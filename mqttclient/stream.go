package mqttclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
)

// stream is the byte-level transport the actor reads and writes. Both
// *net.TCPConn and *tls.Conn satisfy it without any wrapper type,
// since both already expose Read/Write/Close with these signatures.
type stream interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// dialStream opens the transport for opts: a plain TCP connection, or
// a TLS connection over TCP when opts.TLSConfig is non-nil. Unlike the
// per-operation waits (Connect/Publish/Subscribe/Unsubscribe), the
// dial itself is governed only by ctx's own deadline; the client core
// does not additionally wrap it in OperationTimeout, so a caller that
// wants a dial deadline must set one on ctx.
func dialStream(ctx context.Context, opts *ClientOptions) (stream, error) {
	addr := net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, wrapError(KindIO, "dial "+addr, err)
	}

	if opts.TLSConfig == nil {
		return conn, nil
	}

	tlsConn := tls.Client(conn, opts.TLSConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, wrapError(KindIO, "tls handshake with "+addr, err)
	}
	return tlsConn, nil
}
