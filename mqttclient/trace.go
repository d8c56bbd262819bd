package mqttclient

import (
	"log"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"github.com/go-mqttcore/mqttclient/packets"
)

// Trace receives instrumentation callbacks from the actor loop. All
// methods must return quickly and must not call back into the Client
// that produced them. ClientOptions built without a Trace use NopTrace.
type Trace interface {
	// SendPacket is called just before p is written to the stream.
	SendPacket(p packets.Packet)
	// RecvPacket is called just after p is decoded from the stream.
	RecvPacket(p packets.Packet)
	// Debug is called with free-form diagnostic detail: inbound
	// packets the actor drops or ignores.
	Debug(format string, args ...interface{})
}

// NopTrace discards every callback. It is the default Trace.
type NopTrace struct{}

func (NopTrace) SendPacket(packets.Packet)            {}
func (NopTrace) RecvPacket(packets.Packet)            {}
func (NopTrace) Debug(format string, args ...interface{}) {}

// StdTrace logs every callback through the standard library's log
// package, one line per event, prefixed with a short correlation id
// so interleaved connections can be told apart in shared log output.
type StdTrace struct {
	id     string
	Logger *log.Logger
}

// NewStdTrace builds a StdTrace with a fresh correlation id. If
// logger is nil, log.Default() is used.
func NewStdTrace(logger *log.Logger) *StdTrace {
	if logger == nil {
		logger = log.Default()
	}
	return &StdTrace{id: uuid.NewString()[:8], Logger: logger}
}

func (t *StdTrace) SendPacket(p packets.Packet) {
	t.Logger.Printf("mqttclient[%s] send kind=%d", t.id, p.Kind())
}

func (t *StdTrace) RecvPacket(p packets.Packet) {
	t.Logger.Printf("mqttclient[%s] recv kind=%d", t.id, p.Kind())
}

func (t *StdTrace) Debug(format string, args ...interface{}) {
	t.Logger.Printf("mqttclient[%s] "+format, append([]interface{}{t.id}, args...)...)
}

// SpewTrace is StdTrace's louder sibling: it additionally dumps the
// full packet structure via go-spew, which is useful when diagnosing
// a codec mismatch but too noisy for routine operation.
type SpewTrace struct {
	*StdTrace
}

// NewSpewTrace builds a SpewTrace with a fresh correlation id. If
// logger is nil, log.Default() is used.
func NewSpewTrace(logger *log.Logger) *SpewTrace {
	return &SpewTrace{StdTrace: NewStdTrace(logger)}
}

func (t *SpewTrace) SendPacket(p packets.Packet) {
	t.Logger.Printf("mqttclient[%s] send %s", t.id, spew.Sdump(p))
}

func (t *SpewTrace) RecvPacket(p packets.Packet) {
	t.Logger.Printf("mqttclient[%s] recv %s", t.id, spew.Sdump(p))
}
