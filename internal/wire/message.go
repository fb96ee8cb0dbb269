// Package wire implements the message envelope shared by the proxy and
// the transport server, per spec.md §4.1. It is the "~10%" leaf
// component everything else is built on: address fields plus a typed
// payload buffer, with ids generated on construction so a new Call
// never needs caller-side coordination (mirrors the teacher's per-
// connection request tag, widened to a package-level generator since
// qibus's transport sockets are themselves the per-connection scope).
package wire

import (
	"sync/atomic"

	"github.com/qi-bus/qibus/internal/typesys"
)

// Type is the message's envelope kind.
type Type uint8

const (
	Call Type = iota
	Reply
	Error
	Event
)

func (t Type) String() string {
	switch t {
	case Call:
		return "Call"
	case Reply:
		return "Reply"
	case Error:
		return "Error"
	case Event:
		return "Event"
	default:
		return "Unknown"
	}
}

// Reserved service/function ids forming the control sub-protocol
// described in spec.md §4.1 and §6.
const (
	ServiceServer uint32 = 0

	FunctionRegisterEvent   uint32 = 1
	FunctionUnregisterEvent uint32 = 2
)

// ObjectMain is the fixed object-id used throughout this core;
// multi-object-per-service is out of scope (spec.md §4.1).
const ObjectMain uint32 = 0

var nextID atomic.Uint32

// Address identifies a message's routing: (service, object, function, id).
type Address struct {
	Service  uint32
	Object   uint32
	Function uint32
	ID       uint32
}

// Message is the wire envelope.
type Message struct {
	id       uint32
	typ      Type
	service  uint32
	object   uint32
	function uint32
	payload  *typesys.Buffer
}

// NewCall builds a Call message with a freshly allocated id.
func NewCall(service, function uint32, payload *typesys.Buffer) *Message {
	return &Message{
		id:       allocID(),
		typ:      Call,
		service:  service,
		object:   ObjectMain,
		function: function,
		payload:  payload,
	}
}

// NewReply builds a Reply echoing the id of the Call it answers.
func NewReply(service, function, id uint32, payload *typesys.Buffer) *Message {
	return &Message{id: id, typ: Reply, service: service, object: ObjectMain, function: function, payload: payload}
}

// NewError builds an Error echoing the id of the Call it answers.
func NewError(service, function, id uint32, payload *typesys.Buffer) *Message {
	return &Message{id: id, typ: Error, service: service, object: ObjectMain, function: function, payload: payload}
}

// NewEvent builds an Event for the given service/signal with a fresh id.
func NewEvent(service, function uint32, payload *typesys.Buffer) *Message {
	return &Message{id: allocID(), typ: Event, service: service, object: ObjectMain, function: function, payload: payload}
}

// NewRaw reconstructs a Message with an explicit id and type, used by
// the transport layer when decoding a frame off the wire (the id and
// type already exist; they must not be reallocated).
func NewRaw(id uint32, typ Type, service, object, function uint32, payload *typesys.Buffer) *Message {
	return &Message{id: id, typ: typ, service: service, object: object, function: function, payload: payload}
}

func allocID() uint32 {
	// Skip 0 so a zero-valued Message can never be mistaken for a real
	// in-flight id.
	for {
		id := nextID.Add(1)
		if id != 0 {
			return id
		}
	}
}

func (m *Message) ID() uint32               { return m.id }
func (m *Message) Type() Type               { return m.typ }
func (m *Message) Service() uint32          { return m.service }
func (m *Message) Object() uint32           { return m.object }
func (m *Message) Function() uint32         { return m.function }
func (m *Message) Payload() *typesys.Buffer { return m.payload }

func (m *Message) SetPayload(b *typesys.Buffer) { m.payload = b }

// Address returns the message's routing address.
func (m *Message) Address() Address {
	return Address{Service: m.service, Object: m.object, Function: m.function, ID: m.id}
}
