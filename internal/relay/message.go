package relay

// Kind tags the frame type a payload arrived as. The relay preserves it
// through fan-out: text in, text out; binary in, binary out.
type Kind int

const (
	KindText Kind = iota + 1
	KindBinary
)

// Message is one frame in flight from a sender to its room peers. It is
// never stored past delivery.
type Message struct {
	Payload []byte
	Kind    Kind
	Origin  string // connection ID of the sender
}

// Member is one connection's delivery endpoint as seen by a room.
type Member interface {
	ID() string
	// Enqueue offers a message without blocking. A false return means
	// the member's send queue was full and the message was dropped for
	// this member only.
	Enqueue(Message) bool
}
