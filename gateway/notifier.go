package gateway

import "context"

// MessageKind distinguishes a generic short error (toast analog) from a
// billing-hold support prompt (banner analog), because the remediation
// differs.
type MessageKind uint8

const (
	// MessageError is a short recoverable/validation error message.
	MessageError MessageKind = iota
	// MessageBillingHold is a support-contact prompt for a held account.
	MessageBillingHold
)

// Message is a user-visible notification emitted by the gateway.
type Message struct {
	Kind MessageKind
	Text string
}

// Notifier receives user-visible messages. The gateway is the only place
// that decides messaging; implementations just display or record it.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// NoOpNotifier discards all messages.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, Message) {}

// ChannelNotifier writes messages into a buffered channel.
type ChannelNotifier struct {
	messages chan Message
}

// NewChannelNotifier creates a ChannelNotifier with the given buffer
// capacity.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		messages: make(chan Message, buffer),
	}
}

func (n *ChannelNotifier) Notify(ctx context.Context, msg Message) {
	select {
	case n.messages <- msg:
	case <-ctx.Done():
	}
}

func (n *ChannelNotifier) Messages() <-chan Message {
	return n.messages
}
