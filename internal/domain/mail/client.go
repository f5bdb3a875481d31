package mail

import "context"

// Message is a rendered notification email.
type Message struct {
	Subject string
	Body    string
}

// Client defines an interface for handing messages to the outbound mail
// collaborator. A nil error means the transport confirmed the send; only then
// may the caller record the notification as delivered.
type Client interface {
	Send(ctx context.Context, recipientAddress, locale string, msg Message) error
}
