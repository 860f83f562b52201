// Package messaging delivers outbound text messages to channel recipients.
package messaging

import "context"

// Sender is the pluggable outbound message delivery abstraction.
type Sender interface {
	// SendText delivers a text message to a channel-specific recipient
	// (a phone number for the messaging channel).
	SendText(ctx context.Context, number, text string) error
}
