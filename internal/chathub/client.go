package chathub

import "context"

// Button is one inline keyboard button. Payload is opaque to the hub.
type Button struct {
	Label   string
	Payload string
}

// Sender is the outbound side of the chat transport (Telegram in production).
// It abstracts the underlying delivery mechanism so the hub can be driven by
// any client type, and tests by a mock.
type Sender interface {
	// Send delivers text to userID, optionally with an inline keyboard given
	// as rows of buttons. A recipient that blocked the bot must be reported
	// as ErrRecipientUnreachable.
	Send(ctx context.Context, userID int64, text string, keyboard [][]Button) error
}

// Notices are the texts the hub sends on its own behalf.
type Notices struct {
	MatchFound         string
	PartnerLeft        string
	PartnerUnavailable string
	Searching          string
}
