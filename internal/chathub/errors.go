package chathub

import "errors"

var (
	// ErrAlreadyPaired rejects a pairing that would give a user a second partner.
	ErrAlreadyPaired = errors.New("chathub: user already paired")
	// ErrNotPaired is returned by relay and end on an idle user.
	ErrNotPaired = errors.New("chathub: user not paired")
	// ErrRecipientUnreachable is reported by a Sender when the recipient blocked
	// the bot or can no longer be messaged.
	ErrRecipientUnreachable = errors.New("chathub: recipient unreachable")
	// ErrProfileNotFound is returned when a match is requested without a profile.
	ErrProfileNotFound = errors.New("chathub: profile not found")
	// ErrSelfPairing guards start against pairing a user with themselves.
	ErrSelfPairing = errors.New("chathub: cannot pair a user with themselves")
)
