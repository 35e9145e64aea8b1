// Package verification confirms ownership of a mobile number or an email
// address with one-time codes. Providers answer asynchronously: each call
// returns a channel that receives exactly one result.
package verification

import (
	"context"
)

// SendResult reports the outcome of dispatching a code.
type SendResult struct {
	ChallengeID string
	Err         error
}

// ConfirmResult reports the outcome of checking a code. Target is the mobile
// number or email the challenge was issued for. Verified is false when the
// code was wrong.
type ConfirmResult struct {
	Target   string
	Verified bool
	Err      error
}

// Provider is an OTP identity provider.
type Provider interface {
	SendCode(ctx context.Context, target string) <-chan SendResult
	ConfirmCode(ctx context.Context, challengeID, code string) <-chan ConfirmResult
}

// Notifier delivers a code to the target it was issued for.
type Notifier interface {
	Deliver(ctx context.Context, target, code string) error
}
