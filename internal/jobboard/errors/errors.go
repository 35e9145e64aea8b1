package errors

import (
	"fmt"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrDuplicateIdentity   = fmt.Errorf("duplicate identity")
	ErrDuplicateEmail      = fmt.Errorf("%w: email", ErrDuplicateIdentity)
	ErrDuplicateMobile     = fmt.Errorf("%w: mobile", ErrDuplicateIdentity)
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials")
	ErrMissingToken        = fmt.Errorf("missing token")
	ErrInvalidToken        = fmt.Errorf("invalid token")
	ErrAlreadyClaimed      = fmt.Errorf("company already claimed")
	ErrCodeRejected        = fmt.Errorf("verification code rejected")
	ErrProviderUnavailable = fmt.Errorf("verification provider unavailable")
)
