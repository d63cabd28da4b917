package dispatch

import (
	"errors"
	"fmt"
)

// ErrPrecondition wraps every failure detected before a remote call. No
// request is sent when a command returns one.
var ErrPrecondition = errors.New("precondition failed")

var (
	ErrMissingMessageID = fmt.Errorf("%w: message has no identity", ErrPrecondition)
	ErrMissingChannelID = fmt.Errorf("%w: message has no channel identity", ErrPrecondition)
	ErrMissingUserID    = fmt.Errorf("%w: user identity is 0", ErrPrecondition)
	ErrUnavailableInDM  = fmt.Errorf("%w: operation is unavailable in direct messages", ErrPrecondition)
	ErrAlreadyCreated   = fmt.Errorf("%w: message already has an identity", ErrPrecondition)
)

// ErrInvalidEdit is returned for edit options failing validation.
var ErrInvalidEdit = errors.New("invalid edit")
