package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("account not found")
	ErrConflict         = errors.New("conflicting concurrent update")
	ErrStoreUnavailable = errors.New("account store unavailable")
)

// Specific argument errors; all of them match ErrInvalidArgument via errors.Is.
var (
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrInvalidMode   = fmt.Errorf("%w: unknown quota mode", ErrInvalidArgument)
	ErrSelfReferral  = fmt.Errorf("%w: account cannot refer itself", ErrInvalidArgument)
	ErrInvalidID     = fmt.Errorf("%w: account id must be positive", ErrInvalidArgument)
)
