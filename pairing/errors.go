/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pairing

import (
	"errors"
	"fmt"
)

type Reason int

const (
	TooFewParticipants Reason = iota + 1
	DuplicateName
	EmptyName
	NameTooLong
	InvalidAssignment
)

var (
	ErrTooFewParticipants = errors.New("at least 2 participants are required")
	ErrDuplicateName      = errors.New("duplicate participant name")
	ErrEmptyName          = errors.New("participant name must not be empty")
	ErrNameTooLong        = errors.New("participant name is too long")
	ErrInvalidAssignment  = errors.New("pairs are not a valid assignment")
)

func (r Reason) String() string {
	switch r {
	case TooFewParticipants:
		return "too_few_participants"
	case DuplicateName:
		return "duplicate_name"
	case EmptyName:
		return "empty_name"
	case NameTooLong:
		return "name_too_long"
	case InvalidAssignment:
		return "invalid_assignment"
	default:
		return "invalid"
	}
}

func (r Reason) sentinel() error {
	switch r {
	case TooFewParticipants:
		return ErrTooFewParticipants
	case DuplicateName:
		return ErrDuplicateName
	case EmptyName:
		return ErrEmptyName
	case NameTooLong:
		return ErrNameTooLong
	case InvalidAssignment:
		return ErrInvalidAssignment
	default:
		return nil
	}
}

// ValidationError reports bad input. It never coincides with a state change.
type ValidationError struct {
	Reason Reason
	Name   string
}

func (e *ValidationError) Error() string {
	msg := "invalid input"
	if s := e.Reason.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %q", msg, e.Name)
	}
	return msg
}

// Is lets errors.Is match a ValidationError against the package sentinels.
func (e *ValidationError) Is(target error) bool {
	s := e.Reason.sentinel()
	return s != nil && s == target
}
