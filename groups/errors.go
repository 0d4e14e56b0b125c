/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package groups

import (
	"errors"

	"github.com/Seednode/secretsanta/capability"
	"github.com/Seednode/secretsanta/pairing"
	"github.com/Seednode/secretsanta/reveal"
)

var (
	ErrNotFound            = errors.New("invalid group code")
	ErrAlreadyStarted      = errors.New("game already running")
	ErrForbidden           = errors.New("only the group admin can start the game")
	ErrInsufficientMembers = errors.New("need at least 2 members to start")
	ErrContention          = errors.New("group is busy, please try again")
)

// Code maps an error from this package (or the packages it wraps) to a
// short stable identifier, used for API bodies and metric labels.
func Code(err error) string {
	var verr *pairing.ValidationError

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return verr.Reason.String()
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, ErrForbidden), errors.Is(err, capability.ErrInvalidToken):
		return "forbidden"
	case errors.Is(err, ErrInsufficientMembers):
		return "insufficient_members"
	case errors.Is(err, ErrContention):
		return "try_again"
	case errors.Is(err, reveal.ErrNotAssigned):
		return "not_assigned"
	default:
		return "internal"
	}
}
