/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotHost             = errors.New("only the host may do that")
	ErrInsufficientPlayers = errors.New("at least two players are required")
	ErrInvalidState        = errors.New("action not allowed right now")
	ErrInvalidInput        = errors.New("invalid input")
	ErrCodeSpaceExhausted  = errors.New("unable to allocate a unique room code")

	ErrNotParticipant = fmt.Errorf("%w: not playing in this round", ErrInvalidState)
	ErrNotMember      = fmt.Errorf("%w: not a member of this room", ErrInvalidState)
)

// Code maps an error returned by this package to the name sent to clients.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoomNotFound):
		return "RoomNotFound"
	case errors.Is(err, ErrNotHost):
		return "NotHost"
	case errors.Is(err, ErrInsufficientPlayers):
		return "InsufficientPlayers"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	default:
		return "Internal"
	}
}
