package rescue

import "errors"

var (
	ErrInvalidOptions = errors.New("invalid world options")
	ErrInvalidLayout  = errors.New("invalid world layout")
	ErrInvalidAction  = errors.New("invalid action")
	ErrIllegalAction  = errors.New("action not legal for agent role")
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrUnknownVictim  = errors.New("unknown victim")
	ErrEpisodeDone    = errors.New("episode already terminated")
)
