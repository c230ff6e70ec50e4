package command

import (
	"fmt"

	"emperror.dev/errors"
)

const (
	// ErrValidation is wrapped by an InvalidArgumentError when a parsed value fails its predicate.
	ErrValidation = errors.Sentinel("value failed validation")
	// ErrFrozen is returned when registering commands after the registry was frozen.
	ErrFrozen = errors.Sentinel("command registry is frozen")
	// ErrRateLimited is returned by Dispatch when the invoking user is sending commands too quickly.
	ErrRateLimited = errors.Sentinel("user is rate limited")
)

// ParseError is returned when a raw token can't be converted to the argument's type.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %v", e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidArgumentError is returned when an argument fails to parse or validate.
// Message is the text shown to the user.
type InvalidArgumentError struct {
	Argument string
	Raw      string
	Message  string
	Err      error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid value %q for argument %v: %v", e.Raw, e.Argument, e.Err)
}

func (e *InvalidArgumentError) Unwrap() error { return e.Err }

// InsufficientArgumentsError is returned when fewer arguments than required were given.
type InsufficientArgumentsError struct {
	Command string
	Usage   string
	Got     int
	Want    int
}

func (e *InsufficientArgumentsError) Error() string {
	return fmt.Sprintf("command %v needs at least %d argument(s), got %d", e.Command, e.Want, e.Got)
}

// PermissionDeniedError is returned when the invoking member's administrator level is too low,
// or when a bot administrator command is used by someone else.
type PermissionDeniedError struct {
	Command  string
	Required int
	Level    int
	// BotAdministrator is true if the command is restricted to bot administrators.
	BotAdministrator bool
}

func (e *PermissionDeniedError) Error() string {
	if e.BotAdministrator {
		return fmt.Sprintf("command %v is restricted to bot administrators", e.Command)
	}
	return fmt.Sprintf("command %v needs administrator level %d, member has %d", e.Command, e.Required, e.Level)
}

// DuplicateCommandError is returned when a command name or alias is registered twice.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %q is already registered", e.Name)
}

// InvalidCommandError is returned when a command descriptor breaks one of its invariants.
type InvalidCommandError struct {
	Name   string
	Reason string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %q: %v", e.Name, e.Reason)
}
