package command

import (
	"fmt"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
)

// DefaultInvalidValueMessage is shown when an argument has no custom error message.
const DefaultInvalidValueMessage = "Invalid value!"

// Range is an inclusive range of token positions.
// Position 0 is the command name, so the first argument is at position 1.
// A negative Max means the range extends to the last token.
type Range struct {
	Min, Max int
}

// Single returns a range covering exactly one position.
func Single(i int) Range { return Range{Min: i, Max: i} }

// Between returns a range covering min through max, inclusive.
func Between(min, max int) Range { return Range{Min: min, Max: max} }

// AtLeast returns a range covering i and every position after it.
func AtLeast(i int) Range { return Range{Min: i, Max: -1} }

// Variadic returns true if the range has no upper bound.
func (r Range) Variadic() bool { return r.Max < 0 }

// Contains returns true if i is inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Min && (r.Variadic() || i <= r.Max)
}

// Overlaps returns true if r and o share at least one position.
func (r Range) Overlaps(o Range) bool {
	if !r.Variadic() && o.Min > r.Max {
		return false
	}
	if !o.Variadic() && r.Min > o.Max {
		return false
	}
	return true
}

func (r Range) String() string {
	switch {
	case r.Variadic():
		return fmt.Sprintf("[%d..)", r.Min)
	case r.Min == r.Max:
		return fmt.Sprintf("[%d]", r.Min)
	default:
		return fmt.Sprintf("[%d..%d]", r.Min, r.Max)
	}
}

// Argument is a positional argument a command expects.
// The only implementation is *Arg[T].
type Argument interface {
	ArgumentName() string
	Position() Range
	IsRequired() bool

	value(raw string) (any, error)
	usage() string
}

// Arg is a typed positional argument.
// Parse, Valid and Message are optional; the zero values fall back to the
// default parser for T, an always-true predicate and DefaultInvalidValueMessage.
type Arg[T any] struct {
	Name     string
	Index    Range
	Optional bool

	// Parse converts the raw token(s) to a value.
	Parse func(raw string) (T, error)
	// Valid checks domain constraints on a parsed value.
	Valid func(v T) bool
	// Message returns the message shown to the user when raw is rejected.
	Message func(raw string) string
}

var _ Argument = (*Arg[string])(nil)

func (a *Arg[T]) ArgumentName() string { return a.Name }
func (a *Arg[T]) Position() Range      { return a.Index }
func (a *Arg[T]) IsRequired() bool     { return !a.Optional }

func (a *Arg[T]) message(raw string) string {
	if a.Message == nil {
		return DefaultInvalidValueMessage
	}
	return a.Message(raw)
}

func (a *Arg[T]) value(raw string) (any, error) {
	parse := a.Parse
	if parse == nil {
		parse = DefaultParse[T]
	}

	v, err := parse(raw)
	if err != nil {
		return nil, &InvalidArgumentError{
			Argument: a.Name,
			Raw:      raw,
			Message:  a.message(raw),
			Err:      &ParseError{Raw: raw, Err: err},
		}
	}

	if a.Valid != nil && !a.Valid(v) {
		return nil, &InvalidArgumentError{
			Argument: a.Name,
			Raw:      raw,
			Message:  a.message(raw),
			Err:      ErrValidation,
		}
	}
	return v, nil
}

// usage returns the argument as shown in a usage line: <name>, [name] or <name...>.
func (a *Arg[T]) usage() string {
	name := a.Name
	if a.Index.Variadic() {
		name += "..."
	}
	if a.Optional {
		return "[" + name + "]"
	}
	return "<" + name + ">"
}

// DefaultParse is the parser used when an Arg has no Parse function.
// It supports strings, integers, booleans and snowflakes.
func DefaultParse[T any](raw string) (T, error) {
	var v T

	switch p := any(&v).(type) {
	case *string:
		*p = raw
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return v, err
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return v, err
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, err
		}
		*p = b
	case *discord.Snowflake:
		sf, err := ParseMention(raw)
		if err != nil {
			return v, err
		}
		*p = sf
	default:
		return v, errors.Errorf("no default parser for %T", v)
	}
	return v, nil
}

// ParseMention parses a raw snowflake or a user, role or channel mention.
func ParseMention(raw string) (discord.Snowflake, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = strings.TrimLeft(s[1:len(s)-1], "@!&#")
	}
	return discord.ParseSnowflake(s)
}

// String returns an unconstrained string argument.
func String(name string, index Range) *Arg[string] {
	return &Arg[string]{Name: name, Index: index}
}

// Integer returns an unconstrained integer argument.
func Integer(name string, index Range) *Arg[int] {
	return &Arg[int]{Name: name, Index: index}
}

// Snowflake returns an argument accepting an ID or a mention.
func Snowflake(name string, index Range) *Arg[discord.Snowflake] {
	return &Arg[discord.Snowflake]{Name: name, Index: index}
}
