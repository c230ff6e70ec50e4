package command

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Category groups commands in the help listing.
type Category int

const (
	CategoryOther Category = iota
	CategoryMusic
	CategoryModeration
	CategoryInfo
)

func (c Category) String() string {
	switch c {
	case CategoryMusic:
		return "Music"
	case CategoryModeration:
		return "Moderation"
	case CategoryInfo:
		return "Info"
	default:
		return "Other"
	}
}

// Categories is every category, in help listing order.
var Categories = []Category{CategoryInfo, CategoryMusic, CategoryModeration, CategoryOther}

// Executor runs a command once its arguments and permissions have been checked.
type Executor interface {
	Execute(ctx *Context) error
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(ctx *Context) error

// Execute calls f(ctx).
func (f ExecutorFunc) Execute(ctx *Context) error { return f(ctx) }

// Command is a command descriptor.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Category    Category

	// MinArgs is the number of argument tokens needed before any argument is parsed.
	MinArgs   int
	Arguments []Argument
	// Flags adds the command's flags to the given set.
	Flags func(fs *pflag.FlagSet) *pflag.FlagSet

	// AdministratorLevel is the guild administrator level needed to run the command, 0 to 4.
	AdministratorLevel int
	// BotAdministratorOnly restricts the command to the bot's administrators.
	BotAdministratorOnly bool

	Executor Executor
}

// Names returns the command's name followed by its aliases, lowercased.
func (c *Command) Names() []string {
	names := make([]string, 0, len(c.Aliases)+1)
	names = append(names, strings.ToLower(c.Name))
	for _, a := range c.Aliases {
		names = append(names, strings.ToLower(a))
	}
	return names
}

// Usage returns the command's usage line, such as ">clear <amount>".
func (c *Command) Usage(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(c.Name)

	if c.Flags != nil {
		b.WriteString(" [flags]")
	}

	for _, a := range c.Arguments {
		b.WriteString(" ")
		b.WriteString(a.usage())
	}
	return b.String()
}

// Validate checks the descriptor's invariants.
func (c *Command) Validate() error {
	if c.Name == "" || strings.ContainsAny(c.Name, " \t\n") {
		return &InvalidCommandError{Name: c.Name, Reason: "name must be a single non-empty word"}
	}
	for _, a := range c.Aliases {
		if a == "" || strings.ContainsAny(a, " \t\n") {
			return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("alias %q must be a single non-empty word", a)}
		}
	}

	if c.Executor == nil {
		return &InvalidCommandError{Name: c.Name, Reason: "no executor"}
	}

	if c.AdministratorLevel < 0 || c.AdministratorLevel > 4 {
		return &InvalidCommandError{Name: c.Name, Reason: "administrator level must be between 0 and 4"}
	}

	names := map[string]struct{}{}
	required := 0
	seenOptional := false
	for i, a := range c.Arguments {
		pos := a.Position()
		if pos.Min < 1 {
			return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("argument %v starts before position 1", a.ArgumentName())}
		}
		if !pos.Variadic() && pos.Max < pos.Min {
			return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("argument %v has an empty range %v", a.ArgumentName(), pos)}
		}

		if _, ok := names[a.ArgumentName()]; ok {
			return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("argument %v is declared twice", a.ArgumentName())}
		}
		names[a.ArgumentName()] = struct{}{}

		for _, other := range c.Arguments[:i] {
			if pos.Overlaps(other.Position()) {
				return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("argument %v overlaps %v", a.ArgumentName(), other.ArgumentName())}
			}
		}

		if a.IsRequired() {
			if seenOptional {
				return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("required argument %v follows an optional argument", a.ArgumentName())}
			}
			required++
		} else {
			seenOptional = true
		}
	}

	if c.MinArgs < 0 || c.MinArgs > required {
		return &InvalidCommandError{Name: c.Name, Reason: fmt.Sprintf("minimum of %d arguments but only %d are required", c.MinArgs, required)}
	}
	return nil
}

// parseArguments parses every declared argument from the positional tokens.
// tokens[0] is the command name.
func (c *Command) parseArguments(tokens []string) (map[string]any, error) {
	values := make(map[string]any, len(c.Arguments))

	for _, a := range c.Arguments {
		pos := a.Position()
		if pos.Min >= len(tokens) {
			if a.IsRequired() {
				return nil, &InsufficientArgumentsError{
					Command: c.Name,
					Got:     len(tokens) - 1,
					Want:    pos.Min,
				}
			}
			continue
		}

		end := len(tokens)
		if !pos.Variadic() && pos.Max+1 < end {
			end = pos.Max + 1
		}

		v, err := a.value(strings.Join(tokens[pos.Min:end], " "))
		if err != nil {
			return nil, err
		}
		values[a.ArgumentName()] = v
	}
	return values, nil
}
