package command

import (
	"context"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/spf13/pflag"
)

// Replier sends a response to the channel a command was invoked in.
type Replier interface {
	Reply(ctx context.Context, content string, embeds ...discord.Embed) error
}

// ReplierFunc adapts a function to a Replier.
type ReplierFunc func(ctx context.Context, content string, embeds ...discord.Embed) error

// Reply calls f.
func (f ReplierFunc) Reply(ctx context.Context, content string, embeds ...discord.Embed) error {
	return f(ctx, content, embeds...)
}

// Event is an incoming message that might be a command.
type Event struct {
	Message discord.Message
	// Member is the author's member object. Events without a member are ignored.
	Member *discord.Member
	// Replier responds in the message's channel.
	Replier Replier
}

// Context is passed to a command's executor.
type Context struct {
	context.Context

	Command  *Command
	Registry *Registry
	Prefix   string

	// Tokens is the positional tokens, with the command name at index 0 and flags removed.
	Tokens []string
	// Flags is nil if the command has no flags.
	Flags *pflag.FlagSet

	Message   discord.Message
	Member    *discord.Member
	GuildID   discord.GuildID
	ChannelID discord.ChannelID

	// AdministratorLevel is the invoking member's level.
	// It is only looked up for commands that need one.
	AdministratorLevel int

	replier Replier
	args    map[string]any
}

// NewContext returns a Context for tests and non-message invocations, such as slash commands.
func NewContext(ctx context.Context, cmd *Command, ev Event, args map[string]any) *Context {
	return &Context{
		Context:   ctx,
		Command:   cmd,
		Message:   ev.Message,
		Member:    ev.Member,
		GuildID:   ev.Message.GuildID,
		ChannelID: ev.Message.ChannelID,
		replier:   ev.Replier,
		args:      args,
	}
}

// Author returns the user who invoked the command.
func (ctx *Context) Author() discord.User {
	return ctx.Message.Author
}

// Reply sends a response to the invoking channel.
func (ctx *Context) Reply(content string, embeds ...discord.Embed) error {
	if ctx.replier == nil {
		return nil
	}
	return ctx.replier.Reply(ctx, content, embeds...)
}

// Replyf formats and sends a response.
func (ctx *Context) Replyf(tmpl string, v ...any) error {
	return ctx.Reply(fmt.Sprintf(tmpl, v...))
}

// ReplyUsage replies with the command's usage line.
func (ctx *Context) ReplyUsage() error {
	return ctx.Reply(InsufficientArgumentsMessage(ctx.Command.Usage(ctx.Prefix)))
}

// Has returns true if an argument with the given name was supplied.
func (ctx *Context) Has(name string) bool {
	_, ok := ctx.args[name]
	return ok
}

// Get returns the parsed value of arg.
// ok is false if the argument is optional and was not given.
func Get[T any](ctx *Context, arg *Arg[T]) (v T, ok bool) {
	raw, ok := ctx.args[arg.Name]
	if !ok {
		return v, false
	}
	v, ok = raw.(T)
	return v, ok
}
