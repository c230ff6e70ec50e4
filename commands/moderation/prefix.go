package moderation

import (
	"emperror.dev/errors"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/db"
)

var newPrefix = &command.Arg[string]{
	Name:     "prefix",
	Index:    command.Single(1),
	Optional: true,
	Valid:    db.ValidPrefix,
	Message: func(string) string {
		return "The prefix must be between 1 and 32 characters long, without spaces!"
	},
}

func (c *Commands) prefix(ctx *command.Context) error {
	current, err := c.Store.Prefix(ctx, ctx.GuildID)
	if err != nil {
		return errors.Wrap(err, "getting prefix")
	}
	if current == "" {
		current = c.DefaultPrefix
	}

	if reset, _ := ctx.Flags.GetBool("reset"); reset {
		if err := c.Store.ResetPrefix(ctx, ctx.GuildID); err != nil {
			return errors.Wrap(err, "resetting prefix")
		}
		return ctx.Replyf("Successfully reset prefix to ``%v``.", bcr.EscapeBackticks(c.DefaultPrefix))
	}

	p, ok := command.Get(ctx, newPrefix)
	if !ok {
		return ctx.Replyf("The prefix for this server is ``%v``.", bcr.EscapeBackticks(current))
	}

	if p == current {
		return ctx.Reply("The prefix is already set to that!")
	}

	if err := c.Store.SetPrefix(ctx, ctx.GuildID, p); err != nil {
		return errors.Wrap(err, "setting prefix")
	}
	return ctx.Replyf("Successfully set prefix to ``%v``.", bcr.EscapeBackticks(p))
}
