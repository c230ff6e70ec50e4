package info

import (
	"emperror.dev/errors"
	"github.com/xf8b/xf8bot/command"
)

func (c *Commands) someone(ctx *command.Context) error {
	members, err := c.Members.Members(ctx, ctx.GuildID)
	if err != nil {
		return errors.Wrap(err, "getting members")
	}
	if len(members) == 0 {
		return ctx.Reply("There is nobody to ping!")
	}

	m := members[c.intn(len(members))]
	return ctx.Reply(m.User.Mention())
}
