package info

import (
	"github.com/xf8b/xf8bot/command"
)

var slapTarget = command.String("target", command.AtLeast(1))

var slapItems = []string{
	"large trout",
	"frying pan",
	"rubber chicken",
	"wet noodle",
	"mechanical keyboard",
}

func (c *Commands) slap(ctx *command.Context) error {
	target, _ := command.Get(ctx, slapTarget)

	item := slapItems[c.intn(len(slapItems))]
	return ctx.Replyf("%v slapped %v with a %v!", ctx.Author().Mention(), target, item)
}
