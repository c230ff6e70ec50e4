package moderation

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/permissions"
)

var (
	adminAction = &command.Arg[string]{
		Name:     "action",
		Index:    command.Single(1),
		Optional: true,
		Parse: func(raw string) (string, error) {
			return strings.ToLower(raw), nil
		},
		Valid: func(v string) bool {
			return v == "add" || v == "remove" || v == "list"
		},
		Message: func(string) string {
			return "The action must be `add`, `remove` or `list`!"
		},
	}

	adminRole = &command.Arg[discord.Snowflake]{
		Name:     "role",
		Index:    command.Single(2),
		Optional: true,
		Message: func(string) string {
			return "That is not a valid role!"
		},
	}

	adminLevel = &command.Arg[int]{
		Name:     "level",
		Index:    command.Single(3),
		Optional: true,
		Valid:    permissions.ValidLevel,
		Message: func(string) string {
			return fmt.Sprintf("The level must be between 1 and %d!", permissions.LevelMax)
		},
	}
)

func (c *Commands) administrators(ctx *command.Context) error {
	action, _ := command.Get(ctx, adminAction)

	switch action {
	case "", "list":
		return c.listAdministrators(ctx)
	case "add":
		role, ok := command.Get(ctx, adminRole)
		if !ok {
			return ctx.ReplyUsage()
		}
		level, ok := command.Get(ctx, adminLevel)
		if !ok {
			return ctx.ReplyUsage()
		}
		return c.addAdministrator(ctx, discord.RoleID(role), level)
	default:
		role, ok := command.Get(ctx, adminRole)
		if !ok {
			return ctx.ReplyUsage()
		}
		return c.removeAdministrator(ctx, discord.RoleID(role))
	}
}

func (c *Commands) listAdministrators(ctx *command.Context) error {
	rs, err := c.Store.ListAdministratorRoles(ctx, ctx.GuildID)
	if err != nil {
		return errors.Wrap(err, "listing administrator roles")
	}
	if len(rs) == 0 {
		return ctx.Reply("There are no administrator roles in this server!")
	}

	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "%v: level %d\n", r.Role().Mention(), r.Level)
	}

	return ctx.Reply("", discord.Embed{
		Title:       "Administrator roles",
		Description: b.String(),
		Color:       bcr.ColourPurple,
	})
}

func (c *Commands) addAdministrator(ctx *command.Context, roleID discord.RoleID, level int) error {
	roles, err := c.Channels.Roles(ctx, ctx.GuildID)
	if err != nil {
		return errors.Wrap(err, "getting roles")
	}

	found := false
	for _, r := range roles {
		if r.ID == roleID {
			found = true
			break
		}
	}
	if !found {
		return ctx.Reply("That role does not exist!")
	}

	if err := c.Store.AddAdministratorRole(ctx, ctx.GuildID, roleID, level); err != nil {
		return errors.Wrap(err, "adding administrator role")
	}
	return ctx.Replyf("Successfully added %v to the list of administrator roles with level %d.", roleID.Mention(), level)
}

func (c *Commands) removeAdministrator(ctx *command.Context, roleID discord.RoleID) error {
	removed, err := c.Store.RemoveAdministratorRole(ctx, ctx.GuildID, roleID)
	if err != nil {
		return errors.Wrap(err, "removing administrator role")
	}
	if !removed {
		return ctx.Reply("That role is not an administrator role!")
	}
	return ctx.Replyf("Successfully removed %v from the list of administrator roles.", roleID.Mention())
}
