package info

import (
	"fmt"
	"strings"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/command"
)

// NoSuchCommandMessage is sent when help is asked for an unknown command.
const NoSuchCommandMessage = "Could not find a command with that name!"

func (c *Commands) help(ctx *command.Context) error {
	if name, ok := command.Get(ctx, helpCommand); ok {
		cmd, ok := ctx.Registry.Lookup(strings.TrimPrefix(name, ctx.Prefix))
		if !ok {
			return ctx.Reply(NoSuchCommandMessage)
		}
		return ctx.Reply("", commandEmbed(cmd, ctx.Prefix))
	}

	return ctx.Reply("", listEmbed(ctx.Registry, ctx.Prefix, c.SupportServer))
}

func listEmbed(r *command.Registry, prefix, supportServer string) discord.Embed {
	e := discord.Embed{
		Title:       "Help",
		Description: fmt.Sprintf("Use `%vhelp <command>` for more information about a command.", prefix),
		Color:       bcr.ColourPurple,
	}

	byCategory := r.ByCategory()
	for _, cat := range command.Categories {
		var names []string
		for _, cmd := range byCategory[cat] {
			if cmd.BotAdministratorOnly {
				continue
			}
			names = append(names, "`"+cmd.Name+"`")
		}
		if len(names) == 0 {
			continue
		}

		e.Fields = append(e.Fields, discord.EmbedField{
			Name:  cat.String(),
			Value: strings.Join(names, ", "),
		})
	}

	if supportServer != "" {
		e.Fields = append(e.Fields, discord.EmbedField{
			Name:  "Support",
			Value: "Use this link to join the support server: " + supportServer,
		})
	}
	return e
}

func commandEmbed(cmd *command.Command, prefix string) discord.Embed {
	desc := cmd.Description
	if desc == "" {
		desc = "No description."
	}

	e := discord.Embed{
		Title:       "`" + prefix + cmd.Name + "`",
		Description: desc,
		Color:       bcr.ColourPurple,
		Fields: []discord.EmbedField{
			{Name: "Usage", Value: "`" + cmd.Usage(prefix) + "`"},
			{Name: "Category", Value: cmd.Category.String(), Inline: true},
		},
	}

	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = "`" + a + "`"
		}
		e.Fields = append(e.Fields, discord.EmbedField{Name: "Aliases", Value: strings.Join(aliases, ", "), Inline: true})
	}

	switch {
	case cmd.BotAdministratorOnly:
		e.Fields = append(e.Fields, discord.EmbedField{Name: "Required level", Value: "Bot administrator", Inline: true})
	case cmd.AdministratorLevel > 0:
		e.Fields = append(e.Fields, discord.EmbedField{Name: "Required level", Value: fmt.Sprint(cmd.AdministratorLevel), Inline: true})
	}
	return e
}
