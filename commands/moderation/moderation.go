// Package moderation has the commands for managing a guild and its bot configuration.
package moderation

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/spf13/pflag"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/db"
)

// Channels reads and deletes channel messages.
type Channels interface {
	// Messages returns up to limit of the channel's latest messages, newest first.
	Messages(ctx context.Context, channelID discord.ChannelID, limit uint) ([]discord.Message, error)
	DeleteMessages(ctx context.Context, channelID discord.ChannelID, ids []discord.MessageID, reason string) error
	// Roles returns the guild's roles.
	Roles(ctx context.Context, guildID discord.GuildID) ([]discord.Role, error)
}

// Store is the guild configuration store.
type Store interface {
	Prefix(ctx context.Context, guildID discord.GuildID) (string, error)
	SetPrefix(ctx context.Context, guildID discord.GuildID, prefix string) error
	ResetPrefix(ctx context.Context, guildID discord.GuildID) error

	ListAdministratorRoles(ctx context.Context, guildID discord.GuildID) ([]db.AdministratorRole, error)
	AddAdministratorRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID, level int) error
	RemoveAdministratorRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) (bool, error)
}

var _ Store = (*db.DB)(nil)

type Commands struct {
	Channels Channels
	Store    Store
	// DefaultPrefix is shown for guilds without a custom prefix.
	DefaultPrefix string
}

var _ command.Namespace = (*Commands)(nil)

func New(channels Channels, store Store, defaultPrefix string) *Commands {
	if defaultPrefix == "" {
		defaultPrefix = command.DefaultPrefix
	}
	return &Commands{Channels: channels, Store: store, DefaultPrefix: defaultPrefix}
}

func (*Commands) Name() string { return "moderation" }

func (c *Commands) Commands() []*command.Command {
	return []*command.Command{
		{
			Name:               "clear",
			Aliases:            []string{"purge"},
			Description:        "Clears the specified amount of messages. The amount of messages to be cleared cannot exceed 100, or be below 1.",
			Category:           command.CategoryModeration,
			MinArgs:            1,
			Arguments:          []command.Argument{clearAmount},
			AdministratorLevel: 1,
			Executor:           command.ExecutorFunc(c.clear),
		},
		{
			Name:        "prefix",
			Aliases:     []string{"setprefix"},
			Description: "Shows or sets the prefix for this server. Use `--reset` to go back to the default prefix.",
			Category:    command.CategoryModeration,
			Arguments:   []command.Argument{newPrefix},
			Flags: func(fs *pflag.FlagSet) *pflag.FlagSet {
				fs.BoolP("reset", "r", false, "Reset the prefix")
				return fs
			},
			AdministratorLevel: 4,
			Executor:           command.ExecutorFunc(c.prefix),
		},
		{
			Name:               "administrators",
			Aliases:            []string{"admins"},
			Description:        "Lists, adds or removes administrator roles. Levels go from 1 to 4.",
			Category:           command.CategoryModeration,
			Arguments:          []command.Argument{adminAction, adminRole, adminLevel},
			AdministratorLevel: 4,
			Executor:           command.ExecutorFunc(c.administrators),
		},
	}
}
