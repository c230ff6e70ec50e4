// Package info has the help, ping, someone and slap commands.
package info

import (
	"context"
	"math/rand"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/command"
)

// Members lists a guild's members.
type Members interface {
	Members(ctx context.Context, guildID discord.GuildID) ([]discord.Member, error)
}

// Pinger returns the gateway heartbeat latency for a guild's shard.
type Pinger interface {
	Latency(guildID discord.GuildID) time.Duration
}

type Commands struct {
	// Start is when the bot was started, for the uptime shown by ping.
	Start time.Time
	// SupportServer is an optional invite shown in the help listing.
	SupportServer string

	Members Members
	// Pinger is optional.
	Pinger Pinger

	intn func(n int) int
}

var _ command.Namespace = (*Commands)(nil)

func New(start time.Time, members Members, pinger Pinger) *Commands {
	return &Commands{
		Start:   start,
		Members: members,
		Pinger:  pinger,
		intn:    rand.Intn,
	}
}

func (*Commands) Name() string { return "info" }

var helpCommand = &command.Arg[string]{Name: "command", Index: command.Single(1), Optional: true}

func (c *Commands) Commands() []*command.Command {
	return []*command.Command{
		{
			Name:        "help",
			Aliases:     []string{"commands"},
			Description: "Shows every command, or information about a single command.",
			Category:    command.CategoryInfo,
			Arguments:   []command.Argument{helpCommand},
			Executor:    command.ExecutorFunc(c.help),
		},
		{
			Name:        "ping",
			Description: "Shows the bot's latency and resource usage.",
			Category:    command.CategoryInfo,
			Executor:    command.ExecutorFunc(c.ping),
		},
		{
			Name:        "someone",
			Description: "Pings a random person.",
			Category:    command.CategoryOther,
			Executor:    command.ExecutorFunc(c.someone),
		},
		{
			Name:        "slap",
			Description: "Slaps the person.",
			Category:    command.CategoryOther,
			MinArgs:     1,
			Arguments:   []command.Argument{slapTarget},
			Executor:    command.ExecutorFunc(c.slap),
		},
	}
}
