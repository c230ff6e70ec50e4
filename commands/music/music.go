// Package music has the commands controlling a guild's music session.
package music

import (
	"context"
	"io"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/command"
	core "github.com/xf8b/xf8bot/music"
)

// Replies for voice preconditions.
const (
	UserNotInVoiceMessage = "You are not in a VC!"
	NotInVoiceMessage     = "I am not in a VC!"
	NothingPlayingMessage = "Nothing is playing right now!"
)

// Voice connects the bot to voice channels.
type Voice interface {
	// UserChannel returns the voice channel the user is in.
	UserChannel(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (discord.ChannelID, bool)
	// Channel returns the voice channel the bot is in.
	Channel(guildID discord.GuildID) (discord.ChannelID, bool)
	// Join connects to a voice channel, or returns the existing connection if already connected to it.
	Join(ctx context.Context, guildID discord.GuildID, channelID discord.ChannelID) (io.Writer, error)
	Leave(ctx context.Context, guildID discord.GuildID) error
}

type Commands struct {
	Sessions *core.SessionCache
	Voice    Voice
}

var _ command.Namespace = (*Commands)(nil)

func New(sessions *core.SessionCache, voice Voice) *Commands {
	return &Commands{Sessions: sessions, Voice: voice}
}

func (*Commands) Name() string { return "music" }

func (c *Commands) Commands() []*command.Command {
	return []*command.Command{
		{
			Name:        "join",
			Aliases:     []string{"connect"},
			Description: "Joins the VC you are in.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.join),
		},
		{
			Name:        "leave",
			Aliases:     []string{"disconnect"},
			Description: "Leaves the VC and clears the queue.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.leave),
		},
		{
			Name:        "play",
			Aliases:     []string{"p"},
			Description: "Plays a song from a link, or the first search result on YouTube.",
			Category:    command.CategoryMusic,
			MinArgs:     1,
			Arguments:   []command.Argument{query},
			Executor:    command.ExecutorFunc(c.play),
		},
		{
			Name:        "pause",
			Description: "Pauses the music.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.pause),
		},
		{
			Name:        "resume",
			Aliases:     []string{"unpause"},
			Description: "Resumes the music.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.resume),
		},
		{
			Name:        "volume",
			Aliases:     []string{"vol"},
			Description: "Changes the volume of the music in the current VC.",
			Category:    command.CategoryMusic,
			MinArgs:     1,
			Arguments:   []command.Argument{volume},
			Executor:    command.ExecutorFunc(c.volume),
		},
		{
			Name:        "skip",
			Description: "Skips the current song, or the given amount of songs.",
			Category:    command.CategoryMusic,
			Arguments:   []command.Argument{skipAmount},
			Executor:    command.ExecutorFunc(c.skip),
		},
		{
			Name:        "stop",
			Description: "Stops the music and clears the queue.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.stop),
		},
		{
			Name:        "queue",
			Aliases:     []string{"q"},
			Description: "Shows the queue.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.queue),
		},
		{
			Name:        "nowplaying",
			Aliases:     []string{"np"},
			Description: "Shows the song that is currently playing.",
			Category:    command.CategoryMusic,
			Executor:    command.ExecutorFunc(c.nowPlaying),
		},
	}
}

// connect joins channelID and attaches the guild's session to the connection.
func (c *Commands) connect(ctx *command.Context, channelID discord.ChannelID) (*core.Handler, error) {
	w, err := c.Voice.Join(ctx, ctx.GuildID, channelID)
	if err != nil {
		return nil, err
	}

	h, err := c.Sessions.GetOrCreate(ctx.GuildID, ctx.ChannelID)
	if err != nil {
		return nil, err
	}
	h.Attach(w)
	return h, nil
}

// session returns the guild's session if the bot is in a VC.
// Otherwise, the user is told why not, and the returned handler is nil.
func (c *Commands) session(ctx *command.Context) (*core.Handler, error) {
	if ch, ok := c.Voice.Channel(ctx.GuildID); ok {
		return c.connect(ctx, ch)
	}

	if _, ok := c.Voice.UserChannel(ctx, ctx.GuildID, ctx.Author().ID); ok {
		return nil, ctx.Reply(NotInVoiceMessage)
	}
	return nil, ctx.Reply(UserNotInVoiceMessage)
}
