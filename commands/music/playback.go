package music

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/xf8b/xf8bot/command"
	core "github.com/xf8b/xf8bot/music"
)

func (c *Commands) join(ctx *command.Context) error {
	ch, ok := c.Voice.UserChannel(ctx, ctx.GuildID, ctx.Author().ID)
	if !ok {
		return ctx.Reply(UserNotInVoiceMessage)
	}

	if current, ok := c.Voice.Channel(ctx.GuildID); ok && current == ch {
		return ctx.Reply("I am already in your VC!")
	}

	if _, err := c.connect(ctx, ch); err != nil {
		return errors.Wrap(err, "joining voice channel")
	}
	return ctx.Replyf("Successfully connected to <#%v>!", ch)
}

func (c *Commands) leave(ctx *command.Context) error {
	ch, ok := c.Voice.Channel(ctx.GuildID)
	if !ok {
		if _, ok := c.Voice.UserChannel(ctx, ctx.GuildID, ctx.Author().ID); !ok {
			return ctx.Reply(UserNotInVoiceMessage)
		}
		return ctx.Reply(NotInVoiceMessage)
	}

	if err := c.Voice.Leave(ctx, ctx.GuildID); err != nil {
		return errors.Wrap(err, "leaving voice channel")
	}
	c.Sessions.Remove(ctx.GuildID)

	return ctx.Replyf("Successfully disconnected from <#%v>!", ch)
}

func (c *Commands) play(ctx *command.Context) error {
	q, _ := command.Get(ctx, query)

	ch, ok := c.Voice.Channel(ctx.GuildID)
	if !ok {
		ch, ok = c.Voice.UserChannel(ctx, ctx.GuildID, ctx.Author().ID)
		if !ok {
			return ctx.Reply(UserNotInVoiceMessage)
		}
	}

	h, err := c.connect(ctx, ch)
	if err != nil {
		return errors.Wrap(err, "joining voice channel")
	}

	// the result is announced in this channel once loaded
	return h.Play(q)
}

func (c *Commands) pause(ctx *command.Context) error {
	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	switch h.State() {
	case core.StateIdle:
		return ctx.Reply(NothingPlayingMessage)
	case core.StatePaused:
		return ctx.Reply("The music is already paused!")
	}

	h.SetPaused(true)
	return ctx.Reply("Paused the music.")
}

func (c *Commands) resume(ctx *command.Context) error {
	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	switch h.State() {
	case core.StateIdle:
		return ctx.Reply(NothingPlayingMessage)
	case core.StatePlaying:
		return ctx.Reply("The music is not paused!")
	}

	h.SetPaused(false)
	return ctx.Reply("Resumed the music.")
}

func (c *Commands) volume(ctx *command.Context) error {
	v, _ := command.Get(ctx, volume)

	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	if err := h.SetVolume(v); err != nil {
		return err
	}
	return ctx.Replyf("Successfully set volume to %d!", v)
}

func (c *Commands) skip(ctx *command.Context) error {
	n, ok := command.Get(ctx, skipAmount)
	if !ok {
		n = 1
	}

	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	if h.State() == core.StateIdle {
		return ctx.Reply(NothingPlayingMessage)
	}

	skipped, err := h.Skip(n)
	if err != nil {
		return err
	}

	if skipped == 1 {
		return ctx.Reply("Skipped the current song.")
	}
	return ctx.Reply(fmt.Sprintf("Skipped %d songs.", skipped))
}

func (c *Commands) stop(ctx *command.Context) error {
	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	h.Stop()
	return ctx.Reply("Stopped the music and cleared the queue.")
}
