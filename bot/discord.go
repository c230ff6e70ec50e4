package bot

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/commands/info"
	"github.com/xf8b/xf8bot/commands/moderation"
)

var (
	_ info.Members        = (*Bot)(nil)
	_ info.Pinger         = (*Bot)(nil)
	_ moderation.Channels = (*Bot)(nil)
)

// Members returns the guild's members, from the state cache if it has any.
func (bot *Bot) Members(ctx context.Context, guildID discord.GuildID) ([]discord.Member, error) {
	s, _ := bot.Router.StateFromGuildID(guildID)

	if ms, err := s.Cabinet.Members(guildID); err == nil && len(ms) > 0 {
		return ms, nil
	}

	ms, err := s.WithContext(ctx).Client.Members(guildID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "fetching members")
	}
	return ms, nil
}

// Latency returns the heartbeat latency of the guild's shard.
func (bot *Bot) Latency(guildID discord.GuildID) time.Duration {
	s, _ := bot.Router.StateFromGuildID(guildID)
	return s.Gateway().Latency()
}

// Messages returns the channel's latest messages, newest first.
func (bot *Bot) Messages(ctx context.Context, channelID discord.ChannelID, limit uint) ([]discord.Message, error) {
	s, _ := bot.Router.StateFromGuildID(0)
	return s.WithContext(ctx).Client.Messages(channelID, limit)
}

// DeleteMessages deletes messages, in bulk if there is more than one.
func (bot *Bot) DeleteMessages(ctx context.Context, channelID discord.ChannelID, ids []discord.MessageID, reason string) error {
	s, _ := bot.Router.StateFromGuildID(0)
	return s.WithContext(ctx).Client.DeleteMessages(channelID, ids, api.AuditLogReason(reason))
}

// Roles returns the guild's roles.
func (bot *Bot) Roles(ctx context.Context, guildID discord.GuildID) ([]discord.Role, error) {
	s, _ := bot.Router.StateFromGuildID(guildID)
	return s.WithContext(ctx).Roles(guildID)
}
