package bot

import (
	"context"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/common/log"
)

func (bot *Bot) messageCreate(ev *gateway.MessageCreateEvent) {
	if !ev.GuildID.IsValid() || ev.Member == nil {
		return
	}

	// the member object in message events has no user
	m := *ev.Member
	m.User = ev.Author

	err := bot.Dispatcher.Dispatch(context.Background(), command.Event{
		Message: ev.Message,
		Member:  &m,
		Replier: bot.channelReplier(ev.GuildID, ev.ChannelID),
	})
	if err != nil {
		log.Debugf("Command in %v by %v was rejected: %v", ev.ChannelID, ev.Author.ID, err)
	}
}

var replyMentions = &api.AllowedMentions{Parse: []api.AllowedMentionType{api.AllowUserMention}}

// channelReplier sends replies as normal messages in the given channel.
// Replies can ping users, but never roles or everyone.
func (bot *Bot) channelReplier(guildID discord.GuildID, channelID discord.ChannelID) command.Replier {
	return command.ReplierFunc(func(ctx context.Context, content string, embeds ...discord.Embed) error {
		s, _ := bot.Router.StateFromGuildID(guildID)

		_, err := s.WithContext(ctx).SendMessageComplex(channelID, api.SendMessageData{
			Content:         content,
			Embeds:          embeds,
			AllowedMentions: replyMentions,
		})
		return err
	})
}
