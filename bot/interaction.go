package bot

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"github.com/go-json-experiment/json"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/common/log"
)

// slashArguments is the option holding a slash command's arguments,
// written the same way as after a text command's name.
const slashArguments = "arguments"

const maxDescriptionLength = 100

// SlashCommands returns slash command definitions for cmds.
// Bot administrator commands are left out.
func SlashCommands(cmds []*command.Command) []api.CreateCommandData {
	data := make([]api.CreateCommandData, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd.BotAdministratorOnly {
			continue
		}

		desc := cmd.Description
		if desc == "" {
			desc = cmd.Name
		}

		d := api.CreateCommandData{
			Name:        strings.ToLower(cmd.Name),
			Description: truncate(desc, maxDescriptionLength),
		}

		if len(cmd.Arguments) > 0 || cmd.Flags != nil {
			d.Options = discord.CommandOptions{
				&discord.StringOption{
					OptionName:  slashArguments,
					Description: truncate(strings.TrimSpace(cmd.Usage("")), maxDescriptionLength),
					Required:    cmd.MinArgs > 0,
				},
			}
		}

		data = append(data, d)
	}
	return data
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// SyncCommands overwrites the bot's slash commands with the registered commands.
// If a commands guild is configured, they are only synced in that guild.
func (bot *Bot) SyncCommands() error {
	s, _ := bot.Router.StateFromGuildID(0)
	appID := discord.AppID(bot.Router.Bot.ID)
	cmds := SlashCommands(bot.Registry.Commands())

	if guildID := bot.Config.Bot.CommandsGuildID; guildID.IsValid() {
		_, err := s.BulkOverwriteGuildCommands(appID, guildID, cmds)
		if err != nil {
			return errors.Wrap(err, "overwriting guild commands")
		}
		log.Infof("Synced %d slash commands in %v", len(cmds), guildID)
		return nil
	}

	_, err := s.BulkOverwriteCommands(appID, cmds)
	if err != nil {
		return errors.Wrap(err, "overwriting commands")
	}
	log.Infof("Synced %d slash commands", len(cmds))
	return nil
}

// slashTokens returns the tokens a text invocation of the command would have.
func slashTokens(name, arguments string) []string {
	return append([]string{name}, strings.Fields(arguments)...)
}

func (bot *Bot) interactionCreate(ev *gateway.InteractionCreateEvent) {
	data, ok := ev.Data.(*discord.CommandInteraction)
	if !ok || !ev.GuildID.IsValid() || ev.Member == nil {
		return
	}

	var arguments string
	for _, o := range data.Options {
		if o.Name != slashArguments {
			continue
		}
		if err := json.Unmarshal([]byte(o.Value), &arguments); err != nil {
			log.Errorf("Error decoding arguments for /%v: %v", data.Name, err)
			return
		}
	}

	s, _ := bot.Router.StateFromGuildID(ev.GuildID)

	// commands can take longer than an interaction's initial response window
	err := s.RespondInteraction(ev.ID, ev.Token, api.InteractionResponse{
		Type: api.DeferredMessageInteractionWithSource,
	})
	if err != nil {
		log.Errorf("Error responding to interaction %v: %v", ev.ID, err)
		return
	}

	r := &interactionReplier{s: s, appID: ev.AppID, token: ev.Token}
	tokens := slashTokens(data.Name, arguments)

	err = bot.Dispatcher.Run(context.Background(), command.Event{
		Message: discord.Message{
			ChannelID: ev.ChannelID,
			GuildID:   ev.GuildID,
			Author:    ev.Member.User,
			Content:   strings.Join(tokens, " "),
		},
		Member:  ev.Member,
		Replier: r,
	}, "/", tokens)
	if err != nil {
		log.Debugf("Slash command /%v by %v was rejected: %v", data.Name, ev.Member.User.ID, err)
	}

	// the deferred response shows a loading state until something is sent
	if !r.replied.Load() {
		if err := r.Reply(context.Background(), "Done!"); err != nil {
			log.Errorf("Error responding to interaction %v: %v", ev.ID, err)
		}
	}
}

// interactionReplier sends replies as follow-up messages to a deferred interaction response.
type interactionReplier struct {
	s       *state.State
	appID   discord.AppID
	token   string
	replied atomic.Bool
}

func (r *interactionReplier) Reply(ctx context.Context, content string, embeds ...discord.Embed) error {
	r.replied.Store(true)

	_, err := r.s.WithContext(ctx).CreateInteractionFollowup(r.appID, r.token, api.InteractionResponseData{
		Content:         option.NewNullableString(content),
		Embeds:          &embeds,
		AllowedMentions: replyMentions,
	})
	return err
}
