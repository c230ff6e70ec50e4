package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/dustin/go-humanize"
	"github.com/xf8b/xf8bot/common/log"
)

const presenceInterval = 5 * time.Minute

// presence returns the bot's status text.
func presence(prefix string, guilds, sessions int) string {
	s := fmt.Sprintf("%vhelp | in %v servers", prefix, humanize.Comma(int64(guilds)))
	if sessions > 0 {
		s += fmt.Sprintf(" | playing in %v", humanize.Comma(int64(sessions)))
	}
	return s
}

// updatePresence sets the bot's status every five minutes until ctx is cancelled.
func (bot *Bot) updatePresence(ctx context.Context) {
	t := time.NewTimer(5 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		guilds := 0
		bot.ForEach(func(s *state.State) {
			gs, err := s.Guilds()
			if err == nil {
				guilds += len(gs)
			}
		})

		status := presence(bot.Config.Bot.Prefix, guilds, bot.Sessions.Len())
		bot.ForEach(func(s *state.State) {
			err := s.Gateway().Send(ctx, &gateway.UpdatePresenceCommand{
				Status: discord.OnlineStatus,
				Activities: []discord.Activity{{
					Name: status,
					Type: discord.GameActivity,
				}},
			})
			if err != nil {
				log.Errorf("Error setting status: %v", err)
			}
		})

		t.Reset(presenceInterval)
	}
}
