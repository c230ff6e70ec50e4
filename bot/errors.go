package bot

import (
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/db"
)

// reportError reports an error returned by a command and tells the user about it.
func (bot *Bot) reportError(ctx *command.Context, err error) {
	id := bot.DB.Report(db.ErrorContext{
		Command: ctx.Command.Name,
		UserID:  ctx.Author().ID,
		GuildID: ctx.GuildID,
	}, err)

	content, embeds := db.ErrorResponse(id, bot.Config.Bot.SupportServer)
	if err := ctx.Reply(content, embeds...); err != nil {
		log.Errorf("Error sending error response in %v: %v", ctx.ChannelID, err)
	}
}
