package moderation

import (
	"net/http"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/httputil"
	"github.com/xf8b/xf8bot/command"
)

// Messages older than this can't be bulk deleted.
const bulkDeleteMaxAge = 14 * 24 * time.Hour

var clearAmount = &command.Arg[int]{
	Name:  "amount",
	Index: command.Single(1),
	Valid: func(v int) bool { return v >= 1 && v <= 100 },
	Message: func(raw string) string {
		v, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			return "The amount of messages to be cleared is not a number!"
		case v > 100:
			return "Sorry, but the limit for message clearing is 100 messages."
		default:
			return "Sorry, but the minimum for message clearing is 1 message."
		}
	},
}

func (c *Commands) clear(ctx *command.Context) error {
	n, _ := command.Get(ctx, clearAmount)

	msgs, err := c.Channels.Messages(ctx, ctx.ChannelID, uint(n))
	if err != nil {
		return errors.Wrap(err, "getting messages")
	}

	ids := make([]discord.MessageID, 0, len(msgs))
	for _, m := range msgs {
		if time.Since(m.ID.Time()) < bulkDeleteMaxAge {
			ids = append(ids, m.ID)
		}
	}

	if len(ids) > 0 {
		err = c.Channels.DeleteMessages(ctx, ctx.ChannelID, ids, "Cleared by "+ctx.Author().Tag())
		if err != nil {
			var herr *httputil.HTTPError
			if errors.As(err, &herr) && herr.Status == http.StatusForbidden {
				return ctx.Reply("Cannot clear messages due to insufficient permissions!")
			}
			return errors.Wrap(err, "deleting messages")
		}
	}

	return ctx.Replyf("Successfully purged %d message(s).", len(ids))
}
