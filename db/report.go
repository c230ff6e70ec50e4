package db

import (
	"fmt"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/common/log"
)

// ErrorContext is the context for an error
type ErrorContext struct {
	Event   string
	Command string

	UserID  discord.UserID
	GuildID discord.GuildID
}

func (ctx ErrorContext) name() string {
	if ctx.Event != "" {
		return ctx.Event
	}
	if ctx.Command != "" {
		return ctx.Command
	}
	return "unknown"
}

// Report reports an error and returns its ID.
// If sentry is disabled, the ID is a random UUID that only shows up in the logs.
func (db *DB) Report(ctx ErrorContext, err error) *sentry.EventID {
	if db.Hub == nil {
		id := sentry.EventID(uuid.New().String())
		log.Errorf("Error in %v (id %v): %v", ctx.name(), id, err)
		return &id
	}
	log.Errorf("Error in %v: %v", ctx.name(), err)

	hub := db.Hub.Clone()

	data := map[string]interface{}{}

	if ctx.Event != "" {
		data["event"] = ctx.Event
	}

	if ctx.Command != "" {
		data["command"] = ctx.Command
	}

	if ctx.GuildID.IsValid() {
		data["guild"] = ctx.GuildID
	}

	hub.ConfigureScope(func(scope *sentry.Scope) {
		if ctx.UserID.IsValid() {
			scope.SetUser(sentry.User{ID: ctx.UserID.String()})
			data["user"] = ctx.UserID
		}
	})

	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Data:      data,
		Level:     sentry.LevelError,
		Timestamp: time.Now().UTC(),
	}, nil)

	return hub.CaptureException(err)
}

// ErrorResponse returns the message sent to a user whose command failed.
// supportServer is linked in the embed if it isn't empty.
func ErrorResponse(id *sentry.EventID, supportServer string) (string, []discord.Embed) {
	if id == nil {
		return "An internal error occurred.", nil
	}

	desc := "An internal error has occurred. If this issue persists, please contact the bot developer with the error code above."
	if supportServer != "" {
		desc = fmt.Sprintf("An internal error has occurred. If this issue persists, please contact the bot developer in the [support server](%v) with the error code above.", supportServer)
	}

	return fmt.Sprintf("Error code: ``%v``", bcr.EscapeBackticks(string(*id))), []discord.Embed{{
		Title:       "Internal error occurred",
		Description: desc,
		Color:       bcr.ColourRed,
		Footer: &discord.EmbedFooter{
			Text: string(*id),
		},
		Timestamp: discord.NowTimestamp(),
	}}
}
