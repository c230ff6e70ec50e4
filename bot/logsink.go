package bot

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/webhook"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/starshine-sys/bcr"
	"go.uber.org/zap/zapcore"
)

// Webhook embed limits.
const (
	maxQueuedEmbeds    = 5
	maxQueuedLength    = 6000
	maxDescription     = 4000
	logSinkFlushPeriod = 5 * time.Second
)

// webhookExecutor executes a webhook.
type webhookExecutor interface {
	Execute(data webhook.ExecuteData) error
}

// LogSink is a zap core that sends log entries to a Discord webhook.
// Entries are batched, up to five embeds per message, and sent at least every five seconds.
type LogSink struct {
	zapcore.LevelEnabler
	*logQueue

	fields []zapcore.Field
}

type logQueue struct {
	client webhookExecutor
	// flushPeriod is the longest an entry waits before being sent.
	flushPeriod time.Duration

	mu     sync.Mutex
	avatar string
	queue  []discord.Embed
	timer  *time.Timer
}

var _ zapcore.Core = (*LogSink)(nil)

// NewLogSink returns a sink for entries at or above level, sent to the webhook with the given URL.
func NewLogSink(webhookURL string, level zapcore.LevelEnabler) (*LogSink, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	return newLogSink(webhook.New(id, token), level), nil
}

// parseWebhookURL returns the ID and token in a URL like
// https://discord.com/api/webhooks/{id}/{token}.
func parseWebhookURL(s string) (discord.WebhookID, string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return 0, "", errors.Wrap(err, "parsing webhook URL")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	i := -1
	for j, p := range parts {
		if p == "webhooks" {
			i = j
			break
		}
	}
	if i == -1 || len(parts) != i+3 || parts[i+2] == "" {
		return 0, "", errors.Errorf("%q is not a webhook URL", s)
	}

	id, err := discord.ParseSnowflake(parts[i+1])
	if err != nil {
		return 0, "", errors.Wrap(err, "parsing webhook ID")
	}
	return discord.WebhookID(id), parts[i+2], nil
}

func newLogSink(client webhookExecutor, level zapcore.LevelEnabler) *LogSink {
	return &LogSink{
		LevelEnabler: level,
		logQueue: &logQueue{
			client:      client,
			flushPeriod: logSinkFlushPeriod,
		},
	}
}

// SetAvatar sets the avatar messages are sent with.
func (s *LogSink) SetAvatar(avatarURL string) {
	s.mu.Lock()
	s.avatar = avatarURL
	s.mu.Unlock()
}

// Restarted sends a message marking the start of a new run.
func (s *LogSink) Restarted() {
	s.add(discord.Embed{
		Title:       ":warning: Bot was restarted! :warning:",
		Description: "This is a new run!",
		Color:       bcr.ColourOrange,
		Timestamp:   discord.NowTimestamp(),
	})
}

func (s *LogSink) With(fields []zapcore.Field) zapcore.Core {
	return &LogSink{
		LevelEnabler: s.LevelEnabler,
		logQueue:     s.logQueue,
		fields:       append(s.fields[:len(s.fields):len(s.fields)], fields...),
	}
}

func (s *LogSink) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(ent.Level) {
		return ce.AddCore(ent, s)
	}
	return ce
}

func (s *LogSink) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(s.fields)+len(fields))
	all = append(all, s.fields...)
	all = append(all, fields...)

	s.add(entryEmbed(ent, all))
	return nil
}

// Sync sends all queued embeds.
func (s *LogSink) Sync() error {
	s.mu.Lock()
	embeds := s.take()
	s.mu.Unlock()

	return s.send(embeds)
}

// entryEmbed formats a log entry.
func entryEmbed(ent zapcore.Entry, fields []zapcore.Field) discord.Embed {
	var b strings.Builder
	b.WriteString(ent.Message)

	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}

		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%v: %v", k, enc.Fields[k])
		}
	}

	desc := "```" + bcr.EscapeBackticks(b.String())
	if len(desc) > maxDescription-3 {
		desc = desc[:maxDescription-6] + "..."
	}
	desc += "```"

	e := discord.Embed{
		Title:       ent.Level.CapitalString(),
		Description: desc,
		Color:       bcr.ColourRed,
		Timestamp:   discord.NewTimestamp(ent.Time),
	}
	if ent.Level < zapcore.ErrorLevel {
		e.Color = bcr.ColourOrange
	}
	if ent.Caller.Defined {
		e.Footer = &discord.EmbedFooter{Text: ent.Caller.TrimmedPath()}
	}
	return e
}

func totalLength(embeds []discord.Embed) (length int) {
	for _, e := range embeds {
		length += e.Length()
	}
	return length
}

// add queues an embed, sending the queue first if the embed wouldn't fit in the same message.
func (q *logQueue) add(embed discord.Embed) {
	q.mu.Lock()

	var full []discord.Embed
	if totalLength(q.queue)+embed.Length() >= maxQueuedLength || len(q.queue) >= maxQueuedEmbeds {
		full = q.take()
	}

	q.queue = append(q.queue, embed)

	if q.timer == nil {
		q.timer = time.AfterFunc(q.flushPeriod, func() {
			q.mu.Lock()
			q.timer = nil
			embeds := q.take()
			q.mu.Unlock()

			_ = q.send(embeds)
		})
	}
	q.mu.Unlock()

	_ = q.send(full)
}

// take empties the queue. q.mu must be held.
func (q *logQueue) take() []discord.Embed {
	embeds := q.queue
	q.queue = nil

	if q.timer != nil && len(embeds) > 0 && q.timer.Stop() {
		q.timer = nil
	}
	return embeds
}

func (q *logQueue) send(embeds []discord.Embed) error {
	if len(embeds) == 0 {
		return nil
	}

	q.mu.Lock()
	avatar := q.avatar
	q.mu.Unlock()

	// errors aren't logged, as that would queue another embed
	return q.client.Execute(webhook.ExecuteData{
		AvatarURL: avatar,
		Embeds:    embeds,
		AllowedMentions: &api.AllowedMentions{
			Parse: []api.AllowedMentionType{},
		},
	})
}
