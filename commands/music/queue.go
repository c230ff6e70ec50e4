package music

import (
	"fmt"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/command"
	core "github.com/xf8b/xf8bot/music"
)

// queuePageSize is the number of queued songs shown by the queue command.
const queuePageSize = 10

// formatDuration formats d as m:ss, or h:mm:ss for durations of an hour or longer.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func trackLine(t core.Track) string {
	title := bcr.EscapeBackticks(t.Title)
	if t.Identifier != "" {
		title = fmt.Sprintf("[%v](%v)", title, t.Identifier)
	}

	if t.Duration > 0 {
		return fmt.Sprintf("%v (%v)", title, formatDuration(t.Duration))
	}
	return title
}

// queueEmbed shows the current track and up to queuePageSize queued tracks.
func queueEmbed(current *core.Track, queue []core.Track) discord.Embed {
	var b strings.Builder
	if current != nil {
		fmt.Fprintf(&b, "**Now playing:** %v\n\n", trackLine(*current))
	}

	var total time.Duration
	for i, t := range queue {
		total += t.Duration
		if i < queuePageSize {
			fmt.Fprintf(&b, "%d. %v\n", i+1, trackLine(t))
		}
	}
	if len(queue) > queuePageSize {
		fmt.Fprintf(&b, "...and %d more\n", len(queue)-queuePageSize)
	}

	e := discord.Embed{
		Title:       "Queue",
		Description: b.String(),
		Color:       bcr.ColourPurple,
	}
	if len(queue) > 0 {
		e.Footer = &discord.EmbedFooter{
			Text: fmt.Sprintf("%d songs queued, %v total", len(queue), formatDuration(total)),
		}
	}
	return e
}

func (c *Commands) queue(ctx *command.Context) error {
	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	var current *core.Track
	if t, _, ok := h.NowPlaying(); ok {
		current = &t
	}
	queued := h.Queue()

	if current == nil && len(queued) == 0 {
		return ctx.Reply("The queue is empty!")
	}
	return ctx.Reply("", queueEmbed(current, queued))
}

func (c *Commands) nowPlaying(ctx *command.Context) error {
	h, err := c.session(ctx)
	if h == nil {
		return err
	}

	t, pos, ok := h.NowPlaying()
	if !ok {
		return ctx.Reply(NothingPlayingMessage)
	}

	progress := formatDuration(pos)
	if t.Duration > 0 {
		progress += " / " + formatDuration(t.Duration)
	}

	e := discord.Embed{
		Title:       "Now playing",
		Description: trackLine(t),
		Color:       bcr.ColourPurple,
		Fields: []discord.EmbedField{
			{Name: "Progress", Value: progress, Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", h.Volume()), Inline: true},
		},
	}
	if t.Author != "" {
		e.Fields = append([]discord.EmbedField{{Name: "Uploader", Value: t.Author, Inline: true}}, e.Fields...)
	}
	if h.IsPaused() {
		e.Footer = &discord.EmbedFooter{Text: "Paused"}
	}

	return ctx.Reply("", e)
}
