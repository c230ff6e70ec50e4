package music_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/commands/music"
	core "github.com/xf8b/xf8bot/music"
	"github.com/xf8b/xf8bot/music/musictest"
)

const (
	guildID   = discord.GuildID(1)
	channelID = discord.ChannelID(2)
	userID    = discord.UserID(3)
	voiceID   = discord.ChannelID(4)
)

type fakeVoice struct {
	mu     sync.Mutex
	users  map[discord.UserID]discord.ChannelID
	bot    discord.ChannelID
	joins  []discord.ChannelID
	leaves int
}

func (v *fakeVoice) UserChannel(_ context.Context, _ discord.GuildID, id discord.UserID) (discord.ChannelID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch, ok := v.users[id]
	return ch, ok
}

func (v *fakeVoice) Channel(discord.GuildID) (discord.ChannelID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bot, v.bot.IsValid()
}

func (v *fakeVoice) Join(_ context.Context, _ discord.GuildID, ch discord.ChannelID) (io.Writer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bot = ch
	v.joins = append(v.joins, ch)
	return io.Discard, nil
}

func (v *fakeVoice) Leave(context.Context, discord.GuildID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bot = 0
	v.leaves++
	return nil
}

type reply struct {
	Content string
	Embeds  []discord.Embed
}

type replies struct {
	mu   sync.Mutex
	msgs []reply
}

func (r *replies) Reply(_ context.Context, content string, embeds ...discord.Embed) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, reply{Content: content, Embeds: embeds})
	r.mu.Unlock()
	return nil
}

func (r *replies) last(t *testing.T) reply {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		t.Fatal("no replies")
	}
	return r.msgs[len(r.msgs)-1]
}

type harness struct {
	voice     *fakeVoice
	manager   *musictest.Manager
	announcer *musictest.Announcer
	sessions  *core.SessionCache
	dispatch  *command.Dispatcher
	replies   *replies
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		voice: &fakeVoice{users: map[discord.UserID]discord.ChannelID{}},
		manager: &musictest.Manager{Tracks: map[string]core.Track{
			"never gonna give you up": {Identifier: "https://youtu.be/dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Duration: 212 * time.Second},
			"sandstorm":               {Identifier: "https://youtu.be/y6120QOlsfU", Title: "Sandstorm", Duration: 233 * time.Second},
		}},
		announcer: &musictest.Announcer{},
		replies:   &replies{},
	}
	h.sessions = core.NewSessionCache(h.manager, h.announcer, 0)
	t.Cleanup(func() { _ = h.sessions.Close() })

	reg := command.NewRegistry()
	if err := reg.Discover(music.New(h.sessions, h.voice)); err != nil {
		t.Fatal(err)
	}
	reg.Freeze()

	h.dispatch = command.NewDispatcher(reg, ">")
	return h
}

// send dispatches a message from the test user.
func (h *harness) send(content string) {
	_ = h.dispatch.Dispatch(context.Background(), command.Event{
		Message: discord.Message{
			GuildID:   guildID,
			ChannelID: channelID,
			Author:    discord.User{ID: userID},
			Content:   content,
		},
		Member:  &discord.Member{User: discord.User{ID: userID}},
		Replier: h.replies,
	})
}

// run sends content and returns the reply to it.
func (h *harness) run(t *testing.T, content string) reply {
	t.Helper()

	h.replies.mu.Lock()
	before := len(h.replies.msgs)
	h.replies.mu.Unlock()

	h.send(content)

	h.replies.mu.Lock()
	n := len(h.replies.msgs)
	h.replies.mu.Unlock()
	if n == before {
		t.Fatalf("%q got no reply", content)
	}
	return h.replies.last(t)
}

func (h *harness) player(t *testing.T) *musictest.Player {
	t.Helper()

	players := h.manager.Players()
	if len(players) == 0 {
		t.Fatal("no player was created")
	}
	return players[len(players)-1]
}

func TestVolume(t *testing.T) {
	h := newHarness(t)
	h.voice.users[userID] = voiceID
	h.voice.bot = voiceID

	cases := []struct {
		content string
		reply   string
		volume  int
	}{
		{">volume 150", "Successfully set volume to 150!", 150},
		{">volume 500", "The maximum volume is 400!", 150},
		{">volume -5", "The minimum volume is 0!", 150},
		{">volume loud", "Invalid value!", 150},
		{">volume 99999999999999999999", "The maximum volume is 400!", 150},
		{">volume -99999999999999999999", "The minimum volume is 0!", 150},
		{">vol 0", "Successfully set volume to 0!", 0},
		{">VOLUME 400", "Successfully set volume to 400!", 400},
		{">volume", "Huh? Could you repeat that? The usage of this command is: `>volume <volume>`.", 400},
	}
	for _, tc := range cases {
		if got := h.run(t, tc.content).Content; got != tc.reply {
			t.Errorf("%q replied %q, want %q", tc.content, got, tc.reply)
		}
		if v := h.player(t).Volume(); v != tc.volume {
			t.Errorf("after %q, volume = %d, want %d", tc.content, v, tc.volume)
		}
	}

	if n := len(h.manager.Players()); n != 1 {
		t.Errorf("created %d players, want 1", n)
	}
}

func TestVoicePreconditions(t *testing.T) {
	h := newHarness(t)

	for _, content := range []string{">volume 150", ">pause", ">skip", ">leave", ">join", ">play sandstorm"} {
		if got := h.run(t, content).Content; got != music.UserNotInVoiceMessage {
			t.Errorf("%q replied %q, want %q", content, got, music.UserNotInVoiceMessage)
		}
	}

	h.voice.users[userID] = voiceID
	for _, content := range []string{">volume 150", ">pause", ">stop", ">leave", ">queue"} {
		if got := h.run(t, content).Content; got != music.NotInVoiceMessage {
			t.Errorf("%q replied %q, want %q", content, got, music.NotInVoiceMessage)
		}
	}

	if n := h.sessions.Len(); n != 0 {
		t.Errorf("%d sessions were created", n)
	}
}

func TestPlayAndSkip(t *testing.T) {
	h := newHarness(t)
	h.voice.users[userID] = voiceID

	// results are announced, not replied to
	h.send(">play never gonna give you up")
	h.send(">p sandstorm")
	h.send(">play darude")
	if n := len(h.replies.msgs); n != 0 {
		t.Errorf("play sent %d replies: %+v", n, h.replies.msgs)
	}

	if diff := cmp.Diff([]discord.ChannelID{voiceID, voiceID, voiceID}, h.voice.joins); diff != "" {
		t.Errorf("wrong joins (-want +got):\n%s", diff)
	}

	var announced []string
	for _, m := range h.announcer.Messages() {
		announced = append(announced, m.Content)
	}
	want := []string{
		"Added `Never Gonna Give You Up` to the queue!",
		"Added `Sandstorm` to the queue!",
		"No matches found for `darude`!",
	}
	if diff := cmp.Diff(want, announced); diff != "" {
		t.Errorf("wrong announcements (-want +got):\n%s", diff)
	}

	p := h.player(t)
	if p.Output() == nil {
		t.Error("player has no output")
	}
	if cur, ok := p.Playing(); !ok || cur.Title != "Never Gonna Give You Up" {
		t.Errorf("playing %q, %v", cur.Title, ok)
	}

	q := h.run(t, ">queue")
	if len(q.Embeds) != 1 || !strings.Contains(q.Embeds[0].Description, "1. [Sandstorm](https://youtu.be/y6120QOlsfU) (3:53)") {
		t.Errorf("wrong queue: %+v", q)
	}

	if got := h.run(t, ">pause").Content; got != "Paused the music." {
		t.Errorf("pause replied %q", got)
	}
	if got := h.run(t, ">pause").Content; got != "The music is already paused!" {
		t.Errorf("second pause replied %q", got)
	}
	if got := h.run(t, ">resume").Content; got != "Resumed the music." {
		t.Errorf("resume replied %q", got)
	}

	if got := h.run(t, ">skip").Content; got != "Skipped the current song." {
		t.Errorf("skip replied %q", got)
	}
	if cur, ok := p.Playing(); !ok || cur.Title != "Sandstorm" {
		t.Errorf("playing %q, %v after skipping", cur.Title, ok)
	}

	if got := h.run(t, ">skip 0").Content; got != "The amount of songs to skip must be at least 1!" {
		t.Errorf("skip 0 replied %q", got)
	}
	if got := h.run(t, ">skip lots").Content; got != command.DefaultInvalidValueMessage {
		t.Errorf("skip lots replied %q", got)
	}
	if got := h.run(t, ">skip 5").Content; got != "Skipped the current song." {
		t.Errorf("skip 5 replied %q", got)
	}
	if _, ok := p.Playing(); ok {
		t.Error("still playing after skipping past the queue")
	}
	if got := h.run(t, ">skip").Content; got != music.NothingPlayingMessage {
		t.Errorf("skip while idle replied %q", got)
	}
}

func TestSkipPastEverything(t *testing.T) {
	h := newHarness(t)
	h.voice.users[userID] = voiceID

	h.send(">play never gonna give you up")
	h.send(">play sandstorm")

	if got := h.run(t, ">skip 99999999999999999999").Content; got != "Skipped 2 songs." {
		t.Errorf("skip replied %q", got)
	}
	if _, ok := h.player(t).Playing(); ok {
		t.Error("still playing after skipping everything")
	}
}

func TestLeave(t *testing.T) {
	h := newHarness(t)
	h.voice.users[userID] = voiceID

	if got := h.run(t, ">join").Content; got != "Successfully connected to <#4>!" {
		t.Errorf("join replied %q", got)
	}
	if got := h.run(t, ">join").Content; got != "I am already in your VC!" {
		t.Errorf("second join replied %q", got)
	}
	p := h.player(t)

	if got := h.run(t, ">leave").Content; got != "Successfully disconnected from <#4>!" {
		t.Errorf("leave replied %q", got)
	}
	if h.voice.leaves != 1 {
		t.Errorf("left %d times", h.voice.leaves)
	}
	if !p.Destroyed() {
		t.Error("player wasn't destroyed")
	}
	if n := h.sessions.Len(); n != 0 {
		t.Errorf("%d sessions left", n)
	}
}
