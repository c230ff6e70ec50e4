package music_test

import (
	"testing"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"
	"github.com/xf8b/xf8bot/music"
	"github.com/xf8b/xf8bot/music/musictest"
)

const (
	guild   = discord.GuildID(100)
	channel = discord.ChannelID(200)
)

var (
	rickroll  = music.Track{Identifier: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Title: "Never Gonna Give You Up"}
	sandstorm = music.Track{Identifier: "https://www.youtube.com/watch?v=y6120QOlsfU", Title: "Darude - Sandstorm"}
	allstar   = music.Track{Identifier: "https://www.youtube.com/watch?v=L_jWHffIx5E", Title: "Smash Mouth - All Star"}
)

func newManager() *musictest.Manager {
	return &musictest.Manager{
		Tracks: map[string]music.Track{
			"rickroll":  rickroll,
			"sandstorm": sandstorm,
			"allstar":   allstar,
		},
		Playlists: map[string]music.Playlist{
			"memes": {Name: "memes", Tracks: []music.Track{sandstorm, allstar}},
		},
		Failures: map[string]error{
			"private": errors.New("video is private"),
		},
	}
}

func newHandler(t *testing.T) (*music.Handler, *musictest.Player, *musictest.Announcer) {
	t.Helper()

	m := newManager()
	a := &musictest.Announcer{}
	h := music.NewHandler(guild, m, a, channel)
	return h, m.Players()[0], a
}

func titles(ts []music.Track) []string {
	var s []string
	for _, t := range ts {
		s = append(s, t.Title)
	}
	return s
}

func contents(msgs []musictest.Message) []string {
	var s []string
	for _, m := range msgs {
		s = append(s, m.Content)
	}
	return s
}

func TestHandlerDefaults(t *testing.T) {
	h, _, _ := newHandler(t)

	if h.Volume() != music.DefaultVolume {
		t.Errorf("volume = %d, want %d", h.Volume(), music.DefaultVolume)
	}
	if h.IsPaused() {
		t.Error("new handler is paused")
	}
	if h.State() != music.StateIdle {
		t.Errorf("state = %v", h.State())
	}
	if h.Channel() != channel {
		t.Errorf("channel = %v", h.Channel())
	}
}

func TestHandlerSetVolume(t *testing.T) {
	h, p, _ := newHandler(t)

	for _, v := range []int{0, 150, 400} {
		if err := h.SetVolume(v); err != nil {
			t.Errorf("SetVolume(%d): %v", v, err)
		}
		if p.Volume() != v {
			t.Errorf("player volume = %d, want %d", p.Volume(), v)
		}
	}

	for _, v := range []int{-1, 401, 1000} {
		if err := h.SetVolume(v); !errors.Is(err, music.ErrVolumeOutOfRange) {
			t.Errorf("SetVolume(%d): got %v, want ErrVolumeOutOfRange", v, err)
		}
		if h.Volume() != 400 {
			t.Errorf("volume changed to %d by SetVolume(%d)", h.Volume(), v)
		}
	}
}

func TestHandlerPlayAndQueue(t *testing.T) {
	h, p, a := newHandler(t)

	for _, id := range []string{"rickroll", "sandstorm", "allstar"} {
		if err := h.Play(id); err != nil {
			t.Fatal(err)
		}
	}

	if h.State() != music.StatePlaying {
		t.Errorf("state = %v, want PLAYING", h.State())
	}
	got, _, ok := h.NowPlaying()
	if !ok || got.Title != rickroll.Title {
		t.Errorf("now playing = %v, %v", got, ok)
	}
	if diff := cmp.Diff([]string{sandstorm.Title, allstar.Title}, titles(h.Queue())); diff != "" {
		t.Errorf("wrong queue (-want +got):\n%s", diff)
	}

	want := []musictest.Message{
		{ChannelID: channel, Content: "Added `Never Gonna Give You Up` to the queue!"},
		{ChannelID: channel, Content: "Added `Darude - Sandstorm` to the queue!"},
		{ChannelID: channel, Content: "Added `Smash Mouth - All Star` to the queue!"},
	}
	if diff := cmp.Diff(want, a.Messages()); diff != "" {
		t.Errorf("wrong announcements (-want +got):\n%s", diff)
	}

	// the next track starts when the current one finishes
	p.Finish()
	got, _, _ = h.NowPlaying()
	if got.Title != sandstorm.Title {
		t.Errorf("after finish: now playing %q", got.Title)
	}
}

func TestHandlerLoadOutcomes(t *testing.T) {
	h, _, a := newHandler(t)

	_ = h.Play("nothing here")
	_ = h.Play("private")
	_ = h.Play("memes")

	want := []string{
		"No matches found for `nothing here`!",
		"Could not load `private`: video is private",
		"Added 2 tracks from `memes` to the queue!",
	}
	if diff := cmp.Diff(want, contents(a.Messages())); diff != "" {
		t.Errorf("wrong announcements (-want +got):\n%s", diff)
	}

	got, _, _ := h.NowPlaying()
	if got.Title != sandstorm.Title {
		t.Errorf("now playing %q", got.Title)
	}
	if diff := cmp.Diff([]string{allstar.Title}, titles(h.Queue())); diff != "" {
		t.Errorf("wrong queue (-want +got):\n%s", diff)
	}
}

func TestHandlerAnnouncesInCurrentChannel(t *testing.T) {
	h, _, a := newHandler(t)

	h.SetChannel(300)
	_ = h.Play("rickroll")
	h.SetChannel(0)
	_ = h.Play("sandstorm")

	msgs := a.Messages()
	if len(msgs) != 2 || msgs[0].ChannelID != 300 || msgs[1].ChannelID != 300 {
		t.Errorf("wrong channels: %v", msgs)
	}
}

func TestHandlerSkip(t *testing.T) {
	cases := []struct {
		name    string
		n       int
		skipped int
		playing string
		queue   []string
	}{
		{"one", 1, 1, sandstorm.Title, []string{allstar.Title}},
		{"two", 2, 2, allstar.Title, nil},
		{"past the queue", 5, 3, "", nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, _, _ := newHandler(t)
			_ = h.Play("rickroll")
			_ = h.Play("sandstorm")
			_ = h.Play("allstar")

			skipped, err := h.Skip(c.n)
			if err != nil {
				t.Fatal(err)
			}
			if skipped != c.skipped {
				t.Errorf("skipped %d, want %d", skipped, c.skipped)
			}

			got, _, ok := h.NowPlaying()
			if c.playing == "" {
				if ok {
					t.Errorf("still playing %q", got.Title)
				}
				if h.State() != music.StateIdle {
					t.Errorf("state = %v, want IDLE", h.State())
				}
			} else if got.Title != c.playing {
				t.Errorf("now playing %q, want %q", got.Title, c.playing)
			}

			if diff := cmp.Diff(c.queue, titles(h.Queue())); diff != "" {
				t.Errorf("wrong queue (-want +got):\n%s", diff)
			}
		})
	}

	h, _, _ := newHandler(t)
	if _, err := h.Skip(0); !errors.Is(err, music.ErrInvalidSkip) {
		t.Errorf("Skip(0): got %v", err)
	}
}

func TestHandlerLateEndAfterSkip(t *testing.T) {
	h, p, _ := newHandler(t)
	_ = h.Play("rickroll")
	_ = h.Play("sandstorm")
	_ = h.Play("allstar")

	if _, err := h.Skip(1); err != nil {
		t.Fatal(err)
	}
	// rickroll finished on its own while the skip was starting sandstorm
	p.End(rickroll, music.EndFinished)

	if got, _, _ := h.NowPlaying(); got.Title != sandstorm.Title {
		t.Errorf("now playing %q, want %q", got.Title, sandstorm.Title)
	}
	if diff := cmp.Diff([]string{allstar.Title}, titles(h.Queue())); diff != "" {
		t.Errorf("wrong queue (-want +got):\n%s", diff)
	}
}

func TestHandlerPause(t *testing.T) {
	h, _, _ := newHandler(t)
	_ = h.Play("rickroll")

	h.SetPaused(true)
	if !h.IsPaused() || h.State() != music.StatePaused {
		t.Errorf("after pause: paused = %v, state = %v", h.IsPaused(), h.State())
	}

	h.SetPaused(false)
	if h.IsPaused() || h.State() != music.StatePlaying {
		t.Errorf("after resume: paused = %v, state = %v", h.IsPaused(), h.State())
	}

	h.Stop()
	if h.State() != music.StateIdle || len(h.Queue()) != 0 {
		t.Errorf("after stop: state = %v, queue = %v", h.State(), h.Queue())
	}
}

func TestHandlerClose(t *testing.T) {
	h, p, _ := newHandler(t)
	_ = h.Play("rickroll")

	h.Close()
	h.Close()

	if !p.Destroyed() {
		t.Error("player was not destroyed")
	}
	if err := h.Play("sandstorm"); !errors.Is(err, music.ErrClosed) {
		t.Errorf("Play after Close: got %v", err)
	}
	if err := h.SetVolume(50); !errors.Is(err, music.ErrClosed) {
		t.Errorf("SetVolume after Close: got %v", err)
	}
}
