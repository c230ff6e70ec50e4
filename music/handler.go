package music

import (
	"fmt"
	"io"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/common/log"
)

// Volume limits.
const (
	MinVolume     = 0
	MaxVolume     = 400
	DefaultVolume = 100
)

// Errors returned by Handler methods.
const (
	ErrVolumeOutOfRange = errors.Sentinel("volume must be between 0 and 400")
	ErrInvalidSkip      = errors.Sentinel("amount of tracks to skip must be at least 1")
	ErrClosed           = errors.Sentinel("session handler is closed")
)

// State is the playback state of a session.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	default:
		return "IDLE"
	}
}

// Handler is a guild's audio session.
// It owns one engine player and that player's queue.
type Handler struct {
	GuildID discord.GuildID

	manager   PlayerManager
	player    Player
	scheduler *scheduler
	announcer Announcer

	mu        sync.RWMutex
	channelID discord.ChannelID
	closed    bool
}

// NewHandler creates a handler with a new player from manager.
// Messages about the queue are sent to channelID through announcer.
func NewHandler(guildID discord.GuildID, manager PlayerManager, announcer Announcer, channelID discord.ChannelID) *Handler {
	h := &Handler{
		GuildID:   guildID,
		manager:   manager,
		player:    manager.CreatePlayer(),
		announcer: announcer,
		channelID: channelID,
	}
	h.player.SetVolume(DefaultVolume)
	h.scheduler = newScheduler(h.player, h.announce)
	return h
}

// Channel returns the text channel messages are sent to.
func (h *Handler) Channel() discord.ChannelID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelID
}

// SetChannel changes the text channel messages are sent to.
func (h *Handler) SetChannel(id discord.ChannelID) {
	if !id.IsValid() {
		return
	}

	h.mu.Lock()
	h.channelID = id
	h.mu.Unlock()
}

func (h *Handler) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Handler) announce(content string) {
	if h.announcer == nil || h.isClosed() {
		return
	}

	ch := h.Channel()
	if err := h.announcer.Announce(ch, content); err != nil {
		log.Errorf("Error sending message to %v in guild %v: %v", ch, h.GuildID, err)
	}
}

// Play resolves identifier and adds the result to the queue.
// It returns immediately; the outcome is announced in the handler's channel.
func (h *Handler) Play(identifier string) error {
	if h.isClosed() {
		return ErrClosed
	}

	h.manager.LoadItemOrdered(h.GuildID, identifier, &loadResult{h: h, identifier: identifier})
	return nil
}

// SetVolume sets the volume of the player, 0 to 400.
func (h *Handler) SetVolume(v int) error {
	if v < MinVolume || v > MaxVolume {
		return ErrVolumeOutOfRange
	}
	if h.isClosed() {
		return ErrClosed
	}

	h.player.SetVolume(v)
	return nil
}

// Volume returns the player's volume.
func (h *Handler) Volume() int {
	return h.player.Volume()
}

// IsPaused returns true if the player is paused.
func (h *Handler) IsPaused() bool {
	return h.player.Paused()
}

// SetPaused pauses or resumes the player.
func (h *Handler) SetPaused(paused bool) {
	if h.isClosed() {
		return
	}
	h.player.SetPaused(paused)
}

// Skip skips the current track and n-1 queued tracks.
// If fewer tracks are queued, playback stops.
// It returns the number of tracks skipped.
func (h *Handler) Skip(n int) (int, error) {
	if n < 1 {
		return 0, ErrInvalidSkip
	}
	if h.isClosed() {
		return 0, ErrClosed
	}

	return h.scheduler.next(n), nil
}

// Stop clears the queue and stops the current track.
func (h *Handler) Stop() {
	h.scheduler.clear()
	h.player.Stop()
}

// Queue returns the queued tracks, not including the current one.
func (h *Handler) Queue() []Track {
	return h.scheduler.tracks()
}

// NowPlaying returns the current track and the position in it.
func (h *Handler) NowPlaying() (t Track, pos time.Duration, ok bool) {
	t, ok = h.player.Playing()
	if !ok {
		return t, 0, false
	}
	return t, h.player.Position(), true
}

// State returns the session's playback state.
func (h *Handler) State() State {
	if _, ok := h.player.Playing(); !ok {
		return StateIdle
	}
	if h.player.Paused() {
		return StatePaused
	}
	return StatePlaying
}

// Attach sets the voice output audio is written to.
// A nil writer detaches the output.
func (h *Handler) Attach(w io.Writer) {
	h.player.SetOutput(w)
}

// Close destroys the player. Calling Close more than once is a no-op.
func (h *Handler) Close() {
	h.close()
}

// close returns true if this call closed the handler.
func (h *Handler) close() bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.closed = true
	h.mu.Unlock()

	h.scheduler.clear()
	h.player.Destroy()
	return true
}

// loadResult queues the result of a load and announces it.
type loadResult struct {
	h          *Handler
	identifier string
}

func (r *loadResult) TrackLoaded(t Track) {
	if r.h.isClosed() {
		return
	}

	r.h.announce(fmt.Sprintf("Added `%v` to the queue!", t.Title))
	r.h.scheduler.enqueue(t)
}

func (r *loadResult) PlaylistLoaded(p Playlist) {
	if r.h.isClosed() {
		return
	}

	if len(p.Tracks) == 0 {
		r.NoMatches()
		return
	}

	r.h.announce(fmt.Sprintf("Added %d tracks from `%v` to the queue!", len(p.Tracks), p.Name))
	for _, t := range p.Tracks {
		r.h.scheduler.enqueue(t)
	}
}

func (r *loadResult) NoMatches() {
	r.h.announce(fmt.Sprintf("No matches found for `%v`!", r.identifier))
}

func (r *loadResult) LoadFailed(err error) {
	log.Errorf("Error loading %q in guild %v: %v", r.identifier, r.h.GuildID, err)
	r.h.announce(fmt.Sprintf("Could not load `%v`: %v", r.identifier, err))
}
