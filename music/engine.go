// Package music holds the per-guild audio sessions: the session handler with its queue,
// and the cache that keeps one handler per guild.
// The playback engine itself is reached through the PlayerManager and Player interfaces.
package music

import (
	"io"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

// Track is a single playable item.
type Track struct {
	// Identifier is the page the track was resolved from, such as a YouTube URL.
	Identifier string
	Title      string
	Author     string
	Duration   time.Duration

	// Source is the engine-specific location of the audio stream.
	Source string
}

// Playlist is a list of tracks loaded from a single identifier.
type Playlist struct {
	Name   string
	Tracks []Track
}

// EndReason is why a track stopped playing.
type EndReason int

const (
	EndFinished EndReason = iota
	EndLoadFailed
	EndStopped
	EndReplaced
	EndCleanup
)

// MayStartNext returns true if the next queued track should start.
func (r EndReason) MayStartNext() bool {
	return r == EndFinished || r == EndLoadFailed
}

func (r EndReason) String() string {
	switch r {
	case EndFinished:
		return "finished"
	case EndLoadFailed:
		return "load failed"
	case EndStopped:
		return "stopped"
	case EndReplaced:
		return "replaced"
	case EndCleanup:
		return "cleanup"
	}
	return "unknown"
}

// Listener receives a player's events.
type Listener interface {
	TrackStarted(t Track)
	TrackEnded(t Track, reason EndReason)
	TrackException(t Track, err error)
}

// Player plays one track at a time into an output.
// Listener methods are never called from inside Play or Stop.
type Player interface {
	// Play starts t, replacing the current track.
	Play(t Track) error
	// Stop stops the current track.
	Stop()
	// Playing returns the current track.
	Playing() (t Track, ok bool)
	// Position returns how far into the current track the player is.
	Position() time.Duration

	SetVolume(v int)
	Volume() int
	SetPaused(paused bool)
	Paused() bool

	// SetOutput sets the writer that Opus frames are written to, one frame per Write.
	SetOutput(w io.Writer)
	SetListener(l Listener)

	// Destroy stops the player and releases its resources.
	Destroy()
}

// LoadResultHandler receives the result of a load.
// Exactly one method is called per load.
type LoadResultHandler interface {
	TrackLoaded(t Track)
	PlaylistLoaded(p Playlist)
	NoMatches()
	LoadFailed(err error)
}

// PlayerManager is the playback engine.
type PlayerManager interface {
	CreatePlayer() Player
	// LoadItemOrdered resolves identifier in the background.
	// Loads with the same key complete in the order they were submitted.
	LoadItemOrdered(key discord.GuildID, identifier string, h LoadResultHandler)
}

// Announcer sends a message to a text channel.
type Announcer interface {
	Announce(channelID discord.ChannelID, content string) error
}

// AnnouncerFunc adapts a function to an Announcer.
type AnnouncerFunc func(channelID discord.ChannelID, content string) error

// Announce calls f.
func (f AnnouncerFunc) Announce(channelID discord.ChannelID, content string) error {
	return f(channelID, content)
}
