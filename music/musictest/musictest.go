// Package musictest provides in-memory implementations of the playback engine interfaces.
package musictest

import (
	"io"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/music"
)

// Player is a music.Player that doesn't produce audio.
// Tracks only end when Finish is called.
type Player struct {
	mu        sync.Mutex
	current   *music.Track
	started   []music.Track
	volume    int
	paused    bool
	out       io.Writer
	listener  music.Listener
	destroyed bool
}

var _ music.Player = (*Player)(nil)

func (p *Player) Play(t music.Track) error {
	p.mu.Lock()
	p.current = &t
	p.started = append(p.started, t)
	p.mu.Unlock()
	return nil
}

func (p *Player) Stop() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

func (p *Player) Playing() (music.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return music.Track{}, false
	}
	return *p.current, true
}

func (p *Player) Position() time.Duration { return 0 }

func (p *Player) SetVolume(v int) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) SetPaused(paused bool) {
	p.mu.Lock()
	p.paused = paused
	p.mu.Unlock()
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) SetOutput(w io.Writer) {
	p.mu.Lock()
	p.out = w
	p.mu.Unlock()
}

// Output returns the writer set with SetOutput.
func (p *Player) Output() io.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out
}

func (p *Player) SetListener(l music.Listener) {
	p.mu.Lock()
	p.listener = l
	p.mu.Unlock()
}

func (p *Player) Destroy() {
	p.mu.Lock()
	p.current = nil
	p.destroyed = true
	p.mu.Unlock()
}

// Destroyed returns true if Destroy was called.
func (p *Player) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Started returns every track passed to Play, in order.
func (p *Player) Started() []music.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]music.Track(nil), p.started...)
}

// Finish ends the current track as if it played to the end.
func (p *Player) Finish() {
	p.mu.Lock()
	t := p.current
	p.current = nil
	l := p.listener
	p.mu.Unlock()

	if t != nil && l != nil {
		l.TrackEnded(*t, music.EndFinished)
	}
}

// End delivers a TrackEnded event for t without changing the current track,
// as happens when a track's end is reported after another track was started.
func (p *Player) End(t music.Track, reason music.EndReason) {
	p.mu.Lock()
	l := p.listener
	p.mu.Unlock()

	if l != nil {
		l.TrackEnded(t, reason)
	}
}

// Manager is a music.PlayerManager that resolves identifiers from its maps.
// Identifiers found in none of them have no matches.
// Loads complete before LoadItemOrdered returns.
type Manager struct {
	Tracks    map[string]music.Track
	Playlists map[string]music.Playlist
	Failures  map[string]error

	mu      sync.Mutex
	players []*Player
	loads   []string
}

var _ music.PlayerManager = (*Manager)(nil)

func (m *Manager) CreatePlayer() music.Player {
	p := &Player{}

	m.mu.Lock()
	m.players = append(m.players, p)
	m.mu.Unlock()
	return p
}

// Players returns every player created by the manager, in order.
func (m *Manager) Players() []*Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Player(nil), m.players...)
}

// Loads returns every identifier passed to LoadItemOrdered, in order.
func (m *Manager) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

func (m *Manager) LoadItemOrdered(_ discord.GuildID, identifier string, h music.LoadResultHandler) {
	m.mu.Lock()
	m.loads = append(m.loads, identifier)
	m.mu.Unlock()

	if err, ok := m.Failures[identifier]; ok {
		h.LoadFailed(err)
		return
	}
	if t, ok := m.Tracks[identifier]; ok {
		h.TrackLoaded(t)
		return
	}
	if p, ok := m.Playlists[identifier]; ok {
		h.PlaylistLoaded(p)
		return
	}
	h.NoMatches()
}

// Message is a message sent through an Announcer.
type Message struct {
	ChannelID discord.ChannelID
	Content   string
}

// Announcer records announcements.
type Announcer struct {
	mu       sync.Mutex
	messages []Message
}

var _ music.Announcer = (*Announcer)(nil)

func (a *Announcer) Announce(channelID discord.ChannelID, content string) error {
	a.mu.Lock()
	a.messages = append(a.messages, Message{ChannelID: channelID, Content: content})
	a.mu.Unlock()
	return nil
}

// Messages returns every announcement, in order.
func (a *Announcer) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.messages...)
}
