// Package audio is the playback engine behind music sessions.
// Tracks are resolved with yt-dlp, transcoded to Opus by ffmpeg,
// and written frame by frame to a voice connection.
package audio

import (
	"context"
	"io"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/music"
)

// Result is the outcome of resolving an identifier.
// No tracks means no matches.
type Result struct {
	// Playlist is the playlist's name, or empty if the identifier was a single track or a search.
	Playlist string
	Tracks   []music.Track
}

// Loader resolves identifiers into tracks.
type Loader interface {
	Load(ctx context.Context, identifier string) (Result, error)
}

// Streamer opens a track's audio as an Ogg Opus stream.
// The stream starts at offset, with the volume (in percent) applied.
type Streamer interface {
	Stream(ctx context.Context, t music.Track, offset time.Duration, volume int) (io.ReadCloser, error)
}

// DefaultLoadTimeout is the default Manager.LoadTimeout.
const DefaultLoadTimeout = 30 * time.Second

// Manager creates players and loads tracks.
type Manager struct {
	Loader   Loader
	Streamer Streamer

	// LoadTimeout bounds every call to Loader.Load.
	LoadTimeout time.Duration
	// Pace is the interval between frames written to a player's output.
	// 0 writes frames as fast as the output accepts them.
	Pace time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[discord.GuildID][]loadRequest
}

var _ music.PlayerManager = (*Manager)(nil)

type loadRequest struct {
	identifier string
	handler    music.LoadResultHandler
}

// NewManager returns a Manager. Loads and players stop when Close is called.
func NewManager(loader Loader, streamer Streamer) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		Loader:      loader,
		Streamer:    streamer,
		LoadTimeout: DefaultLoadTimeout,
		Pace:        FrameDuration,
		ctx:         ctx,
		cancel:      cancel,
		queues:      make(map[discord.GuildID][]loadRequest),
	}
}

// CreatePlayer returns a new, idle player.
func (m *Manager) CreatePlayer() music.Player {
	return newPlayer(m.ctx, m.Streamer, m.Pace)
}

// LoadItemOrdered resolves identifier in the background.
// Loads with the same key complete in the order they were submitted.
func (m *Manager) LoadItemOrdered(key discord.GuildID, identifier string, h music.LoadResultHandler) {
	m.mu.Lock()
	q, running := m.queues[key]
	m.queues[key] = append(q, loadRequest{identifier: identifier, handler: h})
	m.mu.Unlock()

	if !running {
		go m.drain(key)
	}
}

// drain runs the key's loads until its queue is empty.
func (m *Manager) drain(key discord.GuildID) {
	for {
		m.mu.Lock()
		q := m.queues[key]
		if len(q) == 0 {
			delete(m.queues, key)
			m.mu.Unlock()
			return
		}
		req := q[0]
		m.queues[key] = q[1:]
		m.mu.Unlock()

		m.load(req)
	}
}

func (m *Manager) load(req loadRequest) {
	if err := m.ctx.Err(); err != nil {
		req.handler.LoadFailed(errors.New("the player is shutting down"))
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.LoadTimeout)
	defer cancel()

	start := time.Now()
	r, err := m.Loader.Load(ctx, req.identifier)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.New("loading took too long")
		}
		req.handler.LoadFailed(err)
		return
	}

	log.Debugf("Loaded %q (%d tracks) in %v", req.identifier, len(r.Tracks), time.Since(start).Round(time.Millisecond))

	switch {
	case len(r.Tracks) == 0:
		req.handler.NoMatches()
	case r.Playlist != "":
		req.handler.PlaylistLoaded(music.Playlist{Name: r.Playlist, Tracks: r.Tracks})
	default:
		req.handler.TrackLoaded(r.Tracks[0])
	}
}

// Close stops all players and pending loads.
func (m *Manager) Close() {
	m.cancel()
}
