package audio

import (
	"context"
	"io"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/music"
)

// ErrPlayerDestroyed is returned by Play after Destroy.
const ErrPlayerDestroyed = errors.Sentinel("player was destroyed")

// player streams one track at a time.
// Every track runs in its own goroutine, which also sends the listener's events.
type player struct {
	ctx      context.Context
	streamer Streamer
	pace     time.Duration

	mu        sync.Mutex
	volume    int
	paused    bool
	out       io.Writer
	listener  music.Listener
	current   *playback
	destroyed bool
	// wake is closed and replaced when the output or paused state changes.
	wake chan struct{}
}

var _ music.Player = (*player)(nil)

// playback is a single run of a track.
type playback struct {
	track  music.Track
	ctx    context.Context
	cancel context.CancelFunc

	// restart is signalled when the volume changes.
	restart chan struct{}

	// protected by player.mu
	pos    time.Duration
	reason *music.EndReason
}

func newPlayer(ctx context.Context, s Streamer, pace time.Duration) *player {
	return &player{
		ctx:      ctx,
		streamer: s,
		pace:     pace,
		volume:   music.DefaultVolume,
		wake:     make(chan struct{}),
	}
}

func (p *player) Play(t music.Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrPlayerDestroyed
	}

	p.end(music.EndReplaced)

	ctx, cancel := context.WithCancel(p.ctx)
	pb := &playback{
		track:   t,
		ctx:     ctx,
		cancel:  cancel,
		restart: make(chan struct{}, 1),
	}
	p.current = pb

	go p.run(pb)
	return nil
}

// end stops the current track. It must be called with mu held.
func (p *player) end(reason music.EndReason) {
	if p.current == nil {
		return
	}

	p.current.reason = &reason
	p.current.cancel()
	p.current = nil
}

func (p *player) Stop() {
	p.mu.Lock()
	p.end(music.EndStopped)
	p.mu.Unlock()
}

func (p *player) Playing() (music.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return music.Track{}, false
	}
	return p.current.track, true
}

func (p *player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return 0
	}
	return p.current.pos
}

func (p *player) SetVolume(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v == p.volume {
		return
	}
	p.volume = v

	if p.current != nil {
		select {
		case p.current.restart <- struct{}{}:
		default:
		}
	}
}

func (p *player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *player) SetPaused(paused bool) {
	p.mu.Lock()
	p.paused = paused
	p.broadcast()
	p.mu.Unlock()
}

func (p *player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *player) SetOutput(w io.Writer) {
	p.mu.Lock()
	p.out = w
	p.broadcast()
	p.mu.Unlock()
}

func (p *player) SetListener(l music.Listener) {
	p.mu.Lock()
	p.listener = l
	p.mu.Unlock()
}

func (p *player) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.end(music.EndCleanup)
	p.out = nil
	p.broadcast()
	p.mu.Unlock()
}

// broadcast must be called with mu held.
func (p *player) broadcast() {
	close(p.wake)
	p.wake = make(chan struct{})
}

func (p *player) getListener() music.Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listener
}

func (p *player) run(pb *playback) {
	if l := p.getListener(); l != nil {
		l.TrackStarted(pb.track)
	}

	reason := music.EndFinished
	err := p.stream(pb)
	if err != nil {
		reason = music.EndLoadFailed
	}

	p.mu.Lock()
	switch {
	case pb.reason != nil:
		reason = *pb.reason
	case pb.ctx.Err() != nil:
		// the manager was closed
		reason = music.EndCleanup
	}
	if p.current == pb {
		p.current = nil
	}
	l := p.listener
	p.mu.Unlock()

	pb.cancel()

	if l == nil {
		return
	}
	if err != nil && reason == music.EndLoadFailed {
		l.TrackException(pb.track, err)
	}
	l.TrackEnded(pb.track, reason)
}

// stream plays the track until it ends, restarting ffmpeg at the current position when the volume changes.
func (p *player) stream(pb *playback) error {
	for {
		p.mu.Lock()
		offset, volume := pb.pos, p.volume
		p.mu.Unlock()

		rc, err := p.streamer.Stream(pb.ctx, pb.track, offset, volume)
		if err != nil {
			if pb.ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "opening stream")
		}

		restart, err := p.copy(pb, rc)
		rc.Close()
		if err != nil || !restart {
			return err
		}

		log.Debugf("Restarting %q at %v", pb.track.Identifier, offset)
	}
}

// copy writes packets from rc to the output.
// It returns true if the stream has to be restarted.
func (p *player) copy(pb *playback, rc io.Reader) (restart bool, err error) {
	r := NewOggReader(rc)

	var tick <-chan time.Time
	if p.pace > 0 {
		t := time.NewTicker(p.pace)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-pb.restart:
			return true, nil
		default:
		}

		packet, err := r.ReadPacket()
		if err != nil {
			if errors.Is(err, io.EOF) || pb.ctx.Err() != nil {
				return false, nil
			}
			return false, errors.Wrap(err, "reading stream")
		}

		out, ok := p.waitOutput(pb)
		if !ok {
			return false, nil
		}

		if tick != nil {
			select {
			case <-tick:
			case <-pb.ctx.Done():
				return false, nil
			}
		}

		if _, err := out.Write(packet); err != nil {
			log.Errorf("Error writing to voice, detaching output: %v", err)
			p.detach(out)
			continue
		}

		p.mu.Lock()
		pb.pos += FrameDuration
		p.mu.Unlock()
	}
}

// waitOutput blocks while the player is paused or has no output.
func (p *player) waitOutput(pb *playback) (io.Writer, bool) {
	for {
		p.mu.Lock()
		if !p.paused && p.out != nil {
			out := p.out
			p.mu.Unlock()
			return out, true
		}
		wake := p.wake
		p.mu.Unlock()

		select {
		case <-wake:
		case <-pb.ctx.Done():
			return nil, false
		}
	}
}

// detach removes out if it's still the player's output.
func (p *player) detach(out io.Writer) {
	p.mu.Lock()
	if p.out == out {
		p.out = nil
		p.broadcast()
	}
	p.mu.Unlock()
}
