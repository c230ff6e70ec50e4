package music

import (
	"sync"

	"github.com/xf8b/xf8bot/common/log"
)

// scheduler is a player's queue. It starts the next track when the current one ends.
type scheduler struct {
	player Player
	// announce is called with messages for the handler's text channel.
	announce func(content string)

	mu    sync.Mutex
	queue []Track
}

var _ Listener = (*scheduler)(nil)

func newScheduler(p Player, announce func(string)) *scheduler {
	s := &scheduler{player: p, announce: announce}
	p.SetListener(s)
	return s
}

// enqueue starts t if nothing is playing, otherwise adds it to the end of the queue.
func (s *scheduler) enqueue(t Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.player.Playing(); !ok && len(s.queue) == 0 {
		s.start(t)
		return
	}
	s.queue = append(s.queue, t)
}

// next skips n-1 queued tracks and starts the one after them.
// If the queue runs out, the player is stopped.
// It returns the number of tracks skipped, including the current one.
func (s *scheduler) next(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	skipped := 0
	if _, ok := s.player.Playing(); ok {
		skipped++
	}

	drop := n - 1
	if drop > len(s.queue) {
		drop = len(s.queue)
	}
	skipped += drop
	s.queue = s.queue[drop:]

	if len(s.queue) == 0 {
		s.player.Stop()
		return skipped
	}

	t := s.queue[0]
	s.queue = s.queue[1:]
	s.start(t)
	return skipped
}

// start must be called with mu held.
func (s *scheduler) start(t Track) {
	if err := s.player.Play(t); err != nil {
		log.Errorf("Error starting track %q: %v", t.Identifier, err)
		s.announce("Could not play `" + t.Title + "`: " + err.Error())
	}
}

func (s *scheduler) clear() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

func (s *scheduler) tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Track(nil), s.queue...)
}

func (s *scheduler) TrackStarted(t Track) {
	log.Debugf("Started track %q", t.Identifier)
}

func (s *scheduler) TrackEnded(t Track, reason EndReason) {
	log.Debugf("Track %q ended: %v", t.Identifier, reason)

	if !reason.MayStartNext() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a skip started another track before this one's end was delivered
	if _, ok := s.player.Playing(); ok {
		return
	}
	if len(s.queue) == 0 {
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.start(next)
}

func (s *scheduler) TrackException(t Track, err error) {
	log.Errorf("Error playing track %q: %v", t.Identifier, err)
	s.announce("Error playing `" + t.Title + "`: " + err.Error())
}
