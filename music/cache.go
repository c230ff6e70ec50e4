package music

import (
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/ReneKroon/ttlcache/v2"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/xf8b/xf8bot/common/log"
	"golang.org/x/sync/singleflight"
)

// DefaultExpiry is how long a session handler lives after it was last accessed.
const DefaultExpiry = 5 * time.Minute

// SessionCache keeps at most one live Handler per guild.
// Handlers expire after not being accessed for the cache's expiry duration,
// and are closed when they expire.
type SessionCache struct {
	manager   PlayerManager
	announcer Announcer

	// OnEvict is called once for every handler closed by the cache.
	// It is used to leave the guild's voice channel.
	OnEvict func(h *Handler)

	cache *ttlcache.Cache
	group singleflight.Group

	mu       sync.Mutex
	live     map[discord.GuildID]*Handler
	closing  bool
	evicting sync.WaitGroup
}

// NewSessionCache returns a cache creating handlers with manager.
// If expiry is 0, DefaultExpiry is used.
func NewSessionCache(manager PlayerManager, announcer Announcer, expiry time.Duration) *SessionCache {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	c := &SessionCache{
		manager:   manager,
		announcer: announcer,
		cache:     ttlcache.NewCache(),
		live:      make(map[discord.GuildID]*Handler),
	}

	c.cache.SetTTL(expiry)
	c.cache.SetExpirationCallback(func(key string, value interface{}) {
		h, ok := value.(*Handler)
		if !ok {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closing {
			return
		}

		log.Debugf("Session for guild %v expired", h.GuildID)
		if c.live[h.GuildID] == h {
			delete(c.live, h.GuildID)
		}
		c.evictAsync(h)
	})

	return c
}

// Manager returns the playback engine handlers are created with.
func (c *SessionCache) Manager() PlayerManager {
	return c.manager
}

func cacheKey(id discord.GuildID) string {
	return id.String()
}

// GetOrCreate returns the guild's handler, creating it if there is none.
// The handler's text channel is set to channelID.
// Concurrent calls for the same guild return the same handler.
func (c *SessionCache) GetOrCreate(guildID discord.GuildID, channelID discord.ChannelID) (*Handler, error) {
	key := cacheKey(guildID)

	if h, ok := c.get(key); ok {
		h.SetChannel(channelID)
		return h, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if h, ok := c.get(key); ok {
			return h, nil
		}

		h := NewHandler(guildID, c.manager, c.announcer, channelID)
		if err := c.cache.Set(key, h); err != nil {
			h.Close()
			return nil, errors.Wrap(err, "caching session handler")
		}

		c.mu.Lock()
		old := c.live[guildID]
		c.live[guildID] = h
		// an expired handler whose callback hasn't run yet
		if old != nil && old != h && !c.closing {
			c.evictAsync(old)
		}
		c.mu.Unlock()

		log.Debugf("Created session for guild %v", guildID)
		return h, nil
	})
	if err != nil {
		return nil, err
	}

	h := v.(*Handler)
	h.SetChannel(channelID)
	return h, nil
}

// Get returns the guild's handler without creating one.
func (c *SessionCache) Get(guildID discord.GuildID) (*Handler, bool) {
	return c.get(cacheKey(guildID))
}

func (c *SessionCache) get(key string) (*Handler, bool) {
	v, err := c.cache.Get(key)
	if err != nil {
		return nil, false
	}
	h, ok := v.(*Handler)
	return h, ok
}

// Remove closes and removes the guild's handler, if any.
func (c *SessionCache) Remove(guildID discord.GuildID) {
	h, ok := c.get(cacheKey(guildID))
	if !ok {
		c.mu.Lock()
		h, ok = c.live[guildID]
		c.mu.Unlock()
		if !ok {
			return
		}
	}

	err := c.cache.Remove(cacheKey(guildID))
	if err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
		log.Errorf("Error removing session for guild %v: %v", guildID, err)
	}

	c.forget(h)
	c.evict(h)
}

// Len returns the number of live handlers.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Close closes every handler and stops the cache.
// When it returns, every handler is closed and OnEvict has returned for each of them.
func (c *SessionCache) Close() error {
	c.mu.Lock()
	c.closing = true
	handlers := make([]*Handler, 0, len(c.live))
	for _, h := range c.live {
		handlers = append(handlers, h)
	}
	c.live = make(map[discord.GuildID]*Handler)
	c.mu.Unlock()

	err := c.cache.Close()

	for _, h := range handlers {
		c.evict(h)
	}
	c.evicting.Wait()
	return err
}

// forget removes h from the live handlers if it's still the guild's handler.
func (c *SessionCache) forget(h *Handler) {
	c.mu.Lock()
	if c.live[h.GuildID] == h {
		delete(c.live, h.GuildID)
	}
	c.mu.Unlock()
}

// evictAsync closes h in the background. c.mu must be held.
func (c *SessionCache) evictAsync(h *Handler) {
	c.evicting.Add(1)
	go func() {
		defer c.evicting.Done()
		c.evict(h)
	}()
}

func (c *SessionCache) evict(h *Handler) {
	if !h.close() {
		return
	}

	if c.OnEvict != nil {
		c.OnEvict(h)
	}
}
