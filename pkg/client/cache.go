package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/yigit/photoshare/internal/app/models/dto"
)

type entry struct {
	value interface{}
	stale bool
}

// Cache holds one viewer's reads. Create one per viewer; it is safe for
// concurrent use.
type Cache struct {
	api     API
	viewer  dto.UserRef
	feedLen int
	logger  zerolog.Logger

	mu      sync.Mutex
	entries map[Key]*entry
	// gens is bumped whenever a key is invalidated or patched, so a fetch
	// that started before the change stores its result as stale.
	gens  map[Key]uint64
	likes map[string]*likeChain

	group     singleflight.Group
	debouncer *Debouncer
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithFeedLength sets how many activities a cached feed keeps
func WithFeedLength(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.feedLen = n
		}
	}
}

// WithDebounceWindow sets the like-update debounce window
func WithDebounceWindow(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.debouncer = NewDebouncer(d, c.Invalidate)
	}
}

// WithLogger sets the cache logger
func WithLogger(logger zerolog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache creates a cache for viewer. A zero viewer is anonymous.
func NewCache(api API, viewer dto.UserRef, opts ...CacheOption) *Cache {
	c := &Cache{
		api:     api,
		viewer:  viewer,
		feedLen: DefaultFeedLength,
		logger:  zerolog.Nop(),
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
		likes:   make(map[string]*likeChain),
	}
	c.debouncer = NewDebouncer(DefaultDebounceWindow, c.Invalidate)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops pending invalidations
func (c *Cache) Close() {
	c.debouncer.Stop()
}

func (c *Cache) Users(ctx context.Context) ([]dto.UserSummaryResponse, error) {
	return load(ctx, c, UsersKey(), c.api.ListUsers)
}

func (c *Cache) User(ctx context.Context, userID string) (*dto.UserResponse, error) {
	return load(ctx, c, UserKey(userID), func(ctx context.Context) (*dto.UserResponse, error) {
		return c.api.GetUser(ctx, userID)
	})
}

func (c *Cache) PhotosOfUser(ctx context.Context, userID string) ([]dto.PhotoResponse, error) {
	return load(ctx, c, PhotosOfUserKey(userID), func(ctx context.Context) ([]dto.PhotoResponse, error) {
		return c.api.ListPhotosOfUser(ctx, userID)
	})
}

func (c *Cache) Photo(ctx context.Context, photoID string) (*dto.PhotoResponse, error) {
	return load(ctx, c, PhotoKey(photoID), func(ctx context.Context) (*dto.PhotoResponse, error) {
		return c.api.GetPhoto(ctx, photoID)
	})
}

func (c *Cache) UserStats(ctx context.Context, userID string) (*dto.UserStatsResponse, error) {
	return load(ctx, c, UserStatsKey(userID), func(ctx context.Context) (*dto.UserStatsResponse, error) {
		return c.api.GetUserStats(ctx, userID)
	})
}

func (c *Cache) CommentsByUser(ctx context.Context, userID string) ([]dto.CommentResponse, error) {
	return load(ctx, c, CommentsByUserKey(userID), func(ctx context.Context) ([]dto.CommentResponse, error) {
		return c.api.ListCommentsByUser(ctx, userID)
	})
}

// Activities returns the recent activity feed
func (c *Cache) Activities(ctx context.Context) ([]dto.ActivityResponse, error) {
	return load(ctx, c, ActivitiesKey(), func(ctx context.Context) ([]dto.ActivityResponse, error) {
		return c.api.RecentActivities(ctx, c.feedLen)
	})
}

// load serves key from the cache when fresh and otherwise fetches it once
// for all concurrent callers.
func load[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale {
		if v, ok := e.value.(T); ok {
			c.mu.Unlock()
			return v, nil
		}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		c.mu.Lock()
		gen := c.gens[key]
		c.mu.Unlock()

		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return c.store(key, val, gen), nil
	})
	if err != nil {
		var zero T
		c.logger.Debug().Err(err).Str("key", key.String()).Msg("Cache fetch failed")
		return zero, err
	}
	return v.(T), nil
}

// store saves a fetched value with in-flight optimistic likes laid on top
func (c *Cache) store(key Key, val interface{}, gen uint64) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	for photoID, ch := range c.likes {
		if ch.known && !ch.failed {
			val, _ = mapPhoto(val, photoID, func(p dto.PhotoResponse) dto.PhotoResponse {
				return setLike(p, c.viewer, ch.target, -1)
			})
		}
	}
	c.entries[key] = &entry{value: val, stale: c.gens[key] != gen}
	return val
}

// Peek returns the cached entry without fetching
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{Value: e.value, Stale: e.stale}, true
}

// Invalidate marks keys stale so the next read re-fetches them
func (c *Cache) Invalidate(keys []Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.markStaleLocked(k)
	}
}

func (c *Cache) markStaleLocked(k Key) {
	c.gens[k]++
	if e, ok := c.entries[k]; ok {
		e.stale = true
	}
}

// Apply reconciles the cache with one push event
func (c *Cache) Apply(ev dto.Event) error {
	c.mu.Lock()
	state := make(State, len(c.entries))
	for k, e := range c.entries {
		state[k] = Entry{Value: e.value, Stale: e.stale}
	}
	next, refetch, err := Reconcile(state, ev, c.feedLen)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	for k, e := range next {
		if cur, ok := c.entries[k]; ok {
			cur.value = e.Value
			cur.stale = e.Stale
		}
	}
	if ev.Type == dto.EventNewActivity {
		c.gens[ActivitiesKey()]++
		c.gens[UsersKey()]++
	}
	c.mu.Unlock()

	if len(refetch) > 0 {
		c.logger.Debug().Str("event", string(ev.Type)).Int("keys", len(refetch)).Msg("Scheduling cache invalidation")
		c.debouncer.Add(refetch...)
	}
	return nil
}

// Consume applies events until the channel closes or ctx is done
func (c *Cache) Consume(ctx context.Context, events <-chan dto.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.Apply(ev); err != nil {
				c.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("Ignoring malformed event")
			}
		}
	}
}

// keysHoldingLocked lists the entries that show photoID
func (c *Cache) keysHoldingLocked(photoID string) []Key {
	var keys []Key
	for k, e := range c.entries {
		if containsPhoto(e.value, photoID) {
			keys = append(keys, k)
		}
	}
	return keys
}
