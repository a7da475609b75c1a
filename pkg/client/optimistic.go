package client

import (
	"context"

	"github.com/yigit/photoshare/internal/app/models/dto"
)

// LikeState is where a photo sits in the like-toggle cycle
type LikeState int

const (
	// LikeIdle means the cache agrees with the last server read
	LikeIdle LikeState = iota
	// LikeOptimistic means toggles are applied locally but not yet confirmed
	LikeOptimistic
	// LikeReconciling means entries holding the photo await a re-fetch
	LikeReconciling
)

func (s LikeState) String() string {
	switch s {
	case LikeOptimistic:
		return "optimistic"
	case LikeReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

// likeChain tracks the toggles of one photo that have not all returned.
// Calls in a chain run one at a time in submission order.
type likeChain struct {
	baseline  State
	gens      map[Key]uint64
	known     bool
	target    bool
	pending   int
	committed bool
	failed    bool
	last      *dto.LikeResponse
	tail      chan struct{}
}

// ToggleLike flips the viewer's like on photoID in every cached entry that
// shows it, then confirms with the server in the background. The returned
// channel yields exactly one value: nil on success, or the error after the
// cache has been rolled back.
func (c *Cache) ToggleLike(ctx context.Context, photoID string) <-chan error {
	result := make(chan error, 1)

	c.mu.Lock()
	ch := c.likes[photoID]
	if ch == nil || ch.failed {
		ch = &likeChain{baseline: c.snapshotLocked(photoID), gens: make(map[Key]uint64)}
		for k := range ch.baseline {
			ch.gens[k] = c.gens[k]
		}
		ch.target, ch.known = c.likedLocked(photoID)
		c.likes[photoID] = ch
	}
	ch.target = !ch.target
	if ch.known {
		c.patchLocked(photoID, func(p dto.PhotoResponse) dto.PhotoResponse {
			return setLike(p, c.viewer, ch.target, -1)
		})
	}
	prev := ch.tail
	done := make(chan struct{})
	ch.tail = done
	ch.pending++
	c.mu.Unlock()

	go c.runLike(ctx, photoID, ch, prev, done, result)
	return result
}

func (c *Cache) runLike(ctx context.Context, photoID string, ch *likeChain, prev, done chan struct{}, result chan<- error) {
	defer close(done)
	if prev != nil {
		<-prev
	}

	c.mu.Lock()
	aborted := ch.failed
	c.mu.Unlock()
	if aborted {
		c.finishLike(photoID, ch, nil, nil)
		result <- ErrRolledBack
		return
	}

	resp, err := c.api.ToggleLike(ctx, photoID)
	if err != nil {
		c.logger.Warn().Err(err).Str("photoId", photoID).Msg("Like toggle failed, rolling back")
		c.finishLike(photoID, ch, nil, err)
		result <- err
		return
	}
	c.finishLike(photoID, ch, resp, nil)
	result <- nil
}

func (c *Cache) finishLike(photoID string, ch *likeChain, resp *dto.LikeResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch.pending--
	switch {
	case err != nil:
		if !ch.failed {
			ch.failed = true
			c.rollbackLocked(photoID, ch)
		}
	case resp != nil:
		ch.committed = true
		ch.last = resp
	}

	if ch.pending > 0 {
		return
	}
	if c.likes[photoID] == ch {
		delete(c.likes, photoID)
	}
	if !ch.failed && ch.last != nil {
		last := ch.last
		c.patchLocked(photoID, func(p dto.PhotoResponse) dto.PhotoResponse {
			return setLike(p, c.viewer, last.Liked, last.LikeCount)
		})
	}
}

// rollbackLocked puts back the entries as they were when the chain began.
// Once any call in the chain reached the server the baseline is no longer
// the truth, so restored entries are also marked stale. An invalidation
// that landed during the chain keeps the entry stale too.
func (c *Cache) rollbackLocked(photoID string, ch *likeChain) {
	for k, snap := range ch.baseline {
		if _, ok := c.entries[k]; !ok {
			continue
		}
		c.entries[k] = &entry{value: snap.Value, stale: snap.Stale || c.gens[k] != ch.gens[k]}
		if ch.committed {
			c.markStaleLocked(k)
		}
	}
	// Entries fetched mid-chain carry the optimistic overlay and have no
	// baseline to return to.
	for _, k := range c.keysHoldingLocked(photoID) {
		if _, ok := ch.baseline[k]; !ok {
			c.markStaleLocked(k)
		}
	}
}

// LikeState reports the like cycle state of photoID
func (c *Cache) LikeState(photoID string) LikeState {
	c.mu.Lock()
	if ch, ok := c.likes[photoID]; ok && !ch.failed {
		c.mu.Unlock()
		return LikeOptimistic
	}
	keys := c.keysHoldingLocked(photoID)
	for _, k := range keys {
		if c.entries[k].stale {
			c.mu.Unlock()
			return LikeReconciling
		}
	}
	c.mu.Unlock()

	for _, k := range keys {
		if c.debouncer.Pending(k) {
			return LikeReconciling
		}
	}
	return LikeIdle
}

func (c *Cache) snapshotLocked(photoID string) State {
	snap := make(State)
	for _, k := range c.keysHoldingLocked(photoID) {
		e := c.entries[k]
		snap[k] = Entry{Value: e.value, Stale: e.stale}
	}
	return snap
}

func (c *Cache) likedLocked(photoID string) (liked, found bool) {
	for _, k := range c.keysHoldingLocked(photoID) {
		if liked, found = likedBy(c.entries[k].value, photoID); found {
			return liked, true
		}
	}
	return false, false
}

func (c *Cache) patchLocked(photoID string, fn func(dto.PhotoResponse) dto.PhotoResponse) {
	for _, e := range c.entries {
		if v, ok := mapPhoto(e.value, photoID, fn); ok {
			e.value = v
		}
	}
}
