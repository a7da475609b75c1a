package client

import (
	"encoding/json"
	"fmt"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
)

// DefaultFeedLength bounds cached activity feeds
const DefaultFeedLength = 5

// Entry is a cached value and whether the next read must re-fetch it
type Entry struct {
	Value interface{}
	Stale bool
}

// State is a view of the cache entries
type State map[Key]Entry

// Reconcile computes the cache state after a push event and the keys that
// must be invalidated. It never mutates state or the values it holds.
//
// new_activity is applied in place: feeds get the entry prepended and cut to
// feedLen, and the actor's row in the user list gets its last activity
// replaced. photo_likes_updated carries no data, so every entry holding the
// photo is returned for invalidation.
func Reconcile(state State, ev dto.Event, feedLen int) (State, []Key, error) {
	switch ev.Type {
	case dto.EventNewActivity:
		var a dto.ActivityResponse
		if err := json.Unmarshal(ev.Payload, &a); err != nil {
			return state, nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return applyActivity(state, a, feedLen)

	case dto.EventPhotoLikesUpdated:
		var p dto.PhotoLikesUpdatedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return state, nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		var refetch []Key
		for key, e := range state {
			if containsPhoto(e.Value, p.PhotoID) {
				refetch = append(refetch, key)
			}
		}
		return state, refetch, nil
	}

	return state, nil, nil
}

func applyActivity(state State, a dto.ActivityResponse, feedLen int) (State, []Key, error) {
	next := make(State, len(state))
	for k, v := range state {
		next[k] = v
	}

	var refetch []Key
	if e, ok := next[ActivitiesKey()]; ok {
		if feed, ok := e.Value.([]dto.ActivityResponse); ok && !hasActivity(feed, a.ID) {
			updated := make([]dto.ActivityResponse, 0, len(feed)+1)
			updated = append(updated, a)
			updated = append(updated, feed...)
			if feedLen > 0 && len(updated) > feedLen {
				updated = updated[:feedLen]
			}
			e.Value = updated
			next[ActivitiesKey()] = e
		}
	}

	if e, ok := next[UsersKey()]; ok {
		if users, ok := e.Value.([]dto.UserSummaryResponse); ok {
			idx := -1
			for i := range users {
				if users[i].ID == a.User.ID {
					idx = i
					break
				}
			}
			switch {
			case idx >= 0:
				updated := make([]dto.UserSummaryResponse, len(users))
				copy(updated, users)
				last := a
				updated[idx].LastActivity = &last
				e.Value = updated
				next[UsersKey()] = e
			case a.Type == models.ActivityUserRegister:
				// A new account has no row to patch.
				refetch = append(refetch, UsersKey())
			}
		}
	}

	return next, refetch, nil
}

func hasActivity(feed []dto.ActivityResponse, id string) bool {
	for i := range feed {
		if feed[i].ID == id {
			return true
		}
	}
	return false
}

// containsPhoto reports whether a cached value shows photoID
func containsPhoto(v interface{}, photoID string) bool {
	switch val := v.(type) {
	case *dto.PhotoResponse:
		return val != nil && val.ID == photoID
	case []dto.PhotoResponse:
		for i := range val {
			if val[i].ID == photoID {
				return true
			}
		}
	case *dto.UserStatsResponse:
		if val == nil {
			return false
		}
		return (val.MostRecentPhoto != nil && val.MostRecentPhoto.ID == photoID) ||
			(val.MostCommentedPhoto != nil && val.MostCommentedPhoto.ID == photoID)
	}
	return false
}

// mapPhoto returns v with fn applied to every copy of photoID it holds. The
// original value is left untouched; ok is false when v does not hold it.
func mapPhoto(v interface{}, photoID string, fn func(dto.PhotoResponse) dto.PhotoResponse) (interface{}, bool) {
	switch val := v.(type) {
	case *dto.PhotoResponse:
		if val == nil || val.ID != photoID {
			return v, false
		}
		p := fn(*val)
		return &p, true
	case []dto.PhotoResponse:
		if !containsPhoto(val, photoID) {
			return v, false
		}
		out := make([]dto.PhotoResponse, len(val))
		copy(out, val)
		for i := range out {
			if out[i].ID == photoID {
				out[i] = fn(out[i])
			}
		}
		return out, true
	case *dto.UserStatsResponse:
		if !containsPhoto(val, photoID) {
			return v, false
		}
		stats := *val
		if stats.MostRecentPhoto != nil && stats.MostRecentPhoto.ID == photoID {
			p := fn(*stats.MostRecentPhoto)
			stats.MostRecentPhoto = &p
		}
		if stats.MostCommentedPhoto != nil && stats.MostCommentedPhoto.ID == photoID {
			p := fn(*stats.MostCommentedPhoto)
			stats.MostCommentedPhoto = &p
		}
		return &stats, true
	}
	return v, false
}

// likedBy reports the viewer's like state of photoID as held in v
func likedBy(v interface{}, photoID string) (liked, found bool) {
	mapPhoto(v, photoID, func(p dto.PhotoResponse) dto.PhotoResponse {
		liked, found = p.LikedByViewer, true
		return p
	})
	return liked, found
}

// setLike returns a photo with the viewer's like set to liked. count < 0
// adjusts the count by one; otherwise count is taken as authoritative.
func setLike(p dto.PhotoResponse, viewer dto.UserRef, liked bool, count int) dto.PhotoResponse {
	if p.LikedByViewer != liked {
		if count < 0 {
			if liked {
				p.LikeCount++
			} else if p.LikeCount > 0 {
				p.LikeCount--
			}
		}
		likes := make([]dto.UserRef, 0, len(p.Likes)+1)
		for _, u := range p.Likes {
			if u.ID != viewer.ID {
				likes = append(likes, u)
			}
		}
		if liked {
			likes = append(likes, viewer)
		}
		p.Likes = likes
		p.LikedByViewer = liked
	}
	if count >= 0 {
		p.LikeCount = count
	}
	return p
}
