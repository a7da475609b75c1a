package models

import (
	"slices"
	"time"
)

// VisibilityScope controls which viewers may read a photo and its comments.
// An empty AllowedViewers set means the photo is public.
type VisibilityScope struct {
	AllowedViewers []string `json:"allowedViewers,omitempty"`
}

// PublicScope returns the unrestricted scope
func PublicScope() VisibilityScope {
	return VisibilityScope{}
}

// RestrictedScope returns a scope limited to the given viewers (plus the owner).
func RestrictedScope(viewerIDs ...string) VisibilityScope {
	return VisibilityScope{AllowedViewers: dedupe(viewerIDs)}
}

// IsPublic reports whether the scope places no restriction on viewers.
func (s VisibilityScope) IsPublic() bool {
	return len(s.AllowedViewers) == 0
}

// Allows reports whether viewerID is in the allowed set.
func (s VisibilityScope) Allows(viewerID string) bool {
	return slices.Contains(s.AllowedViewers, viewerID)
}

// Widen returns a copy of the scope with extra viewers added. A public scope
// stays public.
func (s VisibilityScope) Widen(viewerIDs ...string) VisibilityScope {
	if s.IsPublic() {
		return s
	}
	merged := append(slices.Clone(s.AllowedViewers), viewerIDs...)
	return VisibilityScope{AllowedViewers: dedupe(merged)}
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Photo defines the photo document: metadata plus its like-set and comments
type Photo struct {
	ID         string          `json:"id" db:"id"`
	OwnerID    string          `json:"ownerId" db:"owner_id"`
	ContentRef string          `json:"contentRef" db:"content_ref"`
	FileName   string          `json:"fileName" db:"file_name"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	Visibility VisibilityScope `json:"visibility"`
	// Likes holds user ids, each at most once
	Likes []string `json:"likes"`
	// Comments are kept in creation order
	Comments []Comment `json:"comments"`
}

// LikedBy reports whether userID is in the like-set
func (p *Photo) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// Comment defines a comment attached to a photo
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PhotoID   string    `json:"photoId" db:"photo_id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// LikeResult is the authoritative like state after a toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}
