// Package memstore is an in-process implementation of repositories.Store.
// It backs the "memory" database driver and the service tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/repositories"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// Store keeps every document in memory behind one lock. Reads return copies.
type Store struct {
	mu sync.RWMutex

	users      map[string]*models.User
	userOrder  []string
	photos     map[string]*models.Photo
	photoOrder []string
	activities []*models.Activity
	sessions   map[string]*models.Session
}

var _ repositories.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		photos:   make(map[string]*models.Photo),
		sessions: make(map[string]*models.Session),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyPhoto(p *models.Photo) *models.Photo {
	c := *p
	c.Visibility.AllowedViewers = slices.Clone(p.Visibility.AllowedViewers)
	c.Likes = slices.Clone(p.Likes)
	c.Comments = slices.Clone(p.Comments)
	return &c
}

// CreateUser inserts a new user
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return apperrors.NewConflictError("user id already exists")
	}
	for _, u := range s.users {
		if u.LoginName == user.LoginName {
			return apperrors.ErrLoginNameTaken
		}
	}
	s.users[user.ID] = copyUser(user)
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

// GetUserByLoginName retrieves a user by login name
func (s *Store) GetUserByLoginName(_ context.Context, loginName string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.LoginName == loginName {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// ListUsers returns all users in registration order
func (s *Store) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, copyUser(s.users[id]))
	}
	return users, nil
}

// DeleteUser runs the account cascade under the write lock, so no reader
// can observe it half done. Allowed-viewer entries naming the user are kept.
func (s *Store) DeleteUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, apperrors.ErrUserNotFound
	}

	// 1. claim artifacts
	var refs []string
	for _, id := range s.photoOrder {
		if p := s.photos[id]; p.OwnerID == userID {
			refs = append(refs, p.ContentRef)
		}
	}

	for _, p := range s.photos {
		// 2. comments by the user on any photo
		p.Comments = slices.DeleteFunc(p.Comments, func(c models.Comment) bool {
			return c.AuthorID == userID
		})
		// 3. like-set membership
		p.Likes = slices.DeleteFunc(p.Likes, func(id string) bool {
			return id == userID
		})
	}

	// 4. owned photos (with their remaining comments and likes) and the user
	s.photoOrder = slices.DeleteFunc(s.photoOrder, func(id string) bool {
		if s.photos[id].OwnerID == userID {
			delete(s.photos, id)
			return true
		}
		return false
	})
	delete(s.users, userID)
	s.userOrder = slices.DeleteFunc(s.userOrder, func(id string) bool { return id == userID })

	// 5. sessions
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			sess.Revoked = true
		}
	}
	return refs, nil
}

// CreatePhoto inserts a photo. The owner must exist.
func (s *Store) CreatePhoto(_ context.Context, photo *models.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[photo.OwnerID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if _, ok := s.photos[photo.ID]; ok {
		return apperrors.NewConflictError("photo id already exists")
	}
	p := copyPhoto(photo)
	p.Likes = nil
	p.Comments = nil
	s.photos[p.ID] = p
	s.photoOrder = append(s.photoOrder, p.ID)
	return nil
}

// GetPhoto retrieves a photo with its likes and comments
func (s *Store) GetPhoto(_ context.Context, id string) (*models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.photos[id]
	if !ok {
		return nil, apperrors.ErrPhotoNotFound
	}
	return copyPhoto(p), nil
}

// ListPhotosByOwner returns the owner's photos in creation order
func (s *Store) ListPhotosByOwner(_ context.Context, ownerID string) ([]*models.Photo, error) {
	return s.selectPhotos(func(p *models.Photo) bool { return p.OwnerID == ownerID }), nil
}

// ListPhotosCommentedBy returns photos carrying a comment by authorID
func (s *Store) ListPhotosCommentedBy(_ context.Context, authorID string) ([]*models.Photo, error) {
	return s.selectPhotos(func(p *models.Photo) bool {
		return slices.ContainsFunc(p.Comments, func(c models.Comment) bool { return c.AuthorID == authorID })
	}), nil
}

func (s *Store) selectPhotos(keep func(*models.Photo) bool) []*models.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Photo
	for _, id := range s.photoOrder {
		if p := s.photos[id]; keep(p) {
			out = append(out, copyPhoto(p))
		}
	}
	// insertion order breaks timestamp ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// DeletePhoto removes a photo owned by requesterID
func (s *Store) DeletePhoto(_ context.Context, photoID, requesterID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[photoID]
	if !ok {
		return "", apperrors.ErrPhotoNotFound
	}
	if p.OwnerID != requesterID {
		return "", apperrors.NewForbiddenError("only the owner can delete this photo")
	}
	delete(s.photos, photoID)
	s.photoOrder = slices.DeleteFunc(s.photoOrder, func(id string) bool { return id == photoID })
	return p.ContentRef, nil
}

// ToggleLike adds or removes userID in the photo's like-set
func (s *Store) ToggleLike(_ context.Context, photoID, userID string) (models.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[photoID]
	if !ok {
		return models.LikeResult{}, apperrors.ErrPhotoNotFound
	}

	var liked bool
	if i := slices.Index(p.Likes, userID); i >= 0 {
		p.Likes = slices.Delete(p.Likes, i, i+1)
	} else {
		p.Likes = append(p.Likes, userID)
		liked = true
	}
	return models.LikeResult{Liked: liked, LikeCount: len(p.Likes)}, nil
}

// AddComment appends a comment to its photo
func (s *Store) AddComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[comment.PhotoID]
	if !ok {
		return apperrors.ErrPhotoNotFound
	}
	if _, ok := s.users[comment.AuthorID]; !ok {
		return apperrors.ErrUserNotFound
	}
	p.Comments = append(p.Comments, *comment)
	return nil
}

// DeleteComment removes a comment written by requesterID
func (s *Store) DeleteComment(_ context.Context, commentID, photoID, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[photoID]
	if !ok {
		return apperrors.ErrPhotoNotFound
	}
	i := slices.IndexFunc(p.Comments, func(c models.Comment) bool { return c.ID == commentID })
	if i < 0 {
		return apperrors.ErrCommentNotFound
	}
	if p.Comments[i].AuthorID != requesterID {
		return apperrors.NewForbiddenError("only the author can delete this comment")
	}
	p.Comments = slices.Delete(p.Comments, i, i+1)
	return nil
}

// AppendActivity adds an entry to the activity log
func (s *Store) AppendActivity(_ context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *a
	s.activities = append(s.activities, &c)
	return nil
}

// RecentActivities returns the newest limit entries, newest first, later
// insertions first on equal timestamps.
func (s *Store) RecentActivities(_ context.Context, limit int) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.newestFirst()
	if limit >= 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// LatestActivityByUser returns each actor's most recent activity
func (s *Store) LatestActivityByUser(_ context.Context) (map[string]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]*models.Activity)
	for _, a := range s.newestFirst() {
		if _, ok := latest[a.ActorID]; !ok {
			latest[a.ActorID] = a
		}
	}
	return latest, nil
}

// newestFirst must be called with the lock held
func (s *Store) newestFirst() []*models.Activity {
	list := make([]*models.Activity, 0, len(s.activities))
	for i := len(s.activities) - 1; i >= 0; i-- {
		c := *s.activities[i]
		list = append(list, &c)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// CreateSession stores a new session
func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return apperrors.ErrUserNotFound
	}
	c := *session
	s.sessions[c.ID] = &c
	return nil
}

// GetSession retrieves a session by id
func (s *Store) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

// RevokeSession marks one session revoked
func (s *Store) RevokeSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	sess.Revoked = true
	return nil
}

// RevokeUserSessions marks every session of userID revoked
func (s *Store) RevokeUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.UserID == userID {
			sess.Revoked = true
		}
	}
	return nil
}
