package services

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/repositories"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

const (
	// DefaultActivityLimit is the feed length when none is requested
	DefaultActivityLimit = 5
	// MaxActivityLimit caps a requested feed length
	MaxActivityLimit = 50
)

// QueryService is the viewer-scoped read model. Photo visibility is checked
// on every read; comments inherit it from their photo.
type QueryService struct {
	store        repositories.Store
	urlFor       func(string) string
	defaultLimit int
	logger       zerolog.Logger
}

// NewQueryService creates a new QueryService. urlFor resolves content
// references; defaultLimit is the activity feed length (DefaultActivityLimit
// when not positive).
func NewQueryService(store repositories.Store, urlFor func(string) string, defaultLimit int, logger zerolog.Logger) *QueryService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultActivityLimit
	}
	return &QueryService{
		store:        store,
		urlFor:       urlFor,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// directory resolves author and liker display data
type directory map[string]*models.User

func (d directory) ref(id string) dto.UserRef {
	if u, ok := d[id]; ok {
		return dto.NewUserRef(u)
	}
	return dto.UserRef{ID: id}
}

func (s *QueryService) loadDirectory(ctx context.Context) (directory, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(directory, len(users))
	for _, u := range users {
		dir[u.ID] = u
	}
	return dir, nil
}

// ListUsersWithSummary returns every user with their most recent activity
func (s *QueryService) ListUsersWithSummary(ctx context.Context) ([]dto.UserSummaryResponse, error) {
	var (
		users  []*models.User
		latest map[string]*models.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.store.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.store.LatestActivityByUser(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]dto.UserSummaryResponse, 0, len(users))
	for _, u := range users {
		summary := dto.UserSummaryResponse{UserResponse: dto.NewUserResponse(u)}
		if a, ok := latest[u.ID]; ok {
			resp := dto.NewActivityResponse(a, s.urlFor)
			summary.LastActivity = &resp
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetUserDetail returns one user
func (s *QueryService) GetUserDetail(ctx context.Context, userID string) (*dto.UserResponse, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(u)
	return &resp, nil
}

// ownerPhotos loads a user's photos visible to viewerID, with the directory
// needed to render them
func (s *QueryService) ownerPhotos(ctx context.Context, userID, viewerID string) ([]*models.Photo, directory, error) {
	var (
		photos []*models.Photo
		dir    directory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dir, err = s.loadDirectory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = s.store.ListPhotosByOwner(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if _, ok := dir[userID]; !ok {
		return nil, nil, apperrors.ErrUserNotFound
	}
	return authz.FilterVisible(viewerID, photos), dir, nil
}

// ListPhotosFor returns userID's photos that viewerID can see, oldest first
func (s *QueryService) ListPhotosFor(ctx context.Context, userID, viewerID string) ([]dto.PhotoResponse, error) {
	photos, dir, err := s.ownerPhotos(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, s.photoResponse(p, viewerID, dir))
	}
	return out, nil
}

// GetPhoto returns one photo. A photo the viewer may not see is reported as
// not found.
func (s *QueryService) GetPhoto(ctx context.Context, photoID, viewerID string) (*dto.PhotoResponse, error) {
	photo, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(viewerID, photo) {
		return nil, apperrors.ErrPhotoNotFound
	}

	dir, err := s.loadDirectory(ctx)
	if err != nil {
		return nil, err
	}
	resp := s.photoResponse(photo, viewerID, dir)
	return &resp, nil
}

// GetUserStats reports the most recent and the most commented of userID's
// visible photos. Ties go to the photo created first.
func (s *QueryService) GetUserStats(ctx context.Context, userID, viewerID string) (*dto.UserStatsResponse, error) {
	photos, dir, err := s.ownerPhotos(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}

	stats := &dto.UserStatsResponse{UserID: userID, PhotoCount: len(photos)}
	var recent, commented *models.Photo
	for _, p := range photos {
		if recent == nil || p.CreatedAt.After(recent.CreatedAt) {
			recent = p
		}
		if commented == nil || len(p.Comments) > len(commented.Comments) {
			commented = p
		}
	}
	if recent != nil {
		resp := s.photoResponse(recent, viewerID, dir)
		stats.MostRecentPhoto = &resp
	}
	if commented != nil {
		resp := s.photoResponse(commented, viewerID, dir)
		stats.MostCommentedPhoto = &resp
	}
	return stats, nil
}

// ListCommentsAuthoredBy returns userID's comments on photos viewerID can see
func (s *QueryService) ListCommentsAuthoredBy(ctx context.Context, userID, viewerID string) ([]dto.CommentResponse, error) {
	var (
		photos []*models.Photo
		dir    directory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dir, err = s.loadDirectory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = s.store.ListPhotosCommentedBy(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if _, ok := dir[userID]; !ok {
		return nil, apperrors.ErrUserNotFound
	}

	out := []dto.CommentResponse{}
	for _, p := range authz.FilterVisible(viewerID, photos) {
		for _, c := range p.Comments {
			if c.AuthorID != userID {
				continue
			}
			resp := s.commentResponse(c, dir)
			resp.PhotoOwnerID = p.OwnerID
			resp.PhotoURL = s.url(p.ContentRef)
			out = append(out, resp)
		}
	}
	return out, nil
}

// GetRecentActivity returns the newest activities. A non-positive limit
// selects the default; larger ones are capped at MaxActivityLimit.
func (s *QueryService) GetRecentActivity(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	activities, err := s.store.RecentActivities(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, dto.NewActivityResponse(a, s.urlFor))
	}
	return out, nil
}

func (s *QueryService) url(ref string) string {
	if s.urlFor == nil || ref == "" {
		return ""
	}
	return s.urlFor(ref)
}

// RenderPhoto builds the response for a photo document already in hand.
// Likers and commenters are given by id only.
func (s *QueryService) RenderPhoto(p *models.Photo, viewerID string) dto.PhotoResponse {
	return s.photoResponse(p, viewerID, directory{})
}

func (s *QueryService) photoResponse(p *models.Photo, viewerID string, dir directory) dto.PhotoResponse {
	resp := dto.PhotoResponse{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		FileName:      p.FileName,
		URL:           s.url(p.ContentRef),
		CreatedAt:     p.CreatedAt,
		LikeCount:     len(p.Likes),
		LikedByViewer: viewerID != "" && p.LikedBy(viewerID),
		Likes:         make([]dto.UserRef, 0, len(p.Likes)),
		Comments:      make([]dto.CommentResponse, 0, len(p.Comments)),
	}
	// Only the owner learns who else a photo is shared with.
	if authz.IsOwner(viewerID, p) {
		resp.SharedWith = p.Visibility.AllowedViewers
	}
	for _, id := range p.Likes {
		resp.Likes = append(resp.Likes, dir.ref(id))
	}
	for _, c := range p.Comments {
		resp.Comments = append(resp.Comments, s.commentResponse(c, dir))
	}
	return resp
}

func (s *QueryService) commentResponse(c models.Comment, dir directory) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        c.ID,
		PhotoID:   c.PhotoID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Author:    dir.ref(c.AuthorID),
	}
}
