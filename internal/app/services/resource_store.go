package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/repositories"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/internal/pkg/filestorage"
)

// ResourceStore pairs the document store with the content-artifact store.
// Document state is changed atomically by the store; artifact removal
// happens after commit and never fails the operation.
type ResourceStore struct {
	store   repositories.Store
	content filestorage.ContentStore
	logger  zerolog.Logger
	now     func() time.Time
}

// NewResourceStore creates a new ResourceStore
func NewResourceStore(store repositories.Store, content filestorage.ContentStore, logger zerolog.Logger) *ResourceStore {
	return &ResourceStore{
		store:   store,
		content: content,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Documents exposes the underlying store for reads
func (r *ResourceStore) Documents() repositories.Store {
	return r.store
}

// URL resolves a content reference
func (r *ResourceStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return r.content.URL(ref)
}

// CreatePhoto stores the upload and then the photo document. If the document
// cannot be written the stored artifact is removed again.
func (r *ResourceStore) CreatePhoto(ctx context.Context, ownerID string, content io.Reader, filename string, scope models.VisibilityScope) (*models.Photo, error) {
	if content == nil {
		return nil, apperrors.NewInvalidInputError("photo content is required")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, apperrors.NewInvalidInputError("file name is required")
	}

	ref, err := r.content.Store(ctx, content, filename)
	if err != nil {
		return nil, apperrors.Internal("store photo content", err)
	}

	photo := &models.Photo{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		ContentRef: ref,
		FileName:   filename,
		CreatedAt:  r.now(),
		Visibility: scope,
	}
	if err := r.store.CreatePhoto(ctx, photo); err != nil {
		r.removeArtifacts(context.WithoutCancel(ctx), ref)
		return nil, err
	}

	r.logger.Debug().Str("photoID", photo.ID).Str("ownerID", ownerID).Msg("Photo created")
	return photo, nil
}

// ToggleLike flips userID's membership in the like-set
func (r *ResourceStore) ToggleLike(ctx context.Context, photoID, userID string) (models.LikeResult, error) {
	return r.store.ToggleLike(ctx, photoID, userID)
}

// AddComment appends a trimmed, non-empty comment to a photo
func (r *ResourceStore) AddComment(ctx context.Context, photoID, authorID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyComment
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		PhotoID:   photoID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: r.now(),
	}
	if err := r.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment; only its author may do so
func (r *ResourceStore) DeleteComment(ctx context.Context, commentID, photoID, requesterID string) error {
	return r.store.DeleteComment(ctx, commentID, photoID, requesterID)
}

// DeletePhoto removes a photo owned by requesterID, then its artifact
func (r *ResourceStore) DeletePhoto(ctx context.Context, photoID, requesterID string) error {
	ref, err := r.store.DeletePhoto(ctx, photoID, requesterID)
	if err != nil {
		return err
	}
	r.removeArtifacts(context.WithoutCancel(ctx), ref)
	return nil
}

// DeleteUser runs the account cascade. Only the user may delete themself.
func (r *ResourceStore) DeleteUser(ctx context.Context, userID, requesterID string) error {
	if userID != requesterID {
		return apperrors.NewForbiddenError("users can only delete their own account")
	}

	refs, err := r.store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	r.removeArtifacts(context.WithoutCancel(ctx), refs...)

	r.logger.Info().Str("userID", userID).Int("photos", len(refs)).Msg("User deleted")
	return nil
}

func (r *ResourceStore) removeArtifacts(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := r.content.Delete(ctx, ref); err != nil {
			r.logger.Error().Err(err).Str("ref", ref).Msg("Failed to delete photo content")
		}
	}
}
