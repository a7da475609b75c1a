package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

var photoColumns = []string{"id", "owner_id", "content_ref", "file_name", "created_at"}

// CreatePhoto inserts the photo and its allowed-viewer rows
func (s *PostgresStore) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := exec(ctx, tx, s.sb.Insert("photos").
			Columns(photoColumns...).
			Values(photo.ID, photo.OwnerID, photo.ContentRef, photo.FileName, photo.CreatedAt))
		if err != nil {
			return mapError(err, "create photo", apperrors.ErrUserNotFound)
		}

		if photo.Visibility.IsPublic() {
			return nil
		}
		ins := s.sb.Insert("photo_viewers").Columns("photo_id", "viewer_id")
		for _, v := range photo.Visibility.AllowedViewers {
			ins = ins.Values(photo.ID, v)
		}
		if _, err := exec(ctx, tx, ins); err != nil {
			return mapError(err, "create photo viewers", apperrors.ErrPhotoNotFound)
		}
		return nil
	})
}

// GetPhoto retrieves a photo with its viewers, likes and comments
func (s *PostgresStore) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	photos, err := s.listPhotos(ctx, s.sb.Select(photoColumns...).From("photos").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, apperrors.ErrPhotoNotFound
	}
	return photos[0], nil
}

// ListPhotosByOwner returns the owner's photos in creation order
func (s *PostgresStore) ListPhotosByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	return s.listPhotos(ctx, s.sb.Select(photoColumns...).From("photos").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at", "seq"))
}

// ListPhotosCommentedBy returns, in creation order, every photo carrying at
// least one comment by authorID. Each photo comes with all of its comments.
func (s *PostgresStore) ListPhotosCommentedBy(ctx context.Context, authorID string) ([]*models.Photo, error) {
	return s.listPhotos(ctx, s.sb.Select(photoColumns...).From("photos").
		Where(squirrel.Expr("EXISTS (SELECT 1 FROM comments c WHERE c.photo_id = photos.id AND c.author_id = ?)", authorID)).
		OrderBy("created_at", "seq"))
}

func (s *PostgresStore) listPhotos(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Photo, error) {
	rows, err := query(ctx, s.db, b)
	if err != nil {
		return nil, mapError(err, "list photos", apperrors.ErrPhotoNotFound)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		p := &models.Photo{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.ContentRef, &p.FileName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	if len(photos) == 0 {
		return photos, nil
	}
	if err := s.loadRelations(ctx, photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// loadRelations fills viewers, likes and comments for a batch of photos
func (s *PostgresStore) loadRelations(ctx context.Context, photos []*models.Photo) error {
	ids := make([]string, len(photos))
	byID := make(map[string]*models.Photo, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	viewerRows, err := query(ctx, s.db, s.sb.Select("photo_id", "viewer_id").From("photo_viewers").
		Where(squirrel.Eq{"photo_id": ids}).OrderBy("photo_id", "viewer_id"))
	if err != nil {
		return mapError(err, "load viewers", apperrors.ErrPhotoNotFound)
	}
	err = eachPair(viewerRows, func(photoID, viewerID string) {
		p := byID[photoID]
		p.Visibility.AllowedViewers = append(p.Visibility.AllowedViewers, viewerID)
	})
	if err != nil {
		return fmt.Errorf("error reading viewers: %w", err)
	}

	likeRows, err := query(ctx, s.db, s.sb.Select("photo_id", "user_id").From("photo_likes").
		Where(squirrel.Eq{"photo_id": ids}).OrderBy("created_at", "user_id"))
	if err != nil {
		return mapError(err, "load likes", apperrors.ErrPhotoNotFound)
	}
	err = eachPair(likeRows, func(photoID, userID string) {
		p := byID[photoID]
		p.Likes = append(p.Likes, userID)
	})
	if err != nil {
		return fmt.Errorf("error reading likes: %w", err)
	}

	commentRows, err := query(ctx, s.db, s.sb.Select(commentColumns...).From("comments").
		Where(squirrel.Eq{"photo_id": ids}).OrderBy("seq"))
	if err != nil {
		return mapError(err, "load comments", apperrors.ErrPhotoNotFound)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		c, err := scanComment(commentRows)
		if err != nil {
			return fmt.Errorf("error scanning comment: %w", err)
		}
		if p, ok := byID[c.PhotoID]; ok {
			p.Comments = append(p.Comments, *c)
		}
	}
	return commentRows.Err()
}

func eachPair(rows pgx.Rows, fn func(a, b string)) error {
	defer rows.Close()
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		fn(a, b)
	}
	return rows.Err()
}

// DeletePhoto removes a photo owned by requesterID with its comments, likes
// and viewer rows, returning the content reference for artifact cleanup.
func (s *PostgresStore) DeletePhoto(ctx context.Context, photoID, requesterID string) (string, error) {
	var contentRef string

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row, err := queryRow(ctx, tx, s.sb.Select("owner_id", "content_ref").From("photos").
			Where(squirrel.Eq{"id": photoID}).Suffix("FOR UPDATE"))
		if err != nil {
			return err
		}
		var ownerID string
		if err := row.Scan(&ownerID, &contentRef); err != nil {
			return mapError(err, "lock photo", apperrors.ErrPhotoNotFound)
		}
		if ownerID != requesterID {
			return apperrors.NewForbiddenError("only the owner can delete this photo")
		}

		for _, table := range []string{"comments", "photo_likes", "photo_viewers"} {
			if _, err := exec(ctx, tx, s.sb.Delete(table).Where(squirrel.Eq{"photo_id": photoID})); err != nil {
				return mapError(err, "delete "+table, apperrors.ErrPhotoNotFound)
			}
		}
		if _, err := exec(ctx, tx, s.sb.Delete("photos").Where(squirrel.Eq{"id": photoID})); err != nil {
			return mapError(err, "delete photo", apperrors.ErrPhotoNotFound)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return contentRef, nil
}
