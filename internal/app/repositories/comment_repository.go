package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

var commentColumns = []string{"id", "photo_id", "author_id", "text", "created_at"}

func scanComment(row pgx.Row) (*models.Comment, error) {
	c := &models.Comment{}
	if err := row.Scan(&c.ID, &c.PhotoID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// AddComment appends a comment. The photo must exist.
func (s *PostgresStore) AddComment(ctx context.Context, comment *models.Comment) error {
	_, err := exec(ctx, s.db, s.sb.Insert("comments").
		Columns(commentColumns...).
		Values(comment.ID, comment.PhotoID, comment.AuthorID, comment.Text, comment.CreatedAt))
	if err != nil {
		return mapError(err, "add comment", apperrors.ErrPhotoNotFound)
	}
	return nil
}

// DeleteComment removes a comment written by requesterID
func (s *PostgresStore) DeleteComment(ctx context.Context, commentID, photoID, requesterID string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		row, err := queryRow(ctx, tx, s.sb.Select("author_id").From("comments").
			Where(squirrel.Eq{"id": commentID, "photo_id": photoID}).Suffix("FOR UPDATE"))
		if err != nil {
			return err
		}
		var authorID string
		if err := row.Scan(&authorID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.missingCommentOrPhoto(ctx, tx, photoID)
			}
			return mapError(err, "lock comment", apperrors.ErrCommentNotFound)
		}
		if authorID != requesterID {
			return apperrors.NewForbiddenError("only the author can delete this comment")
		}

		if _, err := exec(ctx, tx, s.sb.Delete("comments").Where(squirrel.Eq{"id": commentID})); err != nil {
			return mapError(err, "delete comment", apperrors.ErrCommentNotFound)
		}
		return nil
	})
}

// missingCommentOrPhoto tells apart an absent photo from an absent comment
func (s *PostgresStore) missingCommentOrPhoto(ctx context.Context, tx pgx.Tx, photoID string) error {
	row, err := queryRow(ctx, tx, s.sb.Select("1").From("photos").Where(squirrel.Eq{"id": photoID}))
	if err != nil {
		return err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		return mapError(err, "check photo", apperrors.ErrPhotoNotFound)
	}
	return apperrors.ErrCommentNotFound
}
