package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// ToggleLike adds userID to the photo's like-set, or removes it when already
// present. Only the (photo, user) row is touched, so concurrent toggles by
// different users never overwrite each other.
func (s *PostgresStore) ToggleLike(ctx context.Context, photoID, userID string) (models.LikeResult, error) {
	var result models.LikeResult

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		// FOR SHARE keeps the photo from being deleted under us without
		// serializing likers against each other.
		row, err := queryRow(ctx, tx, s.sb.Select("1").From("photos").
			Where(squirrel.Eq{"id": photoID}).Suffix("FOR SHARE"))
		if err != nil {
			return err
		}
		var one int
		if err := row.Scan(&one); err != nil {
			return mapError(err, "lock photo", apperrors.ErrPhotoNotFound)
		}

		tag, err := exec(ctx, tx, s.sb.Delete("photo_likes").
			Where(squirrel.Eq{"photo_id": photoID, "user_id": userID}))
		if err != nil {
			return mapError(err, "unlike photo", apperrors.ErrPhotoNotFound)
		}

		if tag.RowsAffected() == 0 {
			_, err := exec(ctx, tx, s.sb.Insert("photo_likes").
				Columns("photo_id", "user_id", "created_at").
				Values(photoID, userID, time.Now().UTC()).
				Suffix("ON CONFLICT DO NOTHING"))
			if err != nil {
				return mapError(err, "like photo", apperrors.ErrPhotoNotFound)
			}
			result.Liked = true
		}

		countRow, err := queryRow(ctx, tx, s.sb.Select("COUNT(*)").From("photo_likes").
			Where(squirrel.Eq{"photo_id": photoID}))
		if err != nil {
			return err
		}
		if err := countRow.Scan(&result.LikeCount); err != nil {
			return mapError(err, "count likes", apperrors.ErrPhotoNotFound)
		}
		return nil
	})
	if err != nil {
		return models.LikeResult{}, err
	}
	return result, nil
}
