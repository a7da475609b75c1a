package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

var activityColumns = []string{
	"id", "type", "actor_id", "actor_first_name", "actor_last_name",
	"photo_id", "photo_owner_id", "content_ref", "file_name", "created_at",
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	a := &models.Activity{}
	err := row.Scan(
		&a.ID, &a.Type, &a.ActorID, &a.ActorFirstName, &a.ActorLastName,
		&a.PhotoID, &a.PhotoOwnerID, &a.ContentRef, &a.FileName, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AppendActivity adds an entry to the activity log
func (s *PostgresStore) AppendActivity(ctx context.Context, a *models.Activity) error {
	_, err := exec(ctx, s.db, s.sb.Insert("activities").
		Columns(activityColumns...).
		Values(
			a.ID, string(a.Type), a.ActorID, a.ActorFirstName, a.ActorLastName,
			a.PhotoID, a.PhotoOwnerID, a.ContentRef, a.FileName, a.CreatedAt,
		))
	if err != nil {
		return mapError(err, "append activity", apperrors.NewNotFoundError("activity not found"))
	}
	return nil
}

// RecentActivities returns the newest limit entries, newest first. Entries
// with equal timestamps come out in reverse insertion order.
func (s *PostgresStore) RecentActivities(ctx context.Context, limit int) ([]*models.Activity, error) {
	return s.listActivities(ctx, s.sb.Select(activityColumns...).From("activities").
		OrderBy("created_at DESC", "seq DESC").
		Limit(uint64(limit)))
}

// LatestActivityByUser returns each actor's most recent activity
func (s *PostgresStore) LatestActivityByUser(ctx context.Context) (map[string]*models.Activity, error) {
	list, err := s.listActivities(ctx, s.sb.Select(activityColumns...).
		Options("DISTINCT ON (actor_id)").
		From("activities").
		OrderBy("actor_id", "created_at DESC", "seq DESC"))
	if err != nil {
		return nil, err
	}
	latest := make(map[string]*models.Activity, len(list))
	for _, a := range list {
		latest[a.ActorID] = a
	}
	return latest, nil
}

func (s *PostgresStore) listActivities(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Activity, error) {
	rows, err := query(ctx, s.db, b)
	if err != nil {
		return nil, mapError(err, "list activities", apperrors.NewNotFoundError("activity not found"))
	}
	defer rows.Close()

	var list []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning activity: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return list, nil
}
