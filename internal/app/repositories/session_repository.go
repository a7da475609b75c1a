package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// CreateSession stores a new session
func (s *PostgresStore) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := exec(ctx, s.db, s.sb.Insert("sessions").
		Columns("id", "user_id", "created_at", "expires_at", "revoked").
		Values(session.ID, session.UserID, session.CreatedAt, session.ExpiresAt, session.Revoked))
	if err != nil {
		return mapError(err, "create session", apperrors.ErrUserNotFound)
	}
	return nil
}

// GetSession retrieves a session by id, revoked or not
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row, err := queryRow(ctx, s.db, s.sb.Select("id", "user_id", "created_at", "expires_at", "revoked").
		From("sessions").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	sess := &models.Session{}
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt, &sess.Revoked); err != nil {
		return nil, mapError(err, "get session", apperrors.ErrSessionNotFound)
	}
	return sess, nil
}

// RevokeSession marks one session revoked
func (s *PostgresStore) RevokeSession(ctx context.Context, id string) error {
	tag, err := exec(ctx, s.db, s.sb.Update("sessions").Set("revoked", true).Where(squirrel.Eq{"id": id}))
	if err != nil {
		return mapError(err, "revoke session", apperrors.ErrSessionNotFound)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// RevokeUserSessions marks every session of userID revoked
func (s *PostgresStore) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := exec(ctx, s.db, s.sb.Update("sessions").Set("revoked", true).Where(squirrel.Eq{"user_id": userID}))
	if err != nil {
		return mapError(err, "revoke user sessions", apperrors.ErrSessionNotFound)
	}
	return nil
}
