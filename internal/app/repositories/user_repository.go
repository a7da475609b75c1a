package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

var userColumns = []string{
	"id", "login_name", "password_hash", "first_name", "last_name",
	"location", "description", "occupation", "created_at",
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.LoginName, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Location, &u.Description, &u.Occupation, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user. A taken login name yields ErrLoginNameTaken.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := exec(ctx, s.db, s.sb.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.LoginName, user.PasswordHash, user.FirstName, user.LastName,
			user.Location, user.Description, user.Occupation, user.CreatedAt,
		))
	if err != nil {
		return mapError(err, "create user", apperrors.ErrUserNotFound)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, squirrel.Eq{"id": id})
}

// GetUserByLoginName retrieves a user by login name
func (s *PostgresStore) GetUserByLoginName(ctx context.Context, loginName string) (*models.User, error) {
	return s.getUser(ctx, squirrel.Eq{"login_name": loginName})
}

func (s *PostgresStore) getUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	row, err := queryRow(ctx, s.db, s.sb.Select(userColumns...).From("users").Where(where))
	if err != nil {
		return nil, err
	}
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, "get user", apperrors.ErrUserNotFound)
	}
	return u, nil
}

// ListUsers returns all users in registration order
func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := query(ctx, s.db, s.sb.Select(userColumns...).From("users").OrderBy("created_at", "login_name"))
	if err != nil {
		return nil, mapError(err, "list users", apperrors.ErrUserNotFound)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user and everything hanging off the account, in one
// transaction, in this order:
//  1. claim the content references of owned photos
//  2. delete comments written by the user and comments on owned photos
//  3. delete the user's likes and likes on owned photos
//  4. delete owned photos and the user row
//  5. revoke every session of the user
//
// Allowed-viewer rows naming the user on other people's photos are kept so
// that those photos never fall back to public.
func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) ([]string, error) {
	var refs []string

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row, err := queryRow(ctx, tx, s.sb.Select("1").From("users").Where(squirrel.Eq{"id": userID}).Suffix("FOR UPDATE"))
		if err != nil {
			return err
		}
		var one int
		if err := row.Scan(&one); err != nil {
			return mapError(err, "lock user", apperrors.ErrUserNotFound)
		}

		// 1. claim artifacts
		rows, err := query(ctx, tx, s.sb.Select("content_ref").From("photos").
			Where(squirrel.Eq{"owner_id": userID}).OrderBy("created_at", "seq"))
		if err != nil {
			return mapError(err, "claim artifacts", apperrors.ErrUserNotFound)
		}
		for rows.Next() {
			var ref string
			if err := rows.Scan(&ref); err != nil {
				rows.Close()
				return fmt.Errorf("error scanning content ref: %w", err)
			}
			refs = append(refs, ref)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating content refs: %w", err)
		}

		// 2-4
		steps := []struct {
			op string
			b  squirrel.Sqlizer
		}{
			{"delete comments", s.sb.Delete("comments").Where(squirrel.Or{
				squirrel.Eq{"author_id": userID},
				squirrel.Expr("photo_id IN (SELECT id FROM photos WHERE owner_id = ?)", userID),
			})},
			{"delete likes", s.sb.Delete("photo_likes").Where(squirrel.Or{
				squirrel.Eq{"user_id": userID},
				squirrel.Expr("photo_id IN (SELECT id FROM photos WHERE owner_id = ?)", userID),
			})},
			{"delete viewers", s.sb.Delete("photo_viewers").Where(
				squirrel.Expr("photo_id IN (SELECT id FROM photos WHERE owner_id = ?)", userID),
			)},
			{"delete photos", s.sb.Delete("photos").Where(squirrel.Eq{"owner_id": userID})},
			{"delete user", s.sb.Delete("users").Where(squirrel.Eq{"id": userID})},
			// 5
			{"revoke sessions", s.sb.Update("sessions").Set("revoked", true).Where(squirrel.Eq{"user_id": userID})},
		}
		for _, step := range steps {
			if _, err := exec(ctx, tx, step.b); err != nil {
				return mapError(err, step.op, apperrors.ErrUserNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}
