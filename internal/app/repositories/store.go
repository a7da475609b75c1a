package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models"
)

// Store is the document-level access layer. Every method is one logical
// transaction; mutations never leave partially applied state behind.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByLoginName(ctx context.Context, loginName string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	// DeleteUser runs the account cascade and returns the content references
	// of the deleted photos so the caller can remove the artifacts.
	DeleteUser(ctx context.Context, userID string) ([]string, error)

	// Photos
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	GetPhoto(ctx context.Context, id string) (*models.Photo, error)
	ListPhotosByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error)
	ListPhotosCommentedBy(ctx context.Context, authorID string) ([]*models.Photo, error)
	// DeletePhoto checks ownership, removes the photo with its comments and
	// likes, and returns the content reference.
	DeletePhoto(ctx context.Context, photoID, requesterID string) (string, error)

	// Likes and comments
	ToggleLike(ctx context.Context, photoID, userID string) (models.LikeResult, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, commentID, photoID, requesterID string) error

	// Activity log
	AppendActivity(ctx context.Context, activity *models.Activity) error
	RecentActivities(ctx context.Context, limit int) ([]*models.Activity, error)
	LatestActivityByUser(ctx context.Context) (map[string]*models.Activity, error)

	// Sessions
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string) error
	RevokeUserSessions(ctx context.Context, userID string) error
}

// Querier is implemented by *pgxpool.Pool and pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	db     DB
	sb     squirrel.StatementBuilderType
	logger zerolog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db DB, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
	}
}

// withTx runs fn in a transaction. fn's error rolls back; a panic rolls back
// and re-panics.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// exec builds and runs a statement
func exec(ctx context.Context, q Querier, b squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("error building SQL: %w", err)
	}
	return q.Exec(ctx, sql, args...)
}

// query builds and runs a row-returning statement
func query(ctx context.Context, q Querier, b squirrel.Sqlizer) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return q.Query(ctx, sql, args...)
}

// queryRow builds and runs a single-row statement
func queryRow(ctx context.Context, q Querier, b squirrel.Sqlizer) (pgx.Row, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return q.QueryRow(ctx, sql, args...), nil
}
