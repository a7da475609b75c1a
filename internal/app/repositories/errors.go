package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/internal/pkg/dberrors"
)

const loginNameConstraint = "users_login_name_key"

// mapError converts pgx/pgconn errors to apperrors. notFound is returned for
// missing rows and foreign key violations. Context errors pass through.
func mapError(err error, op string, notFound error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	switch dberrors.Code(err) {
	case dberrors.UniqueViolation:
		if dberrors.IsDuplicateConstraintError(err, loginNameConstraint) {
			return apperrors.ErrLoginNameTaken
		}
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	case dberrors.ForeignKeyViolation:
		return notFound
	case dberrors.CheckViolation:
		return fmt.Errorf("%s: %w", op, apperrors.ErrInvalidInput)
	}

	return fmt.Errorf("%s: %w", op, err)
}
