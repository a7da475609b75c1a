// Package client is a Go client for the photoshare API with a per-viewer
// cache that applies like toggles optimistically and reconciles itself from
// server push events.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// API is the subset of the server the cache reads and writes through
type API interface {
	ListUsers(ctx context.Context) ([]dto.UserSummaryResponse, error)
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ListPhotosOfUser(ctx context.Context, userID string) ([]dto.PhotoResponse, error)
	GetPhoto(ctx context.Context, photoID string) (*dto.PhotoResponse, error)
	GetUserStats(ctx context.Context, userID string) (*dto.UserStatsResponse, error)
	ListCommentsByUser(ctx context.Context, userID string) ([]dto.CommentResponse, error)
	RecentActivities(ctx context.Context, limit int) ([]dto.ActivityResponse, error)
	ToggleLike(ctx context.Context, photoID string) (*dto.LikeResponse, error)
}

// APIError is a non-2xx response. It unwraps to the matching apperrors
// sentinel so callers can use errors.Is(err, apperrors.ErrNotFound).
type APIError struct {
	Status  int
	Code    dto.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("photoshare: HTTP %d", e.Status)
	}
	return fmt.Sprintf("photoshare: HTTP %d: %s", e.Status, e.Message)
}

// Unwrap maps the status code back onto the error taxonomy
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	case http.StatusConflict:
		return apperrors.ErrConflict
	default:
		return apperrors.ErrInternal
	}
}

// ErrRolledBack is delivered to like intents queued behind one that failed;
// they never reach the server.
var ErrRolledBack = errors.New("photoshare: like intent rolled back")
