package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/repositories"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/internal/pkg/auth"
)

// SessionManager issues and resolves viewer sessions. A token is only a
// pointer to a session row; revoking the row ends the session even while the
// token is still unexpired.
type SessionManager struct {
	store  repositories.Store
	jwt    *auth.JWTService
	logger zerolog.Logger
	now    func() time.Time
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(store repositories.Store, jwt *auth.JWTService, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		store:  store,
		jwt:    jwt,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a session for userID and returns its signed token
func (m *SessionManager) Issue(ctx context.Context, userID string) (string, *models.Session, error) {
	now := m.now()
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: m.jwt.SessionExpiry(now),
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return "", nil, err
	}

	token, err := m.jwt.GenerateSessionToken(session)
	if err != nil {
		return "", nil, apperrors.Internal("issue session", err)
	}
	return token, session, nil
}

// Resolve turns a token into the viewer it authenticates
func (m *SessionManager) Resolve(ctx context.Context, token string) (authz.Viewer, error) {
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return authz.Viewer{}, apperrors.ErrSessionExpired
		}
		return authz.Viewer{}, apperrors.NewUnauthorizedError("invalid session token")
	}

	session, err := m.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrUnauthorized) {
			return authz.Viewer{}, apperrors.ErrSessionNotFound
		}
		return authz.Viewer{}, err
	}
	if session.UserID != claims.UserID {
		return authz.Viewer{}, apperrors.NewUnauthorizedError("session does not match token")
	}
	if session.Revoked {
		return authz.Viewer{}, apperrors.ErrSessionRevoked
	}
	if !session.Active(m.now()) {
		return authz.Viewer{}, apperrors.ErrSessionExpired
	}

	return authz.Viewer{UserID: session.UserID, SessionID: session.ID}, nil
}

// Revoke ends one session
func (m *SessionManager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.RevokeSession(ctx, sessionID)
}
