package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/internal/pkg/auth"
)

// SessionCookie is the cookie carrying the session token
const SessionCookie = "session"

// SessionResolver turns a session token into a viewer
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (authz.Viewer, error)
}

// AuthMiddleware for authentication
type AuthMiddleware struct {
	sessions SessionResolver
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// tokenFrom reads the token from the session cookie, falling back to the
// Authorization header
func tokenFrom(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return auth.ExtractBearerToken(c.GetHeader("Authorization"))
}

// JWTAuth rejects requests without a live session
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := tokenFrom(c)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Session token missing")

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		viewer, err := m.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		setViewer(c, viewer)
		c.Next()
	}
}

// OptionalAuth attaches the viewer when a valid session is presented and
// otherwise lets the request through anonymously
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := tokenFrom(c); err == nil {
			if viewer, err := m.sessions.Resolve(c.Request.Context(), token); err == nil {
				setViewer(c, viewer)
			}
		}
		c.Next()
	}
}

func setViewer(c *gin.Context, viewer authz.Viewer) {
	c.Request = c.Request.WithContext(authz.WithViewer(c.Request.Context(), viewer))
	c.Set("userID", viewer.UserID)
	c.Set("sessionID", viewer.SessionID)
}

func abortUnauthorized(c *gin.Context, err error) {
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		HandleAPIError(c, err)
		c.Abort()
		return
	}

	errorCode := dto.ErrorCodeInvalidToken
	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		errorCode = dto.ErrorCodeExpiredToken
	case errors.Is(err, apperrors.ErrSessionNotFound):
		errorCode = dto.ErrorCodeTokenNotFound
	}

	errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed")
	errorDetail = errorDetail.WithDetails(err.Error())
	errorDetail = errorDetail.WithSeverity(dto.ErrorSeverityError)

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// ViewerID returns the authenticated user id of the request, or ""
func ViewerID(c *gin.Context) string {
	return authz.ViewerID(c.Request.Context())
}
