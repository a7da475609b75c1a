package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/middleware"
)

// UserController serves user profiles and per-user listings
type UserController struct {
	queries *services.QueryService
	gateway *services.MutationGateway
	auth    *AuthController
	logger  zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(queries *services.QueryService, gateway *services.MutationGateway, auth *AuthController, logger zerolog.Logger) *UserController {
	return &UserController{
		queries: queries,
		gateway: gateway,
		auth:    auth,
		logger:  logger,
	}
}

// ListUsers returns every user with their last activity
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.queries.ListUsersWithSummary(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: users})
}

// GetUser returns one user
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.queries.GetUserDetail(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: user})
}

// GetUserPhotos returns the user's photos visible to the caller
func (c *UserController) GetUserPhotos(ctx *gin.Context) {
	photos, err := c.queries.ListPhotosFor(ctx.Request.Context(), ctx.Param("id"), middleware.ViewerID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: photos})
}

// GetUserStats returns most-recent and most-commented photo
func (c *UserController) GetUserStats(ctx *gin.Context) {
	stats, err := c.queries.GetUserStats(ctx.Request.Context(), ctx.Param("id"), middleware.ViewerID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: stats})
}

// GetUserComments returns the user's comments on photos visible to the caller
func (c *UserController) GetUserComments(ctx *gin.Context) {
	comments, err := c.queries.ListCommentsAuthoredBy(ctx.Request.Context(), ctx.Param("id"), middleware.ViewerID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: comments})
}

// DeleteMe deletes the caller's account and everything it owns
func (c *UserController) DeleteMe(ctx *gin.Context) {
	userID := middleware.ViewerID(ctx)
	if err := c.gateway.DeleteAccount(ctx.Request.Context()); err != nil {
		c.logger.Error().Err(err).Str("userID", userID).Msg("Failed to delete account")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.auth.setCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.SuccessResponse{Message: "Account deleted"},
	})
}
