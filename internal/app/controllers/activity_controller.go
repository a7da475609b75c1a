package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/middleware"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// ActivityController serves the activity feed
type ActivityController struct {
	queries *services.QueryService
}

// NewActivityController creates a new ActivityController
func NewActivityController(queries *services.QueryService) *ActivityController {
	return &ActivityController{queries: queries}
}

// GetRecentActivity returns the newest activities; ?limit= selects how many
func (c *ActivityController) GetRecentActivity(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.HandleAPIError(ctx, apperrors.NewInvalidInputError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	activities, err := c.queries.GetRecentActivity(ctx.Request.Context(), limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: activities})
}
