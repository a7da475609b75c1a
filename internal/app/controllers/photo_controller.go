package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/middleware"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// MaxUploadSize caps a photo upload
const MaxUploadSize = 32 << 20

// PhotoController handles photo uploads, likes and comments
type PhotoController struct {
	gateway *services.MutationGateway
	queries *services.QueryService
	logger  zerolog.Logger
}

// NewPhotoController creates a new PhotoController
func NewPhotoController(gateway *services.MutationGateway, queries *services.QueryService, logger zerolog.Logger) *PhotoController {
	return &PhotoController{
		gateway: gateway,
		queries: queries,
		logger:  logger,
	}
}

// UploadPhoto stores the multipart "photo" file. The optional "sharedWith"
// field is a JSON array of user ids.
func (c *PhotoController) UploadPhoto(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, MaxUploadSize)

	fileHeader, err := ctx.FormFile("photo")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewInvalidInputError("photo file is required"))
		return
	}

	var sharedWith []string
	if raw := ctx.PostForm("sharedWith"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sharedWith); err != nil {
			middleware.HandleAPIError(ctx, apperrors.NewInvalidInputError("sharedWith must be a JSON array of user ids"))
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.Internal("open upload", err))
		return
	}
	defer file.Close()

	photo, err := c.gateway.UploadPhoto(ctx.Request.Context(), file, fileHeader.Filename, sharedWith)
	if err != nil {
		c.logger.Error().Err(err).Str("fileName", fileHeader.Filename).Msg("Failed to upload photo")
		middleware.HandleAPIError(ctx, err)
		return
	}

	viewerID := middleware.ViewerID(ctx)
	resp, err := c.queries.GetPhoto(ctx.Request.Context(), photo.ID, viewerID)
	if err != nil {
		// The upload is committed; answer from the stored document instead.
		c.logger.Warn().Err(err).Str("photoID", photo.ID).Msg("Failed to re-read uploaded photo")
		rendered := c.queries.RenderPhoto(photo, viewerID)
		resp = &rendered
	}
	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: resp})
}

// GetPhoto returns a photo visible to the caller
func (c *PhotoController) GetPhoto(ctx *gin.Context) {
	photo, err := c.queries.GetPhoto(ctx.Request.Context(), ctx.Param("id"), middleware.ViewerID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: photo})
}

// DeletePhoto removes one of the caller's photos
func (c *PhotoController) DeletePhoto(ctx *gin.Context) {
	if err := c.gateway.DeletePhoto(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ToggleLike likes or unlikes a photo
func (c *PhotoController) ToggleLike(ctx *gin.Context) {
	photoID := ctx.Param("id")
	res, err := c.gateway.ToggleLike(ctx.Request.Context(), photoID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.LikeResponse{PhotoID: photoID, LikeCount: res.LikeCount, Liked: res.Liked},
	})
}

// AddComment comments on a photo
func (c *PhotoController) AddComment(ctx *gin.Context) {
	var req dto.AddCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.gateway.AddComment(ctx.Request.Context(), ctx.Param("id"), req.Text)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	author := dto.UserRef{ID: comment.AuthorID}
	if u, err := c.queries.GetUserDetail(ctx.Request.Context(), comment.AuthorID); err == nil {
		author = dto.UserRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.CommentResponse{
			ID:        comment.ID,
			PhotoID:   comment.PhotoID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
			Author:    author,
		},
	})
}

// DeleteComment removes one of the caller's comments
func (c *PhotoController) DeleteComment(ctx *gin.Context) {
	if err := c.gateway.DeleteComment(ctx.Request.Context(), ctx.Param("commentId"), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
