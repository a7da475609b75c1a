package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/internal/pkg/logger"
)

// message returns the most specific human message in err's chain
func message(err error, fallback string) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// HandleAPIError maps the error taxonomy onto HTTP status codes
func HandleAPIError(c *gin.Context, err error) {
	switch apperrors.Kind(err) {
	case apperrors.ErrUnauthorized:
		code := dto.ErrorCodeUnauthorized
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			code = dto.ErrorCodeInvalidCredentials
		}
		c.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(code, message(err, "Authentication required")),
		})
	case apperrors.ErrForbidden:
		c.JSON(http.StatusForbidden, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeForbidden, message(err, "Permission denied")),
		})
	case apperrors.ErrNotFound:
		c.JSON(http.StatusNotFound, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message(err, "Resource not found")),
		})
	case apperrors.ErrInvalidInput:
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message(err, "Validation failed")),
		})
	case apperrors.ErrConflict:
		c.JSON(http.StatusConflict, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, message(err, "Resource already exists")),
		})
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		})
	}
}
