// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/middleware"
)

// CookieConfig controls the session cookie
type CookieConfig struct {
	Secure bool
}

// AuthController handles registration and the session lifecycle
type AuthController struct {
	gateway *services.MutationGateway
	cookie  CookieConfig
	logger  zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(gateway *services.MutationGateway, cookie CookieConfig, logger zerolog.Logger) *AuthController {
	return &AuthController{
		gateway: gateway,
		cookie:  cookie,
		logger:  logger,
	}
}

// Register handles user registration
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.gateway.Register(ctx.Request.Context(), services.RegisterInput{
		LoginName:   req.LoginName,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Location:    req.Location,
		Description: req.Description,
		Occupation:  req.Occupation,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("loginName", req.LoginName).Msg("Failed to register user")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.NewUserResponse(user),
	})
}

// Login handles user login. The token is returned in the body and set as
// the session cookie.
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	res, err := c.gateway.Login(ctx.Request.Context(), req.LoginName, req.Password)
	if err != nil {
		c.logger.Warn().Err(err).Str("loginName", req.LoginName).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	maxAge := int(time.Until(res.Session.ExpiresAt).Seconds())
	c.setCookie(ctx, res.Token, maxAge)

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.AuthResponse{
			Token:     res.Token,
			ExpiresAt: res.Session.ExpiresAt,
			User:      dto.NewUserResponse(res.User),
		},
	})
}

// Logout revokes the current session
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.gateway.Logout(ctx.Request.Context()); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.SuccessResponse{Message: "Logged out"},
	})
}

func (c *AuthController) setCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", c.cookie.Secure, true)
}
