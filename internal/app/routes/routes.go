package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/photoshare/internal/app/controllers"
	"github.com/yigit/photoshare/internal/middleware"
	"github.com/yigit/photoshare/internal/pkg/websocket"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Auth     *controllers.AuthController
	User     *controllers.UserController
	Photo    *controllers.PhotoController
	Activity *controllers.ActivityController
	Events   *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
	}

	// --- Reads: anonymous callers only see public photos ---
	public := v1.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		users := public.Group("/users")
		{
			users.GET("", c.User.ListUsers)
			users.GET("/:id", c.User.GetUser)
			users.GET("/:id/photos", c.User.GetUserPhotos)
			users.GET("/:id/stats", c.User.GetUserStats)
			users.GET("/:id/comments", c.User.GetUserComments)
		}

		public.GET("/photos/:id", c.Photo.GetPhoto)
		public.GET("/activities", c.Activity.GetRecentActivity)

		events := public.Group("/events")
		{
			events.GET("/ws", c.Events.HandleConnection)
			events.GET("/status", c.Events.Status)
		}
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", c.Auth.Logout)
		authenticated.DELETE("/users/me", c.User.DeleteMe)

		photos := authenticated.Group("/photos")
		{
			photos.POST("", c.Photo.UploadPhoto)
			photos.DELETE("/:id", c.Photo.DeletePhoto)
			photos.POST("/:id/like", c.Photo.ToggleLike)
			photos.POST("/:id/comments", c.Photo.AddComment)
			photos.DELETE("/:id/comments/:commentId", c.Photo.DeleteComment)
		}
	}
}
