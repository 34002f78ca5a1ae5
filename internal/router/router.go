package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"focusmate/internal/handler"
	"focusmate/internal/middleware"
	"focusmate/internal/service"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Task  *handler.TaskHandler
	Stats *handler.StatsHandler
	Team  *handler.TeamHandler
	Room  *handler.RoomHandler
}

func New(
	authService *service.AuthService,
	h Handlers,
	cookieName string,
	corsOrigins []string,
	logger *zap.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	engine.GET("/health", health)

	// The web client posts to /auth/*; /api/auth/* is kept for API clients.
	registerAuth(engine.Group("/auth"), h.Auth)

	api := engine.Group("/api")
	api.GET("/health", health)
	registerAuth(api.Group("/auth"), h.Auth)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService, cookieName))

	protected.GET("/user", h.User.Get)
	protected.PUT("/user", h.User.Update)

	protected.GET("/tasks", h.Task.List)
	protected.POST("/tasks", h.Task.Create)
	protected.PUT("/tasks/:id", h.Task.Update)
	protected.PATCH("/tasks/:id", h.Task.Update)
	protected.DELETE("/tasks/:id", h.Task.Delete)

	protected.GET("/stats", h.Stats.Get)
	protected.GET("/stats/history", h.Stats.History)
	protected.PUT("/stats/:id", h.Stats.Update)

	protected.POST("/teams", h.Team.Create)
	protected.GET("/teams", h.Team.List)
	protected.GET("/teams/:id", h.Team.Get)
	protected.POST("/teams/:id", h.Team.AddMember)
	protected.DELETE("/teams/remove/:id", h.Team.RemoveMember)
	protected.PUT("/teams/:id", h.Team.Update)
	protected.DELETE("/teams/:id", h.Team.Delete)

	protected.GET("/rooms/:code/ws", h.Room.ServeWS)

	return engine
}

func registerAuth(group *gin.RouterGroup, h *handler.AuthHandler) {
	group.POST("/register", h.Register)
	group.POST("/login", h.Login)
	group.POST("/google", h.Google)
	group.POST("/logout", h.Logout)
}
