package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptm/backend/internal/handler"
	"ptm/backend/internal/middleware"
	"ptm/backend/internal/service"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Tasks     *handler.TaskHandler
	Projects  *handler.ProjectHandler
	Tags      *handler.TagHandler
	Pomodoro  *handler.PomodoroHandler
	Backup    *handler.BackupHandler
	Dashboard *handler.DashboardHandler
}

// New builds the HTTP engine. When authEnabled is false the data routes are
// open; the session routes are always mounted.
func New(
	authService *service.AuthService,
	authEnabled bool,
	h Handlers,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(engine, corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	session := api.Group("/session")
	session.GET("", h.Auth.Status)
	session.POST("/setup", h.Auth.Setup)
	session.POST("/login", h.Auth.Login)
	session.GET("/me", middleware.Auth(authService), h.Auth.Me)

	data := api.Group("")
	if authEnabled {
		data.Use(middleware.Auth(authService))
	}

	tasks := data.Group("/tasks")
	tasks.GET("", h.Tasks.List)
	tasks.POST("", h.Tasks.Create)
	tasks.POST("/reorder", h.Tasks.Reorder)
	tasks.GET("/search", h.Tasks.GetSearch)
	tasks.PUT("/search", h.Tasks.SetSearch)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.PATCH("/:id", h.Tasks.Update)
	tasks.DELETE("/:id", h.Tasks.Delete)
	tasks.POST("/:id/toggle", h.Tasks.Toggle)
	tasks.POST("/:id/subtasks", h.Tasks.AddSubTask)
	tasks.PATCH("/:id/subtasks/:subTaskId", h.Tasks.UpdateSubTask)
	tasks.DELETE("/:id/subtasks/:subTaskId", h.Tasks.DeleteSubTask)
	tasks.POST("/:id/subtasks/:subTaskId/toggle", h.Tasks.ToggleSubTask)

	projects := data.Group("/projects")
	projects.GET("", h.Projects.List)
	projects.POST("", h.Projects.Create)
	projects.GET("/:id", h.Projects.Get)
	projects.PATCH("/:id", h.Projects.Update)
	projects.DELETE("/:id", h.Projects.Delete)
	projects.GET("/:id/stats", h.Projects.Stats)

	tags := data.Group("/tags")
	tags.GET("", h.Tags.List)
	tags.POST("", h.Tags.Create)
	tags.POST("/resolve", h.Tags.Resolve)
	tags.GET("/:id", h.Tags.Get)
	tags.PATCH("/:id", h.Tags.Update)
	tags.DELETE("/:id", h.Tags.Delete)
	tags.GET("/:id/count", h.Tags.Count)

	pomodoro := data.Group("/pomodoro")
	pomodoro.GET("/state", h.Pomodoro.GetState)
	pomodoro.POST("/start", h.Pomodoro.Start)
	pomodoro.POST("/pause", h.Pomodoro.Pause)
	pomodoro.POST("/resume", h.Pomodoro.Resume)
	pomodoro.POST("/reset", h.Pomodoro.Reset)
	pomodoro.POST("/skip", h.Pomodoro.Skip)
	pomodoro.PUT("/settings", h.Pomodoro.UpdateSettings)

	backup := data.Group("/backup")
	backup.GET("/export", h.Backup.Export)
	backup.POST("/import", h.Backup.Import)
	backup.GET("/usage", h.Backup.Usage)

	data.GET("/dashboard", h.Dashboard.Get)

	return engine
}
