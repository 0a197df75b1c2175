package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"pvc/config"
	importCtrl "pvc/pkg/importer/controller"
	"pvc/pkg/middleware"
	refsCtrl "pvc/pkg/refs/controller"
	statsCtrl "pvc/pkg/stats/controller"
	taskCtrl "pvc/pkg/task/controller"
	userCtrl "pvc/pkg/user/controller"
)

func New(
	e *echo.Echo,
	cfg config.AppConfig,
	lookup middleware.UserLookup,
	taskH taskCtrl.TaskController,
	refsH refsCtrl.RefsController,
	userH userCtrl.UserController,
	statsH statsCtrl.StatsController,
	importH importCtrl.ImportController,
	healthH interface{ Health(echo.Context) error },
) *echo.Echo {
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{cfg.WebAppURL, cfg.AdminURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.HeaderTelegramID},
	}))

	e.GET("/health", healthH.Health)
	e.POST("/api/users/register", userH.Register)

	api := e.Group("/api", middleware.TelegramAuth(lookup))
	admin := middleware.RequireAdmin()

	tasks := api.Group("/tasks")
	tasks.GET("", taskH.List)
	tasks.POST("", taskH.Create, admin)
	tasks.PATCH("/bulk/date", taskH.Reschedule, admin)
	tasks.GET("/:id", taskH.Get)
	tasks.PUT("/:id", taskH.Update, admin)
	tasks.DELETE("/:id", taskH.Delete, admin)
	tasks.PATCH("/:id/status", taskH.Transition)

	refs := api.Group("/refs")
	refs.GET("/types", refsH.ListTypes)
	refs.GET("/types/all", refsH.ListAllTypes, admin)
	refs.POST("/types", refsH.CreateType, admin)
	refs.PUT("/types/:id", refsH.UpdateType, admin)
	refs.GET("/teams", refsH.ListTeams)
	refs.POST("/teams", refsH.CreateTeam, admin)
	refs.PUT("/teams/:id", refsH.UpdateTeam, admin)
	refs.GET("/teams/for-type/:typeId", refsH.TeamsForType)

	users := api.Group("/users")
	users.GET("/me", userH.Me)
	users.GET("", userH.List, admin)
	users.PUT("/:id", userH.Update, admin)

	stats := api.Group("/stats")
	stats.GET("", statsH.Report)
	stats.GET("/workers", statsH.Workers)
	stats.GET("/summary", statsH.Summary, admin)
	stats.GET("/unassigned", taskH.ListUnassigned, admin)
	stats.PATCH("/unassigned/:id/assign", taskH.AssignTeam, admin)

	imp := api.Group("/import", admin)
	imp.POST("/preview", importH.Preview)
	imp.POST("/execute", importH.Execute)
	return e
}
