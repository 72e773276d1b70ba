// Package router assembles the HTTP route table.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/turmas-api/api/swagger"
	"github.com/noah-isme/turmas-api/internal/handler"
	"github.com/noah-isme/turmas-api/internal/middleware"
	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/turmas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/turmas-api/pkg/middleware/requestid"
)

// Options toggles optional surfaces.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableMetrics  bool
	EnableDocs     bool
}

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Courses     *handler.CourseHandler
	Favorites   *handler.FavoriteHandler
	Sections    *handler.SectionHandler
	Enrollment  *handler.EnrollmentHandler
	CPF         *handler.CPFHandler
	Observation *handler.MetricsHandler
}

// New builds the engine with the common middleware chain and every route.
func New(opts Options, logr *zap.Logger, tokens middleware.TokenValidator, observer middleware.RequestObserver, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.EnableMetrics {
		r.Use(middleware.Metrics(observer))
	}

	r.GET("/health", h.Observation.Health)
	r.GET("/ready", h.Observation.Ready)
	if opts.EnableMetrics {
		r.GET("/metrics", h.Observation.Prometheus)
	}
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := middleware.RequireRoles(models.RoleStaff)

	api := r.Group(opts.APIPrefix)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/cpf/format", h.CPF.Format)
	api.GET("/cpf/validate", h.CPF.Validate)
	api.GET("/courses", h.Courses.List)
	api.GET("/courses/:id", h.Courses.Get)
	api.GET("/courses/:id/sections", h.Courses.Sections)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.GET("/me", h.Users.Me)
	secured.PATCH("/me", h.Users.UpdateMe)
	secured.GET("/me/favorites", h.Favorites.List)
	secured.POST("/me/favorites/:courseId", h.Favorites.Toggle)

	secured.GET("/sections/:id", h.Sections.Get)
	secured.GET("/sections/:id/seats", h.Sections.Seats)
	secured.POST("/sections/:id/enroll", h.Enrollment.Enroll)
	secured.DELETE("/sections/:id/enroll", h.Enrollment.Unenroll)

	secured.GET("/sections", staff, h.Sections.List)
	secured.POST("/sections", staff, middleware.Audit(logr, "section.create", "section"), h.Sections.Create)
	secured.PUT("/sections/:id", staff, middleware.Audit(logr, "section.update", "section"), h.Sections.Update)
	secured.DELETE("/sections/:id", staff, middleware.Audit(logr, "section.delete", "section"), h.Sections.Delete)
	secured.DELETE("/sections/:id/students/:email", staff, middleware.Audit(logr, "section.remove_student", "section"), h.Sections.RemoveStudent)
	secured.GET("/sections/:id/roster", staff, middleware.Audit(logr, "section.export_roster", "section"), h.Sections.Roster)

	secured.GET("/users", staff, h.Users.List)
	secured.DELETE("/users/:email", middleware.RBAC(string(models.RoleStaff), middleware.Self), middleware.Audit(logr, "user.remove", "user"), h.Users.Remove)
	if opts.EnableMetrics {
		secured.GET("/metrics/summary", staff, h.Observation.Summary)
	}

	return r
}
