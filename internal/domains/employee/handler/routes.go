package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
	"github.com/staffdesk/staffdesk/internal/mid"
	"github.com/staffdesk/staffdesk/internal/storage/avatars"
	"github.com/staffdesk/staffdesk/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

type Conf struct {
	Router      *gin.Engine
	EmployeeBus *bus.Bus
	Validator   *wizard.Validator
	Avatars     *avatars.Store
	Auth        *auth.Auth
	Tracer      trace.Tracer
	Logger      *logger.Logger
}

// RegisterRoutes takes the router and registers the directory endpoints on it.
func RegisterRoutes(cfg Conf) {
	h := handler{
		log:      cfg.Logger,
		empBus:   cfg.EmployeeBus,
		validate: cfg.Validator,
		avatars:  cfg.Avatars,
		tracer:   cfg.Tracer,
	}

	authenticated := mid.Authenticate(cfg.Logger, cfg.Auth, cfg.EmployeeBus)
	employee := mid.Authorized(cfg.Auth, map[string]struct{}{auth.RoleEmployee: {}})

	employees := cfg.Router.Group("/v1/employees")
	employees.GET("", h.List)
	employees.POST("", authenticated, employee, h.Create)
	employees.PUT("", authenticated, employee, h.Update)
	employees.DELETE("", authenticated, employee, h.Delete)

	profile := cfg.Router.Group("/v1/profile")
	profile.POST("/update-avatar", authenticated, employee, h.UpdateAvatar)
}
