package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
	"github.com/staffdesk/staffdesk/internal/mid"
	"github.com/staffdesk/staffdesk/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

type Conf struct {
	Router      *gin.Engine
	Sessions    *wizard.Store
	EmployeeBus *bus.Bus
	Auth        *auth.Auth
	Tracer      trace.Tracer
	Logger      *logger.Logger
}

// RegisterRoutes takes the router and registers the wizard endpoints on it.
func RegisterRoutes(cfg Conf) {
	h := handler{
		sessions: cfg.Sessions,
		empBus:   cfg.EmployeeBus,
		tracer:   cfg.Tracer,
	}

	authenticated := mid.Authenticate(cfg.Logger, cfg.Auth, cfg.EmployeeBus)

	onboarding := cfg.Router.Group("/v1/onboarding", authenticated)
	onboarding.POST("", h.Start)
	onboarding.POST("/edit", h.StartEdit)
	onboarding.GET("/:id", h.Get)
	onboarding.PUT("/:id", h.Update)
	onboarding.POST("/:id/next", h.Next)
	onboarding.POST("/:id/back", h.Back)
	onboarding.POST("/:id/submit", h.Submit)
}
