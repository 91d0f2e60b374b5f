package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"go.opentelemetry.io/otel/trace"
)

type Conf struct {
	Router      *gin.Engine
	EmployeeBus *bus.Bus
	Auth        *auth.Auth
	Kid         string
	Issuer      string
	TokenMaxAge time.Duration
	Tracer      trace.Tracer
}

// RegisterRoutes takes the router and registers the auth endpoints on it.
func RegisterRoutes(cfg Conf) {
	h := handler{
		empBus:      cfg.EmployeeBus,
		a:           cfg.Auth,
		kid:         cfg.Kid,
		issuer:      cfg.Issuer,
		tokenMaxAge: cfg.TokenMaxAge,
		tracer:      cfg.Tracer,
	}

	authGroup := cfg.Router.Group("/v1/auth")
	authGroup.POST("/login", h.Login)
	authGroup.POST("/link-employee", h.LinkEmployee)
	authGroup.GET("/validate-email", h.ValidateEmail)
}
