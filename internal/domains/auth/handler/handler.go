// Package handler provides the authentication endpoints: password login over
// two identifier kinds, external identity linking and the email probe used by
// passwordless sign-in links.
package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/errs"
	"go.opentelemetry.io/otel/trace"
)

type handler struct {
	empBus      *bus.Bus
	a           *auth.Auth
	kid         string
	issuer      string
	tokenMaxAge time.Duration
	tracer      trace.Tracer
}

func (h *handler) Login(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "auth.handler.login")
	defer span.End()

	var l login
	if err := c.ShouldBindJSON(&l); err != nil {
		c.Error(err)
		return
	}

	emp, err := h.empBus.Authenticate(ctx, l.Identifier, l.Password)

	//an unlinked record behind an employee id is the one failure the client
	//is told about precisely, so it can point the user at activation
	if errors.Is(err, bus.ErrNotActivated) {
		c.Error(errs.New(http.StatusUnauthorized, "account not activated"))
		return
	}

	if errors.Is(err, bus.ErrInvalidCredentials) {
		c.Error(errs.New(http.StatusUnauthorized, "invalid credentials"))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "authenticate: %s", err))
		return
	}

	expiresAt := time.Now().Add(h.tokenMaxAge)
	claims := auth.Claims{
		Roles: []string{auth.RoleEmployee},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.issuer,
			Subject:   emp.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := h.a.GenerateToken(h.kid, claims)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "generateToken: %s", err))
		return
	}

	c.JSON(http.StatusOK, newLoginResult(token, expiresAt, emp))
}

func (h *handler) LinkEmployee(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "auth.handler.linkEmployee")
	defer span.End()

	var le linkEmployee
	if err := c.ShouldBindJSON(&le); err != nil {
		c.Error(err)
		return
	}

	email, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(le.Email)))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parseAddress: %s", err))
		return
	}

	emp, err := h.empBus.LinkIdentity(ctx, *email, le.AuthUserID)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		c.Error(errs.New(http.StatusNotFound, "no employee record for this email"))
		return
	}

	if errors.Is(err, bus.ErrIdentityConflict) {
		c.Error(errs.New(http.StatusConflict, "linkIdentity: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "linkIdentity: %s", err))
		return
	}

	c.JSON(http.StatusOK, toSummary(emp))
}

func (h *handler) ValidateEmail(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "auth.handler.validateEmail")
	defer span.End()

	raw := c.Query("email")
	if raw == "" {
		c.Error(errs.New(http.StatusBadRequest, "missing email query parameter"))
		return
	}

	email, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parseAddress: %s", err))
		return
	}

	emp, err := h.empBus.QueryByEmail(ctx, *email)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		c.JSON(http.StatusOK, validateEmailResult{IsValid: false})
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByEmail: %s", err))
		return
	}

	summary := toSummary(emp)
	c.JSON(http.StatusOK, validateEmailResult{IsValid: true, Employee: &summary})
}
