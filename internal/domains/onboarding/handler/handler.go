// Package handler exposes the onboarding wizard over REST: session lifecycle,
// step navigation and the final submit into the employee directory.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
	"github.com/staffdesk/staffdesk/internal/errs"
	"go.opentelemetry.io/otel/trace"
)

type handler struct {
	sessions *wizard.Store
	empBus   *bus.Bus
	tracer   trace.Tracer
}

func (h *handler) Start(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.start")
	defer span.End()

	sn := h.sessions.Start()
	c.JSON(http.StatusCreated, toAppSession(sn))
}

func (h *handler) StartEdit(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.startEdit")
	defer span.End()

	var se startEdit
	if err := c.ShouldBindJSON(&se); err != nil {
		c.Error(err)
		return
	}

	emp, err := h.empBus.QueryByID(ctx, se.EmployeeID)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		c.Error(errs.New(http.StatusNotFound, "queryByID: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
		return
	}

	sn := h.sessions.Seed(emp)
	c.JSON(http.StatusCreated, toAppSession(sn))
}

func (h *handler) Get(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.get")
	defer span.End()

	id, err := h.sessionID(c)
	if err != nil {
		c.Error(err)
		return
	}

	sn, err := h.sessions.Get(id)
	if err != nil {
		c.Error(errs.New(http.StatusNotFound, "get session: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppSession(sn))
}

func (h *handler) Update(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.update")
	defer span.End()

	id, err := h.sessionID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var ud updateDraft
	if err := c.ShouldBindJSON(&ud); err != nil {
		c.Error(err)
		return
	}

	sn, err := h.sessions.Update(ctx, id, ud.toWizardUpdate())
	if errors.Is(err, wizard.ErrSessionNotFound) {
		c.Error(errs.New(http.StatusNotFound, "update session: %s", err))
		return
	}

	if errors.Is(err, wizard.ErrDepartmentLocked) {
		c.Error(errs.New(http.StatusBadRequest, "update session: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "update session: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppSession(sn))
}

func (h *handler) Next(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.next")
	defer span.End()

	id, err := h.sessionID(c)
	if err != nil {
		c.Error(err)
		return
	}

	sn, fields, err := h.sessions.Next(id)
	if errors.Is(err, wizard.ErrSessionNotFound) {
		c.Error(errs.New(http.StatusNotFound, "next: %s", err))
		return
	}

	if errors.Is(err, wizard.ErrStepInvalid) {
		c.Error(errs.NewValidationErr(http.StatusBadRequest, fields))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "next: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppSession(sn))
}

func (h *handler) Back(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.back")
	defer span.End()

	id, err := h.sessionID(c)
	if err != nil {
		c.Error(err)
		return
	}

	sn, err := h.sessions.Back(id)
	if err != nil {
		c.Error(errs.New(http.StatusNotFound, "back: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppSession(sn))
}

func (h *handler) Submit(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "onboarding.handler.submit")
	defer span.End()

	id, err := h.sessionID(c)
	if err != nil {
		c.Error(err)
		return
	}

	sn, fields, err := h.sessions.BeginSubmit(id)
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		c.Error(errs.New(http.StatusNotFound, "submit: %s", err))
		return
	case errors.Is(err, wizard.ErrStepInvalid):
		c.Error(errs.NewValidationErr(http.StatusBadRequest, fields))
		return
	case errors.Is(err, wizard.ErrNotAtFinalStep):
		c.Error(errs.New(http.StatusBadRequest, "submit: %s", err))
		return
	case errors.Is(err, wizard.ErrSubmitInFlight):
		c.Error(errs.New(http.StatusConflict, "submit: %s", err))
		return
	case err != nil:
		c.Error(errs.New(http.StatusInternalServerError, "submit: %s", err))
		return
	}

	var emp bus.Employee
	if sn.Editing {
		emp, err = h.submitEdit(c, sn)
	} else {
		emp, err = h.submitCreate(c, sn)
	}

	if err != nil {
		h.sessions.EndSubmit(id, false)
		c.Error(err)
		return
	}

	h.sessions.EndSubmit(id, true)
	c.JSON(http.StatusCreated, toAppEmployee(emp))
}

func (h *handler) submitCreate(c *gin.Context, sn wizard.Session) (bus.Employee, error) {
	ctx := c.Request.Context()

	busNew, err := toBusNewEmployee(sn.Record)
	if err != nil {
		return bus.Employee{}, errs.New(http.StatusBadRequest, "toBusNewEmployee: %s", err)
	}

	emp, err := h.empBus.Create(ctx, busNew)
	if errors.Is(err, bus.ErrDuplicatedEmail) || errors.Is(err, bus.ErrDuplicatedID) {
		return bus.Employee{}, errs.New(http.StatusConflict, "create: %s", err)
	}

	if err != nil {
		return bus.Employee{}, errs.New(http.StatusInternalServerError, "create: %s", err)
	}

	return emp, nil
}

func (h *handler) submitEdit(c *gin.Context, sn wizard.Session) (bus.Employee, error) {
	ctx := c.Request.Context()

	emp, err := h.empBus.QueryByID(ctx, sn.Record.EmployeeID)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		return bus.Employee{}, errs.New(http.StatusNotFound, "queryByID: %s", err)
	}

	if err != nil {
		return bus.Employee{}, errs.New(http.StatusInternalServerError, "queryByID: %s", err)
	}

	busUpdate, err := toBusUpdateEmployee(sn.Record)
	if err != nil {
		return bus.Employee{}, errs.New(http.StatusBadRequest, "toBusUpdateEmployee: %s", err)
	}

	updated, err := h.empBus.Update(ctx, emp, busUpdate)
	if errors.Is(err, bus.ErrDuplicatedEmail) {
		return bus.Employee{}, errs.New(http.StatusConflict, "update: %s", err)
	}

	if err != nil {
		return bus.Employee{}, errs.New(http.StatusInternalServerError, "update: %s", err)
	}

	return updated, nil
}

func (h *handler) sessionID(c *gin.Context) (uuid.UUID, error) {
	p := c.Param("id")

	id, err := uuid.Parse(p)
	if err != nil {
		return uuid.UUID{}, errs.New(http.StatusBadRequest, "invalid session id: %s", p)
	}

	return id, nil
}
