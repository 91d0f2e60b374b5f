// Package handler provides the REST surface for the employee directory.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
	"github.com/staffdesk/staffdesk/internal/errs"
	"github.com/staffdesk/staffdesk/internal/storage/avatars"
	"github.com/staffdesk/staffdesk/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

type handler struct {
	log      *logger.Logger
	empBus   *bus.Bus
	validate *wizard.Validator
	avatars  *avatars.Store
	tracer   trace.Tracer
}

func (h *handler) List(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "employee.handler.list")
	defer span.End()

	emps, err := h.empBus.List(ctx)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "list: %s", err))
		return
	}

	//an empty directory is a valid 200 with an empty array, not null
	result := make([]employee, len(emps))
	for i, emp := range emps {
		result[i] = toAppEmployee(emp)
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) Create(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "employee.handler.create")
	defer span.End()

	var ne newEmployee
	if err := c.ShouldBindJSON(&ne); err != nil {
		c.Error(err)
		return
	}

	rec := ne.toWizardRecord()

	//a record posted without an id gets one before validation, same as the
	//wizard assigns one as soon as department and date are known
	if rec.EmployeeID == "" {
		id, err := bus.GenerateEmployeeID(rec.Department, rec.DateOfJoining)
		if err != nil {
			//validation reports the bad inputs below, the failure is only logged
			h.log.Warn(ctx, "employee id generation failed", "error", err.Error())
		}
		rec.EmployeeID = id
	}

	if fields := h.validate.CheckRecord(rec, false); fields != nil {
		c.Error(errs.NewValidationErr(http.StatusBadRequest, fields))
		return
	}

	busNew, err := toBusNewEmployee(rec)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "toBusNewEmployee: %s", err))
		return
	}

	emp, err := h.empBus.Create(ctx, busNew)
	if errors.Is(err, bus.ErrDuplicatedEmail) {
		c.Error(errs.New(http.StatusConflict, "create: %s", err))
		return
	}

	if errors.Is(err, bus.ErrDuplicatedID) {
		c.Error(errs.New(http.StatusConflict, "create: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "create: %s", err))
		return
	}

	c.JSON(http.StatusCreated, toAppEmployee(emp))
}

func (h *handler) Update(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "employee.handler.update")
	defer span.End()

	var ue updateEmployee
	if err := c.ShouldBindJSON(&ue); err != nil {
		c.Error(err)
		return
	}

	emp, err := h.empBus.QueryByID(ctx, ue.EmployeeID)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		c.Error(errs.New(http.StatusNotFound, "queryByID: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
		return
	}

	//the id prefix encodes the department, so the department is locked
	if ue.Department != nil && *ue.Department != emp.Department.String() {
		c.Error(errs.New(http.StatusBadRequest, "department cannot change on an existing employee"))
		return
	}

	//validate the record as it would look after the patch
	if fields := h.validate.CheckRecord(ue.merge(emp), true); fields != nil {
		c.Error(errs.NewValidationErr(http.StatusBadRequest, fields))
		return
	}

	busUpdate, err := ue.toBusUpdateEmployee()
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "toBusUpdateEmployee: %s", err))
		return
	}

	updated, err := h.empBus.Update(ctx, emp, busUpdate)
	if errors.Is(err, bus.ErrDuplicatedEmail) {
		c.Error(errs.New(http.StatusConflict, "update: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "update: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppEmployee(updated))
}

func (h *handler) Delete(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "employee.handler.delete")
	defer span.End()

	employeeID := c.Query("id")
	if employeeID == "" {
		c.Error(errs.New(http.StatusBadRequest, "missing id query parameter"))
		return
	}

	emp, err := h.empBus.QueryByID(ctx, employeeID)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		c.Error(errs.New(http.StatusNotFound, "queryByID: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
		return
	}

	if err := h.empBus.Delete(ctx, emp); err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "delete: %s", err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) UpdateAvatar(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "employee.handler.updateAvatar")
	defer span.End()

	employeeID := c.PostForm("employeeId")
	if employeeID == "" {
		c.Error(errs.New(http.StatusBadRequest, "missing employeeId form field"))
		return
	}

	emp, err := h.empBus.QueryByID(ctx, employeeID)
	if errors.Is(err, bus.ErrEmployeeNotFound) {
		c.Error(errs.New(http.StatusNotFound, "queryByID: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "missing avatar file: %s", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "opening avatar file: %s", err))
		return
	}
	defer file.Close()

	url, err := h.avatars.Save(emp.EmployeeID, fileHeader.Filename, file)
	if errors.Is(err, avatars.ErrUnsupportedType) {
		c.Error(errs.New(http.StatusBadRequest, "save avatar: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "save avatar: %s", err))
		return
	}

	updated, err := h.empBus.Update(ctx, emp, bus.UpdateEmployee{ProfileImageURL: &url})
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "update: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppEmployee(updated))
}
