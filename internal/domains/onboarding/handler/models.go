package handler

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
)

// draft is the record as the client sees it. Credentials go in through
// updateDraft but never come back out.
type draft struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	Department      string `json:"department"`
	Role            string `json:"role"`
	DateOfJoining   string `json:"dateOfJoining"`
	EmployeeID      string `json:"employeeId"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type session struct {
	SessionID string `json:"sessionId"`
	Step      int    `json:"step"`
	Editing   bool   `json:"editing"`
	Record    draft  `json:"record"`
}

func toAppSession(sn wizard.Session) session {
	return session{
		SessionID: sn.ID.String(),
		Step:      sn.Step,
		Editing:   sn.Editing,
		Record: draft{
			FullName:        sn.Record.FullName,
			Email:           sn.Record.Email,
			PhoneNumber:     sn.Record.PhoneNumber,
			Department:      sn.Record.Department,
			Role:            sn.Record.Role,
			DateOfJoining:   sn.Record.DateOfJoining,
			EmployeeID:      sn.Record.EmployeeID,
			ProfileImageURL: sn.Record.ProfileImageURL,
		},
	}
}

//==============================================================================

type startEdit struct {
	EmployeeID string `json:"employeeId" binding:"required"`
}

type updateDraft struct {
	FullName        *string `json:"fullName"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	Department      *string `json:"department"`
	Role            *string `json:"role"`
	DateOfJoining   *string `json:"dateOfJoining"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

func (ud updateDraft) toWizardUpdate() wizard.UpdateRecord {
	return wizard.UpdateRecord{
		FullName:        ud.FullName,
		Email:           ud.Email,
		PhoneNumber:     ud.PhoneNumber,
		Department:      ud.Department,
		Role:            ud.Role,
		DateOfJoining:   ud.DateOfJoining,
		Password:        ud.Password,
		ConfirmPassword: ud.ConfirmPassword,
	}
}

//==============================================================================

type employee struct {
	EmployeeID      string `json:"employeeId"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	Department      string `json:"department"`
	Role            string `json:"role"`
	DateOfJoining   string `json:"dateOfJoining"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

func toAppEmployee(emp bus.Employee) employee {
	return employee{
		EmployeeID:      emp.EmployeeID,
		FullName:        emp.FullName,
		Email:           emp.Email.Address,
		PhoneNumber:     emp.PhoneNumber,
		Department:      emp.Department.String(),
		Role:            emp.Role,
		DateOfJoining:   emp.DateOfJoining.Format(bus.DateLayout),
		ProfileImageURL: emp.ProfileImageURL,
		CreatedAt:       emp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       emp.UpdatedAt.Format(time.RFC3339),
	}
}

//==============================================================================

func toBusNewEmployee(rec wizard.Record) (bus.NewEmployee, error) {
	email, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(rec.Email)))
	if err != nil {
		return bus.NewEmployee{}, fmt.Errorf("parseAddress: %w", err)
	}

	department, err := bus.ParseDepartment(rec.Department)
	if err != nil {
		return bus.NewEmployee{}, fmt.Errorf("parseDepartment: %w", err)
	}

	doj, err := time.Parse(bus.DateLayout, rec.DateOfJoining)
	if err != nil {
		return bus.NewEmployee{}, fmt.Errorf("parsing dateOfJoining: %w", err)
	}

	return bus.NewEmployee{
		EmployeeID:    rec.EmployeeID,
		FullName:      rec.FullName,
		Email:         *email,
		PhoneNumber:   rec.PhoneNumber,
		Department:    department,
		Role:          rec.Role,
		DateOfJoining: doj,
		Password:      rec.Password,
	}, nil
}

// toBusUpdateEmployee turns the final edit-mode draft into a patch. Every
// field the wizard owns is written back, an empty password means keep the
// current credentials.
func toBusUpdateEmployee(rec wizard.Record) (bus.UpdateEmployee, error) {
	email, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(rec.Email)))
	if err != nil {
		return bus.UpdateEmployee{}, fmt.Errorf("parseAddress: %w", err)
	}

	doj, err := time.Parse(bus.DateLayout, rec.DateOfJoining)
	if err != nil {
		return bus.UpdateEmployee{}, fmt.Errorf("parsing dateOfJoining: %w", err)
	}

	uu := bus.UpdateEmployee{
		FullName:      &rec.FullName,
		Email:         email,
		PhoneNumber:   &rec.PhoneNumber,
		Role:          &rec.Role,
		DateOfJoining: &doj,
	}

	if rec.Password != "" {
		uu.Password = &rec.Password
	}

	return uu, nil
}
