package handler

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
)

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

type newEmployee struct {
	EmployeeID      string `json:"employeeId"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	Department      string `json:"department"`
	Role            string `json:"role"`
	DateOfJoining   string `json:"dateOfJoining"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (ne newEmployee) toWizardRecord() wizard.Record {
	return wizard.Record{
		FullName:        ne.FullName,
		Email:           ne.Email,
		PhoneNumber:     ne.PhoneNumber,
		Department:      ne.Department,
		Role:            ne.Role,
		DateOfJoining:   ne.DateOfJoining,
		EmployeeID:      ne.EmployeeID,
		Password:        ne.Password,
		ConfirmPassword: ne.ConfirmPassword,
	}
}

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

//==============================================================================

type updateEmployee struct {
	EmployeeID      string  `json:"employeeId" binding:"required"`
	FullName        *string `json:"fullName"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	Department      *string `json:"department"`
	Role            *string `json:"role"`
	DateOfJoining   *string `json:"dateOfJoining"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

// merge lays the patch over the current record so the final state can be
// validated as a whole. Credentials default to empty, meaning keep current.
func (ue updateEmployee) merge(emp bus.Employee) wizard.Record {
	rec := wizard.Record{
		FullName:        emp.FullName,
		Email:           emp.Email.Address,
		PhoneNumber:     emp.PhoneNumber,
		Department:      emp.Department.String(),
		Role:            emp.Role,
		DateOfJoining:   emp.DateOfJoining.Format(bus.DateLayout),
		EmployeeID:      emp.EmployeeID,
		ProfileImageURL: emp.ProfileImageURL,
	}

	if ue.FullName != nil {
		rec.FullName = *ue.FullName
	}
	if ue.Email != nil {
		rec.Email = *ue.Email
	}
	if ue.PhoneNumber != nil {
		rec.PhoneNumber = *ue.PhoneNumber
	}
	if ue.Role != nil {
		rec.Role = *ue.Role
	}
	if ue.DateOfJoining != nil {
		rec.DateOfJoining = *ue.DateOfJoining
	}
	if ue.Password != nil {
		rec.Password = *ue.Password
	}
	if ue.ConfirmPassword != nil {
		rec.ConfirmPassword = *ue.ConfirmPassword
	}

	return rec
}

func (ue updateEmployee) toBusUpdateEmployee() (bus.UpdateEmployee, error) {
	var uu bus.UpdateEmployee

	uu.FullName = ue.FullName
	uu.PhoneNumber = ue.PhoneNumber
	uu.Role = ue.Role
	uu.Password = ue.Password

	if ue.Email != nil {
		email, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(*ue.Email)))
		if err != nil {
			return bus.UpdateEmployee{}, fmt.Errorf("parseAddress: %w", err)
		}
		uu.Email = email
	}

	if ue.DateOfJoining != nil {
		doj, err := time.Parse(bus.DateLayout, *ue.DateOfJoining)
		if err != nil {
			return bus.UpdateEmployee{}, fmt.Errorf("parsing dateOfJoining: %w", err)
		}
		uu.DateOfJoining = &doj
	}

	return uu, nil
}
