package handler

import (
	"time"

	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
)

// employeeSummary is the slice of the record auth responses carry, enough for
// a client to greet the signed-in employee.
type employeeSummary struct {
	EmployeeID      string `json:"employeeId"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Department      string `json:"department"`
	Role            string `json:"role"`
	DateOfJoining   string `json:"dateOfJoining"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

func toSummary(emp bus.Employee) employeeSummary {
	return employeeSummary{
		EmployeeID:      emp.EmployeeID,
		FullName:        emp.FullName,
		Email:           emp.Email.Address,
		Department:      emp.Department.String(),
		Role:            emp.Role,
		DateOfJoining:   emp.DateOfJoining.Format(bus.DateLayout),
		ProfileImageURL: emp.ProfileImageURL,
	}
}

//==============================================================================

type login struct {
	//identifier is an email when it contains "@", an employee id otherwise
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type loginResult struct {
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expiresAt"`
	Employee  employeeSummary `json:"employee"`
}

func newLoginResult(token string, expiresAt time.Time, emp bus.Employee) loginResult {
	return loginResult{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Employee:  toSummary(emp),
	}
}

//==============================================================================

type linkEmployee struct {
	Email      string `json:"email" binding:"required,email"`
	AuthUserID string `json:"authUserId" binding:"required"`
}

//==============================================================================

type validateEmailResult struct {
	IsValid  bool             `json:"isValid"`
	Employee *employeeSummary `json:"employee,omitempty"`
}
