package employeedb

import (
	"database/sql"
	"net/mail"
	"time"

	empBus "github.com/staffdesk/staffdesk/internal/domains/employee/bus"
)

type employee struct {
	EmployeeID      string         `db:"employee_id"`
	FullName        string         `db:"full_name"`
	Email           string         `db:"email"`
	PhoneNumber     string         `db:"phone_number"`
	Department      string         `db:"department"`
	Role            string         `db:"role"`
	DateOfJoining   time.Time      `db:"date_of_joining"`
	PasswordHash    []byte         `db:"password_hash"`
	AuthUserID      sql.NullString `db:"auth_user_id"`
	ProfileImageURL sql.NullString `db:"profile_image_url"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func fromBusEmployee(emp empBus.Employee) employee {
	return employee{
		EmployeeID:    emp.EmployeeID,
		FullName:      emp.FullName,
		Email:         emp.Email.Address,
		PhoneNumber:   emp.PhoneNumber,
		Department:    emp.Department.String(),
		Role:          emp.Role,
		DateOfJoining: emp.DateOfJoining,
		PasswordHash:  emp.PasswordHash,
		AuthUserID: sql.NullString{
			String: emp.AuthUserID,
			Valid:  emp.AuthUserID != "",
		},
		ProfileImageURL: sql.NullString{
			String: emp.ProfileImageURL,
			Valid:  emp.ProfileImageURL != "",
		},
		CreatedAt: emp.CreatedAt,
		UpdatedAt: emp.UpdatedAt,
	}
}

func toBusEmployee(emp employee) (empBus.Employee, error) {
	department, err := empBus.ParseDepartment(emp.Department)
	if err != nil {
		return empBus.Employee{}, err
	}

	email := mail.Address{
		Name:    emp.FullName,
		Address: emp.Email,
	}

	return empBus.Employee{
		EmployeeID:      emp.EmployeeID,
		FullName:        emp.FullName,
		Email:           email,
		PhoneNumber:     emp.PhoneNumber,
		Department:      department,
		Role:            emp.Role,
		DateOfJoining:   emp.DateOfJoining,
		PasswordHash:    emp.PasswordHash,
		AuthUserID:      emp.AuthUserID.String,
		ProfileImageURL: emp.ProfileImageURL.String,
		CreatedAt:       emp.CreatedAt,
		UpdatedAt:       emp.UpdatedAt,
	}, nil
}
