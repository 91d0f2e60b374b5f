package bus

import (
	"net/mail"
	"time"
)

type Employee struct {
	EmployeeID      string
	FullName        string
	Email           mail.Address
	PhoneNumber     string
	Department      Department
	Role            string
	DateOfJoining   time.Time
	PasswordHash    []byte
	AuthUserID      string
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NewEmployee struct {
	//EmployeeID may come pre-generated from the onboarding wizard, empty
	//means the bus assigns one.
	EmployeeID    string
	FullName      string
	Email         mail.Address
	PhoneNumber   string
	Department    Department
	Role          string
	DateOfJoining time.Time
	Password      string
}

// UpdateEmployee uses pointer fields so callers only patch what they mean to.
// EmployeeID and Department are immutable once a record is persisted, so they
// have no field here.
type UpdateEmployee struct {
	FullName        *string
	Email           *mail.Address
	PhoneNumber     *string
	Role            *string
	DateOfJoining   *time.Time
	Password        *string
	ProfileImageURL *string
}
