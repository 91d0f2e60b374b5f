// Package bus holds the business logic for the employee directory: record
// lifecycle, credential checks and external identity linking.
package bus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDuplicatedEmail    = errors.New("email already in use")
	ErrDuplicatedID       = errors.New("employee id already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account not activated")
	ErrIdentityConflict   = errors.New("email already linked to another account")
)

type store interface {
	Create(ctx context.Context, emp Employee) error
	Update(ctx context.Context, emp Employee) error
	Delete(ctx context.Context, emp Employee) error
	QueryByID(ctx context.Context, employeeID string) (Employee, error)
	QueryByEmail(ctx context.Context, email mail.Address) (Employee, error)
	List(ctx context.Context) ([]Employee, error)
}

type Bus struct {
	store store
}

func New(store store) *Bus {
	return &Bus{store: store}
}

// Create persists a new employee. The wizard pre-generates the id, but the bus
// is the safety net: a missing or colliding id gets replaced with a fresh one.
// The plaintext password never reaches the store.
func (b *Bus) Create(ctx context.Context, ne NewEmployee) (Employee, error) {
	var hash []byte
	if ne.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(ne.Password), bcrypt.DefaultCost)
		if err != nil {
			return Employee{}, fmt.Errorf("generateFromPassword: %w", err)
		}
	}

	//utc and microsecond precision so timestamps round-trip through the db.
	now := time.Now().UTC().Truncate(time.Microsecond)

	emp := Employee{
		EmployeeID:    ne.EmployeeID,
		FullName:      ne.FullName,
		Email:         ne.Email,
		PhoneNumber:   ne.PhoneNumber,
		Department:    ne.Department,
		Role:          ne.Role,
		DateOfJoining: ne.DateOfJoining,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if emp.EmployeeID == "" {
		id, err := GenerateEmployeeID(emp.Department.String(), emp.DateOfJoining.Format(DateLayout))
		if err != nil || id == "" {
			return Employee{}, fmt.Errorf("generateEmployeeID: %w", err)
		}
		emp.EmployeeID = id
	}

	//a colliding id only costs a regeneration, the suffix is random.
	const maxIDRetries = 3
	for attempt := 0; ; attempt++ {
		err := b.store.Create(ctx, emp)
		if err == nil {
			return emp, nil
		}

		if errors.Is(err, ErrDuplicatedID) && attempt < maxIDRetries {
			id, genErr := GenerateEmployeeID(emp.Department.String(), emp.DateOfJoining.Format(DateLayout))
			if genErr != nil {
				return Employee{}, fmt.Errorf("generateEmployeeID: %w", genErr)
			}
			emp.EmployeeID = id
			continue
		}

		return Employee{}, fmt.Errorf("create: %w", err)
	}
}

// Update patches the given record. The employee id is the record's identity
// and never changes here, department is locked as well to keep the id prefix
// honest.
func (b *Bus) Update(ctx context.Context, emp Employee, updates UpdateEmployee) (Employee, error) {
	if updates.FullName != nil {
		emp.FullName = *updates.FullName
	}

	if updates.Email != nil {
		emp.Email = *updates.Email
	}

	if updates.PhoneNumber != nil {
		emp.PhoneNumber = *updates.PhoneNumber
	}

	if updates.Role != nil {
		emp.Role = *updates.Role
	}

	if updates.DateOfJoining != nil {
		emp.DateOfJoining = *updates.DateOfJoining
	}

	if updates.Password != nil && *updates.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*updates.Password), bcrypt.DefaultCost)
		if err != nil {
			return Employee{}, fmt.Errorf("generateFromPassword: %w", err)
		}

		emp.PasswordHash = hash
	}

	if updates.ProfileImageURL != nil {
		emp.ProfileImageURL = *updates.ProfileImageURL
	}

	emp.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := b.store.Update(ctx, emp); err != nil {
		return Employee{}, fmt.Errorf("update: %w", err)
	}

	return emp, nil
}

func (b *Bus) Delete(ctx context.Context, emp Employee) error {
	if err := b.store.Delete(ctx, emp); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

func (b *Bus) QueryByID(ctx context.Context, employeeID string) (Employee, error) {
	emp, err := b.store.QueryByID(ctx, employeeID)
	if err != nil {
		return Employee{}, fmt.Errorf("queryByID: %w", err)
	}

	return emp, nil
}

func (b *Bus) QueryByEmail(ctx context.Context, email mail.Address) (Employee, error) {
	emp, err := b.store.QueryByEmail(ctx, email)
	if err != nil {
		return Employee{}, fmt.Errorf("queryByEmail: %w", err)
	}

	return emp, nil
}

func (b *Bus) List(ctx context.Context) ([]Employee, error) {
	emps, err := b.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	return emps, nil
}

// Authenticate validates a password against the record behind the identifier.
// An identifier containing "@" is treated as an email, anything else as an
// employee id. Failures collapse into ErrInvalidCredentials so callers cannot
// probe which identifiers exist, except the employee-id path on a record with
// no linked identity, which is deliberately distinguishable as ErrNotActivated.
func (b *Bus) Authenticate(ctx context.Context, identifier string, password string) (Employee, error) {
	var emp Employee

	if strings.Contains(identifier, "@") {
		email, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(identifier)))
		if err != nil {
			return Employee{}, ErrInvalidCredentials
		}

		emp, err = b.store.QueryByEmail(ctx, *email)
		if errors.Is(err, ErrEmployeeNotFound) {
			return Employee{}, ErrInvalidCredentials
		}
		if err != nil {
			return Employee{}, fmt.Errorf("queryByEmail: %w", err)
		}
	} else {
		var err error
		emp, err = b.store.QueryByID(ctx, identifier)
		if errors.Is(err, ErrEmployeeNotFound) {
			return Employee{}, ErrInvalidCredentials
		}
		if err != nil {
			return Employee{}, fmt.Errorf("queryByID: %w", err)
		}

		if emp.AuthUserID == "" {
			return Employee{}, ErrNotActivated
		}
	}

	if len(emp.PasswordHash) == 0 {
		return Employee{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(emp.PasswordHash, []byte(password)); err != nil {
		return Employee{}, ErrInvalidCredentials
	}

	return emp, nil
}

// LinkIdentity attaches an external sign-in identity to the employee record
// matching the email. A record already linked to a different identity is a
// conflict, never a merge; re-linking the same identity is a no-op.
func (b *Bus) LinkIdentity(ctx context.Context, email mail.Address, authUserID string) (Employee, error) {
	emp, err := b.store.QueryByEmail(ctx, email)
	if err != nil {
		return Employee{}, fmt.Errorf("queryByEmail: %w", err)
	}

	if emp.AuthUserID == authUserID {
		return emp, nil
	}

	if emp.AuthUserID != "" {
		return Employee{}, ErrIdentityConflict
	}

	emp.AuthUserID = authUserID
	emp.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if err := b.store.Update(ctx, emp); err != nil {
		return Employee{}, fmt.Errorf("update: %w", err)
	}

	return emp, nil
}
