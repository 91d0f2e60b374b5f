// Package employeedb handles persistence of employee records in Postgres.
package employeedb

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	empBus "github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

type Store struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

func NewStore(db *sqlx.DB, tracer trace.Tracer) *Store {
	return &Store{
		db:     db,
		tracer: tracer,
	}
}

func (s *Store) Create(ctx context.Context, emp empBus.Employee) error {
	const q = `
	INSERT INTO employees (employee_id,full_name,email,phone_number,department,role,date_of_joining,password_hash,auth_user_id,profile_image_url,created_at,updated_at)
	VALUES (:employee_id,:full_name,:email,:phone_number,:department,:role,:date_of_joining,:password_hash,:auth_user_id,:profile_image_url,:created_at,:updated_at)
	`

	ctx, span := s.tracer.Start(ctx, "employee.store.create")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusEmployee(emp)); err != nil {
		return uniqueViolationError(err)
	}

	return nil
}

func (s *Store) Update(ctx context.Context, emp empBus.Employee) error {
	const q = `
	UPDATE employees
	SET
		full_name = :full_name,
		email = :email,
		phone_number = :phone_number,
		role = :role,
		date_of_joining = :date_of_joining,
		password_hash = :password_hash,
		auth_user_id = :auth_user_id,
		profile_image_url = :profile_image_url,
		updated_at = :updated_at
	WHERE
		employee_id = :employee_id;
	`

	ctx, span := s.tracer.Start(ctx, "employee.store.update")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusEmployee(emp)); err != nil {
		return uniqueViolationError(err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, emp empBus.Employee) error {
	//callers pass a full Employee value, so this layer does not need its own
	//"not found" check.
	const q = `
	DELETE FROM employees WHERE employee_id = :employee_id;
	`

	ctx, span := s.tracer.Start(ctx, "employee.store.delete")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusEmployee(emp)); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}
	return nil
}

func (s *Store) QueryByID(ctx context.Context, employeeID string) (empBus.Employee, error) {
	data := map[string]any{
		"employee_id": employeeID,
	}

	const q = `SELECT * FROM employees WHERE employee_id = :employee_id;`

	ctx, span := s.tracer.Start(ctx, "employee.store.queryByID")
	defer span.End()

	return s.queryOne(ctx, q, data)
}

func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (empBus.Employee, error) {
	data := map[string]any{
		"email": email.Address,
	}

	const q = `SELECT * FROM employees WHERE email = :email;`

	ctx, span := s.tracer.Start(ctx, "employee.store.queryByEmail")
	defer span.End()

	return s.queryOne(ctx, q, data)
}

func (s *Store) List(ctx context.Context) ([]empBus.Employee, error) {
	const q = `SELECT * FROM employees ORDER BY created_at ASC;`

	ctx, span := s.tracer.Start(ctx, "employee.store.list")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("namedQueryContext: %w", err)
	}

	defer rows.Close()

	var emps []empBus.Employee
	for rows.Next() {
		var emp employee
		if err := rows.StructScan(&emp); err != nil {
			return nil, fmt.Errorf("structScan: %w", err)
		}

		busEmp, err := toBusEmployee(emp)
		if err != nil {
			return nil, fmt.Errorf("toBusEmployee: %w", err)
		}
		emps = append(emps, busEmp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("preparing next row to scan: %w", err)
	}

	return emps, nil
}

func (s *Store) queryOne(ctx context.Context, q string, data map[string]any) (empBus.Employee, error) {
	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return empBus.Employee{}, fmt.Errorf("namedQueryContext: %w", err)
	}

	defer rows.Close()

	//Next returns false when there is no row to move to.
	if !rows.Next() {
		return empBus.Employee{}, empBus.ErrEmployeeNotFound
	}

	var emp employee
	if err := rows.StructScan(&emp); err != nil {
		return empBus.Employee{}, fmt.Errorf("structScan: %w", err)
	}

	busEmp, err := toBusEmployee(emp)
	if err != nil {
		return empBus.Employee{}, fmt.Errorf("toBusEmployee: %w", err)
	}

	return busEmp, nil
}

// uniqueViolationError maps a postgres unique violation to the domain
// sentinel for whichever constraint tripped.
func uniqueViolationError(err error) error {
	var pgerror *pgconn.PgError
	if errors.As(err, &pgerror) && pgerror.Code == uniqueViolation {
		switch pgerror.ConstraintName {
		case "employees_pkey":
			return empBus.ErrDuplicatedID
		case "employees_email_key":
			return empBus.ErrDuplicatedEmail
		case "employees_auth_user_id_key":
			return empBus.ErrIdentityConflict
		}
		return empBus.ErrDuplicatedID
	}

	return fmt.Errorf("namedExecContext: %w", err)
}
