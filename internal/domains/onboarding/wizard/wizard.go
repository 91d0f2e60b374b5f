// Package wizard drives the three step onboarding flow: per-session draft
// state, step validation and the employee id lifecycle. Sessions live in
// process memory, abandoning one costs nothing.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/pkg/logger"
)

// Wizard steps in order.
const (
	StepBasicInfo    = 1
	StepJobDetails   = 2
	StepAccountSetup = 3
)

var (
	ErrSessionNotFound  = errors.New("onboarding session not found")
	ErrStepInvalid      = errors.New("current step has validation errors")
	ErrDepartmentLocked = errors.New("department cannot change on an existing employee")
	ErrSubmitInFlight   = errors.New("submit already in progress")
	ErrNotAtFinalStep   = errors.New("submit is only allowed from the final step")
)

// Record is the draft the wizard accumulates. Everything is kept in wire form
// until submit, the employee bus owns parsing into domain types.
type Record struct {
	FullName        string
	Email           string
	PhoneNumber     string
	Department      string
	Role            string
	DateOfJoining   string
	EmployeeID      string
	Password        string
	ConfirmPassword string
	ProfileImageURL string
}

// UpdateRecord patches a draft. Nil means leave the field alone.
type UpdateRecord struct {
	FullName        *string
	Email           *string
	PhoneNumber     *string
	Department      *string
	Role            *string
	DateOfJoining   *string
	Password        *string
	ConfirmPassword *string
	ProfileImageURL *string
}

// Session is a snapshot handed to callers. Mutations go through the store.
type Session struct {
	ID        uuid.UUID
	Step      int
	Editing   bool
	Record    Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

type session struct {
	id         uuid.UUID
	step       int
	editing    bool
	record     Record
	submitting bool
	createdAt  time.Time
	updatedAt  time.Time
}

func (s *session) snapshot() Session {
	return Session{
		ID:        s.id,
		Step:      s.step,
		Editing:   s.editing,
		Record:    s.record,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Store keeps wizard sessions in memory keyed by a random id. Safe for
// concurrent use.
type Store struct {
	log      *logger.Logger
	validate *Validator

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewStore(log *logger.Logger, validate *Validator) *Store {
	return &Store{
		log:      log,
		validate: validate,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Start opens a fresh create-mode session at step one.
func (s *Store) Start() Session {
	now := time.Now()
	sn := session{
		id:        uuid.New(),
		step:      StepBasicInfo,
		record:    Record{},
		createdAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sn.id] = &sn

	return sn.snapshot()
}

// Seed opens an edit-mode session pre-filled from an existing record. The
// password fields start empty, blank credentials on submit mean keep the
// current ones.
func (s *Store) Seed(emp bus.Employee) Session {
	now := time.Now()
	sn := session{
		id:      uuid.New(),
		step:    StepBasicInfo,
		editing: true,
		record: Record{
			FullName:        emp.FullName,
			Email:           emp.Email.Address,
			PhoneNumber:     emp.PhoneNumber,
			Department:      emp.Department.String(),
			Role:            emp.Role,
			DateOfJoining:   emp.DateOfJoining.Format(bus.DateLayout),
			EmployeeID:      emp.EmployeeID,
			ProfileImageURL: emp.ProfileImageURL,
		},
		createdAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sn.id] = &sn

	return sn.snapshot()
}

func (s *Store) Get(id uuid.UUID) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	return sn.snapshot(), nil
}

// Update patches the draft and maintains the employee id: in create mode a
// department or join date change that genuinely alters the id's year or prefix
// regenerates it, re-entering the same values leaves it alone. In edit mode
// the id never changes and the department is locked.
func (s *Store) Update(ctx context.Context, id uuid.UUID, ur UpdateRecord) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	if sn.editing && ur.Department != nil && *ur.Department != sn.record.Department {
		return Session{}, ErrDepartmentLocked
	}

	rec := &sn.record

	if ur.FullName != nil {
		rec.FullName = *ur.FullName
	}
	if ur.Email != nil {
		rec.Email = *ur.Email
	}
	if ur.PhoneNumber != nil {
		rec.PhoneNumber = *ur.PhoneNumber
	}
	if ur.Department != nil {
		rec.Department = *ur.Department
	}
	if ur.Role != nil {
		rec.Role = *ur.Role
	}
	if ur.DateOfJoining != nil {
		rec.DateOfJoining = *ur.DateOfJoining
	}
	if ur.Password != nil {
		rec.Password = *ur.Password
	}
	if ur.ConfirmPassword != nil {
		rec.ConfirmPassword = *ur.ConfirmPassword
	}
	if ur.ProfileImageURL != nil {
		rec.ProfileImageURL = *ur.ProfileImageURL
	}

	if !sn.editing && (ur.Department != nil || ur.DateOfJoining != nil) {
		s.refreshID(ctx, sn)
	}

	sn.updatedAt = time.Now()

	return sn.snapshot(), nil
}

func (s *Store) refreshID(ctx context.Context, sn *session) {
	rec := &sn.record

	//no id without both inputs, and clearing one takes a generated id with it
	if rec.Department == "" || rec.DateOfJoining == "" {
		rec.EmployeeID = ""
		return
	}

	if bus.ConsistentEmployeeID(rec.EmployeeID, rec.Department, rec.DateOfJoining) {
		return
	}

	id, err := bus.GenerateEmployeeID(rec.Department, rec.DateOfJoining)
	if err != nil {
		//an unparseable date is caught again by step validation, just
		//make sure a stale id is not left behind
		s.log.Warn(ctx, "employee id generation failed", "sessionID", sn.id, "error", err.Error())
		rec.EmployeeID = ""
		return
	}

	rec.EmployeeID = id
}

// Next validates the current step and advances on success. Validation failures
// come back as field->message pairs alongside ErrStepInvalid.
func (s *Store) Next(id uuid.UUID) (Session, map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.sessions[id]
	if !ok {
		return Session{}, nil, ErrSessionNotFound
	}

	if fields := s.validate.CheckStep(sn.step, sn.record, sn.editing); fields != nil {
		return sn.snapshot(), fields, ErrStepInvalid
	}

	if sn.step < StepAccountSetup {
		sn.step++
		sn.updatedAt = time.Now()
	}

	return sn.snapshot(), nil, nil
}

// Back steps backwards without validating, entered values stay in the draft.
// At step one it is a no-op.
func (s *Store) Back(id uuid.UUID) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	if sn.step > StepBasicInfo {
		sn.step--
		sn.updatedAt = time.Now()
	}

	return sn.snapshot(), nil
}

// BeginSubmit validates the final step and marks the session as submitting. A
// second call before EndSubmit fails with ErrSubmitInFlight, that is the guard
// against double clicks racing each other.
func (s *Store) BeginSubmit(id uuid.UUID) (Session, map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.sessions[id]
	if !ok {
		return Session{}, nil, ErrSessionNotFound
	}

	if sn.step != StepAccountSetup {
		return sn.snapshot(), nil, ErrNotAtFinalStep
	}

	if sn.submitting {
		return sn.snapshot(), nil, ErrSubmitInFlight
	}

	if fields := s.validate.CheckStep(StepAccountSetup, sn.record, sn.editing); fields != nil {
		return sn.snapshot(), fields, ErrStepInvalid
	}

	sn.submitting = true

	return sn.snapshot(), nil, nil
}

// EndSubmit closes out a submit attempt. Success removes the session, failure
// keeps it at the final step so the caller can correct and retry.
func (s *Store) EndSubmit(id uuid.UUID, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, ok := s.sessions[id]
	if !ok {
		return
	}

	if success {
		delete(s.sessions, id)
		return
	}

	sn.submitting = false
	sn.updatedAt = time.Now()
}
