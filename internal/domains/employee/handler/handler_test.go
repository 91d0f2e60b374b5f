package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/dbtest"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/internal/domains/employee/store/employeedb"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
	"github.com/staffdesk/staffdesk/internal/errs"
	"github.com/staffdesk/staffdesk/internal/mid"
	"github.com/staffdesk/staffdesk/internal/storage/avatars"
	"github.com/staffdesk/staffdesk/pkg/docker"
	"github.com/staffdesk/staffdesk/pkg/logger"
	"go.opentelemetry.io/otel"
)

var container docker.Container

func TestMain(m *testing.M) {
	// before all
	var err error
	container, err = dbtest.CreateDBContainer()
	if err != nil {
		os.Exit(1)
	}

	gin.SetMode(gin.TestMode)

	// tests
	code := m.Run()

	// after all
	docker.StopContainer(container.Name)

	os.Exit(code)
}

type setup struct {
	router *gin.Engine
	empBus *bus.Bus
	bearer string
}

func setupPerTest(t *testing.T) setup {
	t.Helper()

	db := dbtest.New(t, container)
	tracer := otel.Tracer("employee_handler_test")

	store := employeedb.NewStore(db, tracer)
	empBus := bus.New(store)

	validate, err := wizard.NewValidator("")
	if err != nil {
		t.Fatalf("newValidator: %s", err)
	}

	avatarStore, err := avatars.New(t.TempDir(), "/static/avatars")
	if err != nil {
		t.Fatalf("avatar store: %s", err)
	}

	log := logger.New(io.Discard, logger.LevelInfo, logger.EnvironmentDev, "test", nil)

	ks := newKeyStore(t)
	a := auth.New(ks, "handler_test")

	r := gin.New()
	r.Use(mid.Error(log))

	RegisterRoutes(Conf{
		Router:      r,
		EmployeeBus: empBus,
		Validator:   validate,
		Avatars:     avatarStore,
		Auth:        a,
		Tracer:      tracer,
		Logger:      log,
	})

	//the authenticate middleware resolves the token subject against the db,
	//so seed an admin-ish record to own the session
	seed, err := empBus.Create(context.Background(), bus.NewEmployee{
		EmployeeID:    "24HR1000",
		FullName:      "Seed Admin",
		Email:         mail.Address{Address: "seed@example.com"},
		PhoneNumber:   "9876500000",
		Department:    bus.DepartmentHumanResources,
		Role:          "HR Specialist",
		DateOfJoining: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Password:      "Seed#Pass1",
	})
	if err != nil {
		t.Fatalf("seeding employee: %s", err)
	}

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "handler_test",
			Subject:   seed.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{auth.RoleEmployee},
	}

	token, err := a.GenerateToken(ks.kid, claims)
	if err != nil {
		t.Fatalf("generateToken: %s", err)
	}

	return setup{
		router: r,
		empBus: empBus,
		bearer: "Bearer " + token,
	}
}

func Test_CreateEmployee(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	tests := []struct {
		name       string
		newEmp     newEmployee
		statusCode int
	}{
		{
			name: "create_employee_201",
			newEmp: newEmployee{
				FullName:        "John Doe",
				Email:           "john@example.com",
				PhoneNumber:     "9876543210",
				Department:      "Engineering",
				Role:            "Software Engineer",
				DateOfJoining:   "2024-03-15",
				Password:        "Str0ng#Pass",
				ConfirmPassword: "Str0ng#Pass",
			},
			statusCode: http.StatusCreated,
		},
		{
			name: "create_employee_400",
			newEmp: newEmployee{
				FullName:        "",
				Email:           "john.com",
				PhoneNumber:     "12345",
				Department:      "Loading",
				Role:            "",
				DateOfJoining:   "15-03-2024",
				Password:        "weak",
				ConfirmPassword: "weaker",
			},
			statusCode: http.StatusBadRequest,
		},
		{
			name: "create_employee_duplicated_email",
			newEmp: newEmployee{
				FullName:        "John Clone",
				Email:           "john@example.com",
				PhoneNumber:     "9876543211",
				Department:      "Engineering",
				Role:            "Software Engineer",
				DateOfJoining:   "2024-03-15",
				Password:        "Str0ng#Pass",
				ConfirmPassword: "Str0ng#Pass",
			},
			statusCode: http.StatusConflict,
		},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := json.NewEncoder(&buf).Encode(ts.newEmp); err != nil {
				t.Fatalf("failed to encode: %s", err)
			}

			r := httptest.NewRequest(http.MethodPost, "/v1/employees", &buf)
			r.Header.Set("authorization", s.bearer)
			w := httptest.NewRecorder()

			s.router.ServeHTTP(w, r)

			if w.Result().StatusCode != ts.statusCode {
				t.Fatalf("status=%d, got=%d, body=%s", ts.statusCode, w.Result().StatusCode, w.Body.String())
			}

			if ts.statusCode == http.StatusCreated {
				var created employee
				if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
					t.Fatalf("failed to decode employee: %s", err)
				}

				if !strings.HasPrefix(created.EmployeeID, "24ENG") {
					t.Errorf("employeeId: got %q, want prefix 24ENG", created.EmployeeID)
				}

				if created.FullName != ts.newEmp.FullName {
					t.Errorf("fullName=%s, got=%s", ts.newEmp.FullName, created.FullName)
				}
			}

			if ts.statusCode == http.StatusBadRequest {
				var appErr errs.Error
				if err := json.NewDecoder(w.Body).Decode(&appErr); err != nil {
					t.Fatalf("failed to decode error: %s", err)
				}

				if len(appErr.Fields) == 0 {
					t.Error("expected per-field validation errors")
				}
			}
		})
	}
}

func Test_CreateEmployeeUnauthorized(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	r := httptest.NewRequest(http.MethodPost, "/v1/employees", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d, got=%d", http.StatusUnauthorized, w.Result().StatusCode)
	}
}

func Test_ListEmployees(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	r := httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d", http.StatusOK, w.Result().StatusCode)
	}

	var emps []employee
	if err := json.NewDecoder(w.Body).Decode(&emps); err != nil {
		t.Fatalf("failed to decode list: %s", err)
	}

	//just the seeded record
	if len(emps) != 1 {
		t.Fatalf("expected one employee, got=%d", len(emps))
	}

	if emps[0].EmployeeID != "24HR1000" {
		t.Errorf("employeeId=%s, got=%s", "24HR1000", emps[0].EmployeeID)
	}
}

func Test_UpdateEmployee(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	do := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPut, "/v1/employees", strings.NewReader(body))
		r.Header.Set("authorization", s.bearer)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, r)
		return w
	}

	//happy path
	w := do(`{"employeeId":"24HR1000","fullName":"Seed Renamed"}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	var updated employee
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode employee: %s", err)
	}

	if updated.FullName != "Seed Renamed" {
		t.Errorf("fullName=%s, got=%s", "Seed Renamed", updated.FullName)
	}

	//unknown id
	w = do(`{"employeeId":"99ZZZ0000","fullName":"Ghost"}`)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, got=%d", http.StatusNotFound, w.Result().StatusCode)
	}

	//department is locked
	w = do(`{"employeeId":"24HR1000","department":"Engineering"}`)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, got=%d", http.StatusBadRequest, w.Result().StatusCode)
	}
}

func Test_DeleteEmployee(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	do := func(target string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodDelete, target, nil)
		r.Header.Set("authorization", s.bearer)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, r)
		return w
	}

	//no id
	if w := do("/v1/employees"); w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, got=%d", http.StatusBadRequest, w.Result().StatusCode)
	}

	//unknown id is a distinct 404
	if w := do("/v1/employees?id=99ZZZ0000"); w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, got=%d", http.StatusNotFound, w.Result().StatusCode)
	}

	//create one to delete so the seeded session owner stays around
	emp, err := s.empBus.Create(context.Background(), bus.NewEmployee{
		FullName:      "To Delete",
		Email:         mail.Address{Address: "delete@example.com"},
		PhoneNumber:   "9876500001",
		Department:    bus.DepartmentSales,
		Role:          "Sales Representative",
		DateOfJoining: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("creating employee: %s", err)
	}

	if w := do("/v1/employees?id=" + emp.EmployeeID); w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status=%d, got=%d", http.StatusNoContent, w.Result().StatusCode)
	}

	if _, err := s.empBus.QueryByID(context.Background(), emp.EmployeeID); err == nil {
		t.Fatal("employee should be gone")
	}
}

func Test_UpdateAvatar(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("employeeId", "24HR1000"); err != nil {
		t.Fatalf("writeField: %s", err)
	}

	fw, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("createFormFile: %s", err)
	}
	if _, err := fw.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("write: %s", err)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/v1/profile/update-avatar", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("authorization", s.bearer)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	var updated employee
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode employee: %s", err)
	}

	if !strings.HasPrefix(updated.ProfileImageURL, "/static/avatars/24HR1000/") {
		t.Errorf("profileImageUrl: got %q, want under /static/avatars/24HR1000/", updated.ProfileImageURL)
	}
}

// =============================================================================

type keyStore struct {
	pv  *rsa.PrivateKey
	pb  *rsa.PublicKey
	kid string
}

func newKeyStore(t *testing.T) *keyStore {
	pv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generateKey: %s", err)
	}

	return &keyStore{
		pv:  pv,
		pb:  &pv.PublicKey,
		kid: uuid.NewString(),
	}
}

func (ks *keyStore) PrivateKey(kid string) (*rsa.PrivateKey, error) {
	return ks.pv, nil
}
func (ks *keyStore) PublicKey(kid string) (*rsa.PublicKey, error) {
	return ks.pb, nil
}
