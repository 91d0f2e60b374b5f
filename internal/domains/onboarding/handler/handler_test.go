package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
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
	tracer := otel.Tracer("onboarding_handler_test")

	store := employeedb.NewStore(db, tracer)
	empBus := bus.New(store)

	log := logger.New(io.Discard, logger.LevelInfo, logger.EnvironmentDev, "test", nil)

	validate, err := wizard.NewValidator("")
	if err != nil {
		t.Fatalf("newValidator: %s", err)
	}

	sessions := wizard.NewStore(log, validate)

	ks := newKeyStore(t)
	a := auth.New(ks, "onboarding_handler_test")

	r := gin.New()
	r.Use(mid.Error(log))

	RegisterRoutes(Conf{
		Router:      r,
		Sessions:    sessions,
		EmployeeBus: empBus,
		Auth:        a,
		Tracer:      tracer,
		Logger:      log,
	})

	seed, err := empBus.Create(context.Background(), bus.NewEmployee{
		EmployeeID:    "23HR4821",
		FullName:      "Jane Smith",
		Email:         mail.Address{Address: "jane@example.com"},
		PhoneNumber:   "9876500000",
		Department:    bus.DepartmentHumanResources,
		Role:          "HR Specialist",
		DateOfJoining: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Password:      "Seed#Pass1",
	})
	if err != nil {
		t.Fatalf("seeding employee: %s", err)
	}

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "onboarding_handler_test",
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

func (s setup) do(t *testing.T, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}

	r.Header.Set("authorization", s.bearer)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) session {
	t.Helper()

	var sn session
	if err := json.NewDecoder(w.Body).Decode(&sn); err != nil {
		t.Fatalf("failed to decode session: %s", err)
	}
	return sn
}

func Test_WizardCreateFlow(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	w := s.do(t, http.MethodPost, "/v1/onboarding", "")
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusCreated, w.Result().StatusCode, w.Body.String())
	}

	sn := decodeSession(t, w)
	base := "/v1/onboarding/" + sn.SessionID

	//next on an empty step one fails with field errors
	w = s.do(t, http.MethodPost, base+"/next", "")
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, got=%d", http.StatusBadRequest, w.Result().StatusCode)
	}

	var appErr errs.Error
	if err := json.NewDecoder(w.Body).Decode(&appErr); err != nil {
		t.Fatalf("failed to decode error: %s", err)
	}
	if len(appErr.Fields) == 0 {
		t.Fatal("expected per-field errors")
	}

	//step one
	w = s.do(t, http.MethodPut, base, `{"fullName":"John Doe","email":"john@example.com","phoneNumber":"9876543210"}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	w = s.do(t, http.MethodPost, base+"/next", "")
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	//step two, the id appears once department and date are known
	w = s.do(t, http.MethodPut, base, `{"department":"Engineering","role":"Software Engineer","dateOfJoining":"2024-03-15"}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	sn = decodeSession(t, w)
	if !strings.HasPrefix(sn.Record.EmployeeID, "24ENG") {
		t.Fatalf("employeeId: got %q, want prefix 24ENG", sn.Record.EmployeeID)
	}

	w = s.do(t, http.MethodPost, base+"/next", "")
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	//step three
	w = s.do(t, http.MethodPut, base, `{"password":"Str0ng#Pass","confirmPassword":"Str0ng#Pass"}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	w = s.do(t, http.MethodPost, base+"/submit", "")
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusCreated, w.Result().StatusCode, w.Body.String())
	}

	var created employee
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode employee: %s", err)
	}

	//the directory grew by one with matching fields
	emp, err := s.empBus.QueryByID(context.Background(), created.EmployeeID)
	if err != nil {
		t.Fatalf("submitted employee not found: %s", err)
	}

	if emp.FullName != "John Doe" || emp.Email.Address != "john@example.com" {
		t.Errorf("persisted record does not match the draft: %+v", emp)
	}

	//a successful submit removes the session
	w = s.do(t, http.MethodGet, base, "")
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, got=%d", http.StatusNotFound, w.Result().StatusCode)
	}
}

func Test_WizardEditFlow(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	w := s.do(t, http.MethodPost, "/v1/onboarding/edit", `{"employeeId":"23HR4821"}`)
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusCreated, w.Result().StatusCode, w.Body.String())
	}

	sn := decodeSession(t, w)
	if !sn.Editing {
		t.Fatal("expected an edit mode session")
	}

	if sn.Record.FullName != "Jane Smith" {
		t.Fatalf("fullName=%s, got=%s", "Jane Smith", sn.Record.FullName)
	}

	base := "/v1/onboarding/" + sn.SessionID

	//department is locked in edit mode
	w = s.do(t, http.MethodPut, base, `{"department":"Engineering"}`)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, got=%d", http.StatusBadRequest, w.Result().StatusCode)
	}

	//rename and walk to the end, credentials stay untouched
	w = s.do(t, http.MethodPut, base, `{"fullName":"Jane Renamed"}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
	}

	for range 2 {
		w = s.do(t, http.MethodPost, base+"/next", "")
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("status=%d, got=%d, body=%s", http.StatusOK, w.Result().StatusCode, w.Body.String())
		}
	}

	w = s.do(t, http.MethodPost, base+"/submit", "")
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status=%d, got=%d, body=%s", http.StatusCreated, w.Result().StatusCode, w.Body.String())
	}

	emp, err := s.empBus.QueryByID(context.Background(), "23HR4821")
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}

	if emp.FullName != "Jane Renamed" {
		t.Errorf("fullName=%s, got=%s", "Jane Renamed", emp.FullName)
	}

	//the id never changed
	if emp.EmployeeID != "23HR4821" {
		t.Errorf("employeeId=%s, got=%s", "23HR4821", emp.EmployeeID)
	}
}

func Test_WizardUnknownSession(t *testing.T) {
	t.Parallel()

	s := setupPerTest(t)

	target := fmt.Sprintf("/v1/onboarding/%s", uuid.NewString())
	if w := s.do(t, http.MethodGet, target, ""); w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, got=%d", http.StatusNotFound, w.Result().StatusCode)
	}

	if w := s.do(t, http.MethodGet, "/v1/onboarding/not-a-uuid", ""); w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, got=%d", http.StatusBadRequest, w.Result().StatusCode)
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
