package wizard_test

import (
	"testing"

	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
)

func TestCheckStepBasicInfo(t *testing.T) {
	validate, err := wizard.NewValidator("")
	if err != nil {
		t.Fatalf("should create a validator: %s", err)
	}

	tests := []struct {
		name       string
		rec        wizard.Record
		wantFields []string
	}{
		{
			name: "valid",
			rec: wizard.Record{
				FullName:    "John Doe",
				Email:       "john@example.com",
				PhoneNumber: "9876543210",
			},
		},
		{
			name:       "all missing",
			rec:        wizard.Record{},
			wantFields: []string{"fullName", "email", "phoneNumber"},
		},
		{
			name: "bad email",
			rec: wizard.Record{
				FullName:    "John Doe",
				Email:       "john@",
				PhoneNumber: "9876543210",
			},
			wantFields: []string{"email"},
		},
		{
			name: "phone starts below six",
			rec: wizard.Record{
				FullName:    "John Doe",
				Email:       "john@example.com",
				PhoneNumber: "5876543210",
			},
			wantFields: []string{"phoneNumber"},
		},
		{
			name: "phone with country code",
			rec: wizard.Record{
				FullName:    "John Doe",
				Email:       "john@example.com",
				PhoneNumber: "+91 9876543210",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validate.CheckStep(wizard.StepBasicInfo, tt.rec, false)

			if len(tt.wantFields) == 0 {
				if fields != nil {
					t.Fatalf("should be valid, got %v", fields)
				}
				return
			}

			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Errorf("missing failure for field %q in %v", f, fields)
				}
			}
		})
	}
}

func TestCheckStepJobDetails(t *testing.T) {
	validate, err := wizard.NewValidator("")
	if err != nil {
		t.Fatalf("should create a validator: %s", err)
	}

	valid := wizard.Record{
		Department:    "Engineering",
		Role:          "Software Engineer",
		DateOfJoining: "2024-03-15",
	}

	if fields := validate.CheckStep(wizard.StepJobDetails, valid, false); fields != nil {
		t.Fatalf("should be valid, got %v", fields)
	}

	unknownDept := valid
	unknownDept.Department = "Astrology"
	if fields := validate.CheckStep(wizard.StepJobDetails, unknownDept, false); fields["department"] == "" {
		t.Errorf("should reject an unknown department, got %v", fields)
	}

	badDate := valid
	badDate.DateOfJoining = "15-03-2024"
	if fields := validate.CheckStep(wizard.StepJobDetails, badDate, false); fields["dateOfJoining"] == "" {
		t.Errorf("should reject a non iso date, got %v", fields)
	}
}

func TestCheckStepAccountSetup(t *testing.T) {
	validate, err := wizard.NewValidator("")
	if err != nil {
		t.Fatalf("should create a validator: %s", err)
	}

	tests := []struct {
		name      string
		rec       wizard.Record
		editing   bool
		wantField string
	}{
		{
			name: "valid",
			rec: wizard.Record{
				EmployeeID:      "24ENG1234",
				Password:        "Str0ng#Pass",
				ConfirmPassword: "Str0ng#Pass",
			},
		},
		{
			name: "too short",
			rec: wizard.Record{
				EmployeeID:      "24ENG1234",
				Password:        "S0#a",
				ConfirmPassword: "S0#a",
			},
			wantField: "password",
		},
		{
			name: "no symbol",
			rec: wizard.Record{
				EmployeeID:      "24ENG1234",
				Password:        "Str0ngPass",
				ConfirmPassword: "Str0ngPass",
			},
			wantField: "password",
		},
		{
			name: "no uppercase",
			rec: wizard.Record{
				EmployeeID:      "24ENG1234",
				Password:        "str0ng#pass",
				ConfirmPassword: "str0ng#pass",
			},
			wantField: "password",
		},
		{
			name: "mismatch",
			rec: wizard.Record{
				EmployeeID:      "24ENG1234",
				Password:        "Str0ng#Pass",
				ConfirmPassword: "Str0ng#Pas",
			},
			wantField: "confirmPassword",
		},
		{
			name: "create requires a password",
			rec: wizard.Record{
				EmployeeID: "24ENG1234",
			},
			wantField: "password",
		},
		{
			name: "edit allows empty credentials",
			rec: wizard.Record{
				EmployeeID: "23HR4821",
			},
			editing: true,
		},
		{
			name: "edit still checks a typed password",
			rec: wizard.Record{
				EmployeeID:      "23HR4821",
				Password:        "weak",
				ConfirmPassword: "weak",
			},
			editing:   true,
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validate.CheckStep(wizard.StepAccountSetup, tt.rec, tt.editing)

			if tt.wantField == "" {
				if fields != nil {
					t.Fatalf("should be valid, got %v", fields)
				}
				return
			}

			if _, ok := fields[tt.wantField]; !ok {
				t.Errorf("missing failure for field %q in %v", tt.wantField, fields)
			}
		})
	}
}

func TestCustomPhonePattern(t *testing.T) {
	validate, err := wizard.NewValidator(`^\d{3}-\d{4}$`)
	if err != nil {
		t.Fatalf("should create a validator: %s", err)
	}

	rec := wizard.Record{
		FullName:    "John Doe",
		Email:       "john@example.com",
		PhoneNumber: "555-0199",
	}

	if fields := validate.CheckStep(wizard.StepBasicInfo, rec, false); fields != nil {
		t.Fatalf("should accept the configured format, got %v", fields)
	}

	rec.PhoneNumber = "9876543210"
	if fields := validate.CheckStep(wizard.StepBasicInfo, rec, false); fields["phoneNumber"] == "" {
		t.Errorf("should reject numbers outside the configured format, got %v", fields)
	}

	if _, err := wizard.NewValidator("["); err == nil {
		t.Error("should reject an invalid pattern")
	}
}
