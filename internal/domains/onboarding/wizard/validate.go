package wizard

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
)

// DefaultPhonePattern accepts Indian mobile numbers, the deployment this
// directory serves. The pattern is configuration, not a constant of the
// domain.
const DefaultPhonePattern = `^(?:\+91[-\s]?|0)?[6-9]\d{9}$`

// Validator checks one wizard step at a time and reports failures as
// field->message pairs. It never mutates the record and never panics on bad
// input.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(phonePattern string) (*Validator, error) {
	if phonePattern == "" {
		phonePattern = DefaultPhonePattern
	}

	phoneRE, err := regexp.Compile(phonePattern)
	if err != nil {
		return nil, fmt.Errorf("compiling phone pattern: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, fmt.Errorf("registering default translations: %w", err)
	}

	//use json tag names instead of struct field names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := field.Tag.Get("json")
		name := strings.SplitN(tag, ",", 2)[0]

		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRE.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("registering phone validation: %w", err)
	}

	if err := validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("registering strongpassword validation: %w", err)
	}

	if err := validate.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		_, err := bus.ParseDepartment(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("registering department validation: %w", err)
	}

	messages := map[string]string{
		"phone":          "{0} must be a valid phone number",
		"strongpassword": "{0} must include uppercase, lowercase, number, and special character",
		"department":     "{0} must be a known department",
	}

	for tag, msg := range messages {
		if err := registerMessage(validate, translator, tag, msg); err != nil {
			return nil, err
		}
	}

	return &Validator{
		validate:   validate,
		translator: translator,
	}, nil
}

// CheckStep validates the part of the record the given step owns. A nil map
// means the step is valid.
func (v *Validator) CheckStep(step int, rec Record, editing bool) map[string]string {
	var model any

	switch step {
	case StepBasicInfo:
		model = stepBasicInfo{
			FullName:    rec.FullName,
			Email:       rec.Email,
			PhoneNumber: rec.PhoneNumber,
		}
	case StepJobDetails:
		model = stepJobDetails{
			Department:    rec.Department,
			Role:          rec.Role,
			DateOfJoining: rec.DateOfJoining,
		}
	case StepAccountSetup:
		if editing {
			//an existing record keeps its credentials unless new ones are typed
			model = stepAccountSetupEdit{
				EmployeeID:      rec.EmployeeID,
				Password:        rec.Password,
				ConfirmPassword: rec.ConfirmPassword,
			}
		} else {
			model = stepAccountSetup{
				EmployeeID:      rec.EmployeeID,
				Password:        rec.Password,
				ConfirmPassword: rec.ConfirmPassword,
			}
		}
	default:
		return map[string]string{"step": fmt.Sprintf("unknown step: %d", step)}
	}

	return v.check(model)
}

// CheckRecord validates the whole record at once, the way a direct API create
// or update sees it.
func (v *Validator) CheckRecord(rec Record, editing bool) map[string]string {
	fields := make(map[string]string)

	for _, step := range []int{StepBasicInfo, StepJobDetails, StepAccountSetup} {
		for f, msg := range v.CheckStep(step, rec, editing) {
			fields[f] = msg
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return fields
}

func (v *Validator) check(value any) map[string]string {
	if err := v.validate.Struct(value); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"err": err.Error()}
		}

		fieldErrs := make(map[string]string, len(verrors))
		for _, e := range verrors {
			fieldErrs[e.Field()] = e.Translate(v.translator)
		}

		return fieldErrs
	}

	return nil
}

//==============================================================================

type stepBasicInfo struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
}

type stepJobDetails struct {
	Department    string `json:"department" validate:"required,department"`
	Role          string `json:"role" validate:"required"`
	DateOfJoining string `json:"dateOfJoining" validate:"required,datetime=2006-01-02"`
}

type stepAccountSetup struct {
	EmployeeID      string `json:"employeeId" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// stepAccountSetupEdit relaxes the password to optional: both fields empty
// means no credential change was requested.
type stepAccountSetupEdit struct {
	EmployeeID      string `json:"employeeId" validate:"required"`
	Password        string `json:"password" validate:"omitempty,min=8,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

func strongPassword(s string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	return lower && upper && digit && symbol
}

func registerMessage(validate *validator.Validate, translator ut.Translator, tag string, msg string) error {
	registerFn := func(ut ut.Translator) error {
		return ut.Add(tag, msg, true)
	}

	translationFn := func(ut ut.Translator, fe validator.FieldError) string {
		t, err := ut.T(tag, fe.Field())
		if err != nil {
			return fe.Error()
		}
		return t
	}

	if err := validate.RegisterTranslation(tag, translator, registerFn, translationFn); err != nil {
		return fmt.Errorf("registering %s translation: %w", tag, err)
	}

	return nil
}
