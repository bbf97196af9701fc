package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/cbt-service/internal/models"
)

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Messages flattens the errors to "field message" strings.
func (ve ValidationErrors) Messages() []string {
	out := make([]string, len(ve))
	for i, e := range ve {
		out[i] = strings.TrimSpace(e.Field + " " + e.Message)
	}
	return out
}

var (
	classLevelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]{0,19}$`)
	sessionPattern    = regexp.MustCompile(`^(\d{4})/(\d{4})$`)
)

// Validator wraps go-playground validation with the school rules
// registered.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	out := &Validator{validate: v}
	out.registerRules()
	return out
}

// Validate returns nil or a ValidationErrors value.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	if ve := ToValidationErrors(err); len(ve) > 0 {
		return ve
	}
	return err
}

// ValidateQuestion adds the cross-field option rules to struct validation.
func (v *Validator) ValidateQuestion(req *models.QuestionCreateRequest) error {
	var errs ValidationErrors
	if err := v.Validate(req); err != nil {
		var ve ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		errs = append(errs, ve...)
	}
	errs = append(errs, QuestionRules(req)...)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// QuestionRules catches whitespace-only fields, which pass required, and an
// answer key naming an inactive option.
func QuestionRules(req *models.QuestionCreateRequest) ValidationErrors {
	var errs ValidationErrors

	for i, text := range []string{req.OptionA, req.OptionB, req.OptionC, req.OptionD} {
		if text != "" && strings.TrimSpace(text) == "" {
			errs = append(errs, ValidationError{
				Field:   "option_" + strings.ToLower(string(models.OptionLabels[i])),
				Message: "is required",
				Rule:    "required",
			})
		}
	}

	label, ok := models.ParseOptionLabel(req.CorrectOption)
	if !ok && strings.TrimSpace(req.CorrectOption) == "" && req.CorrectOption != "" {
		errs = append(errs, ValidationError{Field: "correct_option", Message: "is required", Rule: "required"})
	}
	if ok && label == models.OptionE && (req.OptionE == nil || strings.TrimSpace(*req.OptionE) == "") {
		errs = append(errs, ValidationError{
			Field:   "correct_option",
			Message: "names option E but option E is empty",
			Value:   req.CorrectOption,
			Rule:    "active_option",
		})
	}
	return errs
}

func ToValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func (v *Validator) registerRules() {
	// Blank is allowed here; required decides whether a label must be given.
	_ = v.validate.RegisterValidation("option_label", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.TrimSpace(s) == "" {
			return true
		}
		_, ok := models.ParseOptionLabel(s)
		return ok
	})

	_ = v.validate.RegisterValidation("class_level", func(fl validator.FieldLevel) bool {
		return IsClassLevel(fl.Field().String())
	})

	_ = v.validate.RegisterValidation("term", func(fl validator.FieldLevel) bool {
		t := fl.Field().Int()
		return t >= 1 && t <= 3
	})

	_ = v.validate.RegisterValidation("session_label", func(fl validator.FieldLevel) bool {
		return IsSessionLabel(fl.Field().String())
	})
}

func IsClassLevel(s string) bool {
	return classLevelPattern.MatchString(strings.TrimSpace(s))
}

// IsSessionLabel accepts "2024/2025": two consecutive years.
func IsSessionLabel(s string) bool {
	m := sessionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return false
	}
	from, _ := strconv.Atoi(m[1])
	to, _ := strconv.Atoi(m[2])
	return to == from+1
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "option_label":
		return "must be one of A, B, C, D, E"
	case "class_level":
		return "must be a class level such as JSS1 or SS2"
	case "term":
		return "must be 1, 2 or 3"
	case "session_label":
		return "must look like 2024/2025"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", fe.Tag())
	}
}
