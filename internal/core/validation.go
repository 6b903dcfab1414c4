package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewCompany is the payload for creating a single record.
// updated_at is always assigned by the server.
type NewCompany struct {
	RegistryCode string `json:"cnpj" validate:"required,max=32"`
	LegalName    string `json:"denom_social" validate:"required"`
	StatusCode   string `json:"sit" validate:"required"`
}

// Validate trims the payload and checks required fields.
func (n *NewCompany) Validate() error {
	n.RegistryCode = strings.TrimSpace(n.RegistryCode)
	n.LegalName = strings.TrimSpace(n.LegalName)
	n.StatusCode = strings.TrimSpace(n.StatusCode)

	err := validate.Struct(n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldProblem{Field: fe.Field(), Rule: fe.Tag()})
	}
	return ve
}

// Company converts the payload to a record stamped at the given time.
func (n NewCompany) Company(at time.Time) Company {
	return Company{
		RegistryCode: n.RegistryCode,
		LegalName:    n.LegalName,
		StatusCode:   n.StatusCode,
		UpdatedAt:    at,
	}
}

// FieldProblem names a field and the rule it failed.
type FieldProblem struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError reports an invalid create payload.
type ValidationError struct {
	Fields []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Rule == "required" {
			parts[i] = f.Field
		} else {
			parts[i] = fmt.Sprintf("%s (%s)", f.Field, f.Rule)
		}
	}
	return "invalid field(s): " + strings.Join(parts, ", ")
}
