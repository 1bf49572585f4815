package intake

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

// Validator gates backend summaries. The contract, expressed as struct tags
// on domain.ReportSummary:
//   - title: present and not blank
//   - summary: longer than 10 characters
//   - category, severity: members of their enumerations
//   - keyPoints: present as a list, possibly empty
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validateNotBlank)
	return &Validator{validate: v}
}

// Validate returns nil when s satisfies the summary contract.
func (v *Validator) Validate(s domain.ReportSummary) error {
	return v.validate.Struct(s)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
