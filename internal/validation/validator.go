package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const maxPercentage = 100

// New returns a configured validator with custom tags and struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// "required" accepts whitespace-only strings; notblank does not.
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	v.RegisterStructValidation(issueCodeStructValidation, IssueCodeRequest{})

	return v
}

// issueCodeStructValidation keeps the discount pair consistent: both or
// neither, and a percentage no larger than 100.
func issueCodeStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(IssueCodeRequest)

	switch {
	case req.DiscountValue != nil && req.DiscountType == "":
		sl.ReportError(req.DiscountType, "discountType", "DiscountType", "required_with_value", "")
	case req.DiscountValue == nil && req.DiscountType != "":
		sl.ReportError(req.DiscountValue, "discountValue", "DiscountValue", "required_with_type", "")
	case req.DiscountType == "percentage" && *req.DiscountValue > maxPercentage:
		sl.ReportError(req.DiscountValue, "discountValue", "DiscountValue", "max_percentage", "100")
	}
}
