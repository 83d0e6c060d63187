// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/fiscalyear"
	"grantdesk/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("fiscal_year", validateFiscalYear)
	_ = v.RegisterValidation("budget_category", validateBudgetCategory)
	_ = v.RegisterValidation("approval_action", validateApprovalAction)
	_ = v.RegisterValidation("user_role", validateUserRole)
}

// jsonFieldName reports fields by their JSON name so error lists match
// the request body the client sent.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// decimalValue lets numeric tags such as gt=0 apply to decimal amounts.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateFiscalYear(fl validator.FieldLevel) bool {
	return fiscalyear.Valid(fl.Field().String())
}

func validateBudgetCategory(fl validator.FieldLevel) bool {
	return models.BudgetCategory(fl.Field().String()).IsValid()
}

func validateApprovalAction(fl validator.FieldLevel) bool {
	return models.BudgetRequestStatus(fl.Field().String()).IsTerminal()
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.UserRole(fl.Field().String()).IsAssignable()
}

// BindingError converts a gin binding failure into an INVALID_INPUT
// AppError, listing each failed field when the failure came from the
// validator rather than from malformed JSON.
func BindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return apperrors.WithFields(apperrors.ErrInvalidInput, "Request validation failed", fields)
}
