package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"fleetdesk/internal/models"
	"fleetdesk/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// report json names rather than Go field names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("stop_status", validateStopStatus)
	validate.RegisterValidation("inspection_status", validateInspectionStatus)
	validate.RegisterValidation("driver_status", validateDriverStatus)
	validate.RegisterValidation("vehicle_status", validateVehicleStatus)
}

var ErrEmptyRequest = errors.New("request contains no changes")

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details flattens the errors into the response envelope format.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}
	return validationErrors
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "url":
		return "Invalid URL"
	case "phone_number":
		return "Invalid phone number format"
	case "stop_status":
		return "Status must be arrived, completed or failed"
	case "inspection_status":
		return "Status must be good, fair, poor, missing or not_applicable"
	case "driver_status":
		return "Status must be Idle, Available, Off-duty or Inactive"
	case "vehicle_status":
		return "Status must be Active, Parked, Idle, Maintenance or Inactive"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return utils.IsValidPhone(phone)
}

// stop updates never move a stop back to pending
func validateStopStatus(fl validator.FieldLevel) bool {
	switch models.StopStatus(fl.Field().String()) {
	case models.StopStatusArrived, models.StopStatusCompleted, models.StopStatusFailed:
		return true
	}
	return false
}

func validateInspectionStatus(fl validator.FieldLevel) bool {
	return models.InspectionStatus(fl.Field().String()).IsValid()
}

func validateDriverStatus(fl validator.FieldLevel) bool {
	return models.IsManualDriverStatus(models.DriverStatus(fl.Field().String()))
}

func validateVehicleStatus(fl validator.FieldLevel) bool {
	return models.IsManualVehicleStatus(models.VehicleStatus(fl.Field().String()))
}
