package apperr

// ValidationCode classifies rejected form and payload input.
type ValidationCode string

const (
	ValidationRequiredField   ValidationCode = "REQUIRED_FIELD"
	ValidationInvalidFormat   ValidationCode = "INVALID_FORMAT"
	ValidationInvalidLength   ValidationCode = "INVALID_LENGTH"
	ValidationInvalidRange    ValidationCode = "INVALID_RANGE"
	ValidationInvalidType     ValidationCode = "INVALID_TYPE"
	ValidationInvalidEmail    ValidationCode = "INVALID_EMAIL"
	ValidationInvalidPassword ValidationCode = "INVALID_PASSWORD"
	ValidationInvalidDate     ValidationCode = "INVALID_DATE"
	ValidationDuplicateValue  ValidationCode = "DUPLICATE_VALUE"
	ValidationSchemaViolation ValidationCode = "SCHEMA_VIOLATION"
)

// ValidationCodes lists the closed set of validation codes.
var ValidationCodes = []ValidationCode{
	ValidationRequiredField, ValidationInvalidFormat, ValidationInvalidLength,
	ValidationInvalidRange, ValidationInvalidType, ValidationInvalidEmail,
	ValidationInvalidPassword, ValidationInvalidDate, ValidationDuplicateValue,
	ValidationSchemaViolation,
}

var validationMessages = map[ValidationCode]string{
	ValidationRequiredField:   "This field is required",
	ValidationInvalidFormat:   "Value has an invalid format",
	ValidationInvalidLength:   "Value has an invalid length",
	ValidationInvalidRange:    "Value is out of the allowed range",
	ValidationInvalidType:     "Value has the wrong type",
	ValidationInvalidEmail:    "Please enter a valid email address",
	ValidationInvalidPassword: "Password does not meet the requirements",
	ValidationInvalidDate:     "Please enter a valid date",
	ValidationDuplicateValue:  "This value already exists",
	ValidationSchemaViolation: "Submitted data does not match the expected schema",
}

var validationSeverity = map[ValidationCode]Severity{
	ValidationRequiredField: SeverityLow,
	ValidationInvalidFormat: SeverityLow,
	ValidationInvalidLength: SeverityLow,
	ValidationInvalidRange:  SeverityLow,
	ValidationInvalidType:   SeverityLow,
	ValidationInvalidEmail:  SeverityLow,
	ValidationInvalidDate:   SeverityLow,
}

// Valid reports whether c belongs to the validation code set.
func (c ValidationCode) Valid() bool {
	_, ok := validationMessages[c]
	return ok
}

func (c ValidationCode) DefaultMessage() string {
	return validationMessages[c]
}

func (c ValidationCode) DefaultSeverity() Severity {
	if s, ok := validationSeverity[c]; ok {
		return s
	}
	return SeverityMedium
}

// DefaultRetryable is always false: resubmitting the same input fails again.
func (c ValidationCode) DefaultRetryable() bool {
	return false
}

// ValidationError reports a single rejected input.
type ValidationError struct {
	base
	field string
	value any
}

// NewValidationError builds a validation error. An empty code becomes INVALID_FORMAT.
func NewValidationError(code ValidationCode, opts ...Option) *ValidationError {
	if code == "" {
		code = ValidationInvalidFormat
	}
	o := buildOptions(opts)
	return &ValidationError{
		base: newBase(KindValidation, string(code), codeDefaults{
			message:   code.DefaultMessage(),
			severity:  code.DefaultSeverity(),
			retryable: code.DefaultRetryable(),
		}, o),
		field: o.field,
		value: o.value,
	}
}

func (e *ValidationError) ValidationCode() ValidationCode { return ValidationCode(e.code) }
func (e *ValidationError) Field() string                  { return e.field }
func (e *ValidationError) Value() any                     { return e.value }

func (e *ValidationError) WithContext(ctx Fields) Error {
	cp := *e
	cp.base = e.base.withContext(ctx)
	return &cp
}

func (e *ValidationError) Record() Record {
	r := e.record()
	r.Field = e.field
	r.Value = e.value
	return r
}

func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return marshalRecord(e.Record())
}
