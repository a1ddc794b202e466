package model

// ValidationResult collects every violation found in a payload.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func (r *ValidationResult) Add(msg string) {
	r.Errors = append(r.Errors, msg)
	r.IsValid = false
}

func NewValidationResult() ValidationResult {
	return ValidationResult{IsValid: true, Errors: []string{}}
}
