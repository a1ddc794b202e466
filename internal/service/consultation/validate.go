package consultation

import (
	"strings"
	"unicode/utf8"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

const (
	msgPatientNameRequired = "Le nom du patient est obligatoire (minimum 2 caractères)"
	msgPatientNameTooLong  = "Le nom du patient ne peut pas dépasser 255 caractères"
	msgDoctorRequired      = "Le médecin est obligatoire"
	msgAgeRange            = "L'âge doit être entre 0 et 150 ans"
	msgGender              = "Le genre doit être M, F ou OTHER"
	msgPhoneTooLong        = "Le numéro de téléphone ne peut pas dépasser 20 caractères"
	msgInvalidStatusValue  = "Statut invalide"
)

// Validate checks a create payload and reports every violation.
func Validate(in model.ConsultationInput) model.ValidationResult {
	res := model.NewValidationResult()

	if in.PatientName == nil || utf8.RuneCountInString(strings.TrimSpace(*in.PatientName)) < 2 {
		res.Add(msgPatientNameRequired)
	}
	if in.PatientName != nil && utf8.RuneCountInString(*in.PatientName) > 255 {
		res.Add(msgPatientNameTooLong)
	}
	if in.DoctorID == nil || *in.DoctorID == 0 {
		res.Add(msgDoctorRequired)
	}
	validateOptional(&res, in.PatientAge, in.PatientGender, in.PatientPhone)
	if in.Status != nil && !in.Status.Valid() {
		res.Add(msgInvalidStatusValue)
	}
	return res
}

// ValidateUpdate applies the same field rules to the fields present in u.
func ValidateUpdate(u model.ConsultationUpdate) model.ValidationResult {
	res := model.NewValidationResult()

	if u.PatientName != nil {
		if utf8.RuneCountInString(strings.TrimSpace(*u.PatientName)) < 2 {
			res.Add(msgPatientNameRequired)
		}
		if utf8.RuneCountInString(*u.PatientName) > 255 {
			res.Add(msgPatientNameTooLong)
		}
	}
	validateOptional(&res, u.PatientAge, u.PatientGender, u.PatientPhone)
	if u.Status != nil && !u.Status.Valid() {
		res.Add(msgInvalidStatusValue)
	}
	return res
}

func validateOptional(res *model.ValidationResult, age *int, gender, phone *string) {
	if age != nil && (*age < 0 || *age > 150) {
		res.Add(msgAgeRange)
	}
	if gender != nil && *gender != "" {
		switch *gender {
		case model.GenderMale, model.GenderFemale, model.GenderOther:
		default:
			res.Add(msgGender)
		}
	}
	if phone != nil && utf8.RuneCountInString(*phone) > 20 {
		res.Add(msgPhoneTooLong)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
