package prescription

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

const (
	msgPatientNameRequired = "Le nom du patient est obligatoire (minimum 2 caractères)"
	msgPatientNameTooLong  = "Le nom du patient ne peut pas dépasser 255 caractères"
	msgDoctorRequired      = "Le médecin est obligatoire"
	msgItemsRequired       = "Au moins un médicament est obligatoire"
	msgPhoneTooLong        = "Le numéro de téléphone ne peut pas dépasser 20 caractères"
	msgInvalidStatusValue  = "Statut invalide"
)

// Validate checks a create payload, items included, and reports every
// violation. Item numbers in messages start at 1.
func Validate(in model.PrescriptionInput) model.ValidationResult {
	res := model.NewValidationResult()

	validateName(&res, in.PatientName, true)
	if in.DoctorID == nil || *in.DoctorID == 0 {
		res.Add(msgDoctorRequired)
	}

	if len(in.Items) == 0 {
		res.Add(msgItemsRequired)
	}
	for i, item := range in.Items {
		n := i + 1
		if item.MedicationID == nil || *item.MedicationID == 0 {
			res.Add(fmt.Sprintf("Le médicament %d est obligatoire", n))
		}
		if item.Quantity == nil || *item.Quantity <= 0 {
			res.Add(fmt.Sprintf("La quantité du médicament %d doit être supérieure à 0", n))
		}
		if item.Quantity != nil && *item.Quantity > model.MaxItemQuantity {
			res.Add(fmt.Sprintf("La quantité du médicament %d ne peut pas dépasser %d unités", n, model.MaxItemQuantity))
		}
	}

	if in.PatientPhone != nil && utf8.RuneCountInString(*in.PatientPhone) > 20 {
		res.Add(msgPhoneTooLong)
	}
	if in.Status != nil && !in.Status.Valid() {
		res.Add(msgInvalidStatusValue)
	}
	return res
}

func ValidateUpdate(u model.PrescriptionUpdate) model.ValidationResult {
	res := model.NewValidationResult()

	validateName(&res, u.PatientName, false)
	if u.PatientPhone != nil && utf8.RuneCountInString(*u.PatientPhone) > 20 {
		res.Add(msgPhoneTooLong)
	}
	if u.Status != nil && !u.Status.Valid() {
		res.Add(msgInvalidStatusValue)
	}
	return res
}

func validateName(res *model.ValidationResult, name *string, required bool) {
	if name == nil {
		if required {
			res.Add(msgPatientNameRequired)
		}
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(*name)) < 2 {
		res.Add(msgPatientNameRequired)
	}
	if utf8.RuneCountInString(*name) > 255 {
		res.Add(msgPatientNameTooLong)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
