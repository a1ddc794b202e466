package model

import (
	"time"
)

type PrescriptionStatus string

const (
	PrescriptionStatusActive    PrescriptionStatus = "ACTIVE"
	PrescriptionStatusFulfilled PrescriptionStatus = "FULFILLED"
	PrescriptionStatusCancelled PrescriptionStatus = "CANCELLED"
)

func (s PrescriptionStatus) Valid() bool {
	switch s {
	case PrescriptionStatusActive, PrescriptionStatusFulfilled, PrescriptionStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status forbids update, cancel and delete.
func (s PrescriptionStatus) Terminal() bool {
	return s == PrescriptionStatusFulfilled
}

const MaxItemQuantity = 1000

type MedicalPrescription struct {
	ID             int64              `json:"id" db:"id"`
	ConsultationID *int64             `json:"consultation_id" db:"consultation_id"`
	PatientName    string             `json:"patient_name" db:"patient_name"`
	PatientPhone   *string            `json:"patient_phone" db:"patient_phone"`
	PrescribedDate time.Time          `json:"prescribed_date" db:"prescribed_date"`
	DoctorID       int64              `json:"doctor_id" db:"doctor_id"`
	SiteID         *int64             `json:"site_id" db:"site_id"`
	Notes          *string            `json:"notes" db:"notes"`
	Status         PrescriptionStatus `json:"status" db:"status"`
	Timestamps

	DoctorName *string                   `json:"doctor_name,omitempty" db:"doctor_name"`
	SiteName   *string                   `json:"site_name,omitempty" db:"site_name"`
	Items      []MedicalPrescriptionItem `json:"items" db:"-"`
}

type MedicalPrescriptionItem struct {
	ID             int64   `json:"id" db:"id"`
	PrescriptionID int64   `json:"prescription_id" db:"prescription_id"`
	MedicationID   int64   `json:"medication_id" db:"medication_id"`
	Quantity       int     `json:"quantity" db:"quantity"`
	Dosage         *string `json:"dosage" db:"dosage"`
	Duration       *string `json:"duration" db:"duration"`
	Instructions   *string `json:"instructions" db:"instructions"`
	Notes          *string `json:"notes" db:"notes"`

	MedicationName *string `json:"medication_name,omitempty" db:"medication_name"`
}

type PrescriptionItemInput struct {
	MedicationID *int64  `json:"medication_id"`
	Quantity     *int    `json:"quantity"`
	Dosage       *string `json:"dosage"`
	Duration     *string `json:"duration"`
	Instructions *string `json:"instructions"`
	Notes        *string `json:"notes"`
}

type PrescriptionInput struct {
	ConsultationID *int64                  `json:"consultation_id"`
	PatientName    *string                 `json:"patient_name"`
	PatientPhone   *string                 `json:"patient_phone"`
	PrescribedDate *Timestamp              `json:"prescribed_date"`
	DoctorID       *int64                  `json:"-"`
	SiteID         *int64                  `json:"site_id"`
	Notes          *string                 `json:"notes"`
	Status         *PrescriptionStatus     `json:"status"`
	Items          []PrescriptionItemInput `json:"items"`
}

type PrescriptionUpdate struct {
	PatientName  *string             `json:"patient_name"`
	PatientPhone *string             `json:"patient_phone"`
	Notes        *string             `json:"notes"`
	Status       *PrescriptionStatus `json:"status"`
}

func (u PrescriptionUpdate) Empty() bool {
	return u.PatientName == nil && u.PatientPhone == nil && u.Notes == nil && u.Status == nil
}

type PrescriptionStats struct {
	TotalPrescriptions int `json:"total_prescriptions" db:"total_prescriptions"`
	ActiveCount        int `json:"active_count" db:"active_count"`
	FulfilledCount     int `json:"fulfilled_count" db:"fulfilled_count"`
	CancelledCount     int `json:"cancelled_count" db:"cancelled_count"`
}
