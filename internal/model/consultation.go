package model

import (
	"time"
)

type ConsultationStatus string

const (
	ConsultationStatusCompleted ConsultationStatus = "COMPLETED"
	ConsultationStatusCancelled ConsultationStatus = "CANCELLED"
)

func (s ConsultationStatus) Valid() bool {
	return s == ConsultationStatusCompleted || s == ConsultationStatusCancelled
}

// Gender values accepted for patient_gender.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "OTHER"
)

// Consultation is a recorded patient encounter with one doctor.
type Consultation struct {
	ID               int64              `json:"id" db:"id"`
	PatientName      string             `json:"patient_name" db:"patient_name"`
	PatientPhone     *string            `json:"patient_phone" db:"patient_phone"`
	PatientAge       *int               `json:"patient_age" db:"patient_age"`
	PatientGender    *string            `json:"patient_gender" db:"patient_gender"`
	ConsultationDate time.Time          `json:"consultation_date" db:"consultation_date"`
	Symptoms         *string            `json:"symptoms" db:"symptoms"`
	Diagnosis        *string            `json:"diagnosis" db:"diagnosis"`
	Notes            *string            `json:"notes" db:"notes"`
	DoctorID         int64              `json:"doctor_id" db:"doctor_id"`
	SiteID           *int64             `json:"site_id" db:"site_id"`
	Status           ConsultationStatus `json:"status" db:"status"`
	Timestamps

	DoctorName *string `json:"doctor_name,omitempty" db:"doctor_name"`
	SiteName   *string `json:"site_name,omitempty" db:"site_name"`
}

// ConsultationInput is the create payload. DoctorID and SiteID are filled
// from the caller context.
type ConsultationInput struct {
	PatientName      *string             `json:"patient_name"`
	PatientPhone     *string             `json:"patient_phone"`
	PatientAge       *int                `json:"patient_age"`
	PatientGender    *string             `json:"patient_gender"`
	ConsultationDate *Timestamp          `json:"consultation_date"`
	Symptoms         *string             `json:"symptoms"`
	Diagnosis        *string             `json:"diagnosis"`
	Notes            *string             `json:"notes"`
	DoctorID         *int64              `json:"-"`
	SiteID           *int64              `json:"site_id"`
	Status           *ConsultationStatus `json:"status"`
}

// ConsultationUpdate carries only the fields to change; nil means untouched.
type ConsultationUpdate struct {
	PatientName      *string             `json:"patient_name"`
	PatientPhone     *string             `json:"patient_phone"`
	PatientAge       *int                `json:"patient_age"`
	PatientGender    *string             `json:"patient_gender"`
	ConsultationDate *Timestamp          `json:"consultation_date"`
	Symptoms         *string             `json:"symptoms"`
	Diagnosis        *string             `json:"diagnosis"`
	Notes            *string             `json:"notes"`
	Status           *ConsultationStatus `json:"status"`
}

func (u ConsultationUpdate) Empty() bool {
	return u.PatientName == nil && u.PatientPhone == nil && u.PatientAge == nil &&
		u.PatientGender == nil && u.ConsultationDate == nil && u.Symptoms == nil &&
		u.Diagnosis == nil && u.Notes == nil && u.Status == nil
}

type ConsultationStats struct {
	TotalConsultations int `json:"total_consultations" db:"total_consultations"`
	CompletedCount     int `json:"completed_count" db:"completed_count"`
	CancelledCount     int `json:"cancelled_count" db:"cancelled_count"`
}
