package model

import "time"

type MedicationStatus string

const (
	MedicationStatusActive       MedicationStatus = "ACTIVE"
	MedicationStatusInactive     MedicationStatus = "INACTIVE"
	MedicationStatusDiscontinued MedicationStatus = "DISCONTINUED"
)

// DiscontinueConfirmation must be typed by the user to discontinue a medication.
const DiscontinueConfirmation = "ARRETER"

type Medication struct {
	ID                    int64            `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	GenericName           *string          `json:"generic_name" db:"generic_name"`
	Form                  *string          `json:"form" db:"form"`
	Strength              *string          `json:"strength" db:"strength"`
	Unit                  *string          `json:"unit" db:"unit"`
	Quantity              int              `json:"quantity" db:"quantity"`
	MinQuantity           int              `json:"min_quantity" db:"min_quantity"`
	UnitPrice             float64          `json:"unit_price" db:"unit_price"`
	ExpiryDate            *time.Time       `json:"expiry_date" db:"expiry_date"`
	Status                MedicationStatus `json:"status" db:"status"`
	DiscontinuationReason *string          `json:"discontinuation_reason" db:"discontinuation_reason"`
	Timestamps
}

// StockStatus derives the badge shown next to a medication.
func (m *Medication) StockStatus() string {
	switch {
	case m.Quantity <= 0:
		return "OUT_OF_STOCK"
	case m.Quantity <= m.MinQuantity:
		return "LOW_STOCK"
	default:
		return "IN_STOCK"
	}
}

type CreateMedicationRequest struct {
	Name        string     `json:"name" binding:"required,min=2,max=255"`
	GenericName *string    `json:"generic_name" binding:"omitempty,max=255"`
	Form        *string    `json:"form" binding:"omitempty,max=100"`
	Strength    *string    `json:"strength" binding:"omitempty,max=100"`
	Unit        *string    `json:"unit" binding:"omitempty,max=50"`
	Quantity    int        `json:"quantity" binding:"min=0"`
	MinQuantity int        `json:"min_quantity" binding:"min=0"`
	UnitPrice   float64    `json:"unit_price" binding:"min=0"`
	ExpiryDate  *Timestamp `json:"expiry_date"`
}

type UpdateMedicationRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=2,max=255"`
	GenericName *string    `json:"generic_name" binding:"omitempty,max=255"`
	Form        *string    `json:"form" binding:"omitempty,max=100"`
	Strength    *string    `json:"strength" binding:"omitempty,max=100"`
	Unit        *string    `json:"unit" binding:"omitempty,max=50"`
	Quantity    *int       `json:"quantity" binding:"omitempty,min=0"`
	MinQuantity *int       `json:"min_quantity" binding:"omitempty,min=0"`
	UnitPrice   *float64   `json:"unit_price" binding:"omitempty,min=0"`
	ExpiryDate  *Timestamp `json:"expiry_date"`
}

func (r UpdateMedicationRequest) Empty() bool {
	return r.Name == nil && r.GenericName == nil && r.Form == nil && r.Strength == nil &&
		r.Unit == nil && r.Quantity == nil && r.MinQuantity == nil && r.UnitPrice == nil &&
		r.ExpiryDate == nil
}

// AdjustQuantityRequest replaces the stock on hand after a count or a
// delivery.
type AdjustQuantityRequest struct {
	Quantity *int   `json:"quantity" binding:"required,min=0,max=1000000"`
	Reason   string `json:"reason" binding:"omitempty,max=500"`
}

type DiscontinueMedicationRequest struct {
	Reason       string `json:"reason" binding:"required,min=3,max=500"`
	Confirmation string `json:"confirmation" binding:"required,confirm_token"`
}

type MedicationFilter struct {
	Search     string
	Status     MedicationStatus
	LowStock   bool
	OutOfStock bool
	Expired    bool
}
