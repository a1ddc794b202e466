package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

// ErrNothingToUpdate is returned by partial updates that carry no field.
var ErrNothingToUpdate = errors.New("nothing to update")

// Lookups by id return (nil, nil) when the row does not exist.
type (
	ConsultationRepository interface {
		Create(ctx context.Context, c *model.Consultation) (int64, error)
		FindByID(ctx context.Context, id int64) (*model.Consultation, error)
		FindAll(ctx context.Context, filter model.RecordFilter, page model.Page) ([]*model.Consultation, error)
		CountAll(ctx context.Context, filter model.RecordFilter) (int, error)
		FindByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter, page model.Page) ([]*model.Consultation, error)
		CountByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter) (int, error)
		Update(ctx context.Context, id int64, update model.ConsultationUpdate) error
		Cancel(ctx context.Context, id int64) error
		Delete(ctx context.Context, id int64) error
		Stats(ctx context.Context, filter model.StatsFilter) (*model.ConsultationStats, error)
	}

	PrescriptionRepository interface {
		// Create inserts the prescription and its items in one transaction.
		Create(ctx context.Context, p *model.MedicalPrescription) (int64, error)
		FindByID(ctx context.Context, id int64) (*model.MedicalPrescription, error)
		FindAll(ctx context.Context, filter model.RecordFilter, page model.Page) ([]*model.MedicalPrescription, error)
		CountAll(ctx context.Context, filter model.RecordFilter) (int, error)
		FindByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter, page model.Page) ([]*model.MedicalPrescription, error)
		CountByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter) (int, error)
		Update(ctx context.Context, id int64, update model.PrescriptionUpdate) error
		Cancel(ctx context.Context, id int64) error
		// Delete removes items then the prescription in one transaction.
		Delete(ctx context.Context, id int64) error
		Stats(ctx context.Context, filter model.StatsFilter) (*model.PrescriptionStats, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	SiteRepository interface {
		List(ctx context.Context, activeOnly bool) ([]*model.Site, error)
		GetByID(ctx context.Context, id int64) (*model.Site, error)
		Create(ctx context.Context, site *model.Site) error
		Update(ctx context.Context, site *model.Site) error
	}

	MedicationRepository interface {
		List(ctx context.Context, filter model.MedicationFilter, page model.Page) ([]*model.Medication, error)
		Count(ctx context.Context, filter model.MedicationFilter) (int, error)
		GetByID(ctx context.Context, id int64) (*model.Medication, error)
		Create(ctx context.Context, m *model.Medication) error
		Update(ctx context.Context, id int64, req model.UpdateMedicationRequest) error
		SetStatus(ctx context.Context, id int64, status model.MedicationStatus, reason *string) error
		Delete(ctx context.Context, id int64) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// WithTx runs fn in a transaction; rows locked by LockPending stay
		// locked until fn returns.
		WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
		LockPending(ctx context.Context, tx *sqlx.Tx, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
		MarkFailed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, errMsg string, maxRetries int) error
		// PurgeProcessed deletes processed events older than before.
		PurgeProcessed(ctx context.Context, before time.Time) (int64, error)
	}
)
