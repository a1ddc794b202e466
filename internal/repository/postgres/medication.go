package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
)

const medicationSelect = `
	SELECT id, name, generic_name, form, strength, unit, quantity, min_quantity, unit_price,
	       expiry_date, status, discontinuation_reason, created_at, updated_at
	FROM medications`

type medicationRepository struct {
	BaseRepository
}

func NewMedicationRepository(base BaseRepository) repository.MedicationRepository {
	return &medicationRepository{base}
}

func medicationWhere(f model.MedicationFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		w.add("(name ILIKE ? OR generic_name ILIKE ?)", pattern, pattern)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.LowStock {
		w.add("quantity <= min_quantity")
		w.add("status = ?", model.MedicationStatusActive)
	}
	if f.OutOfStock {
		w.add("quantity = 0")
	}
	if f.Expired {
		w.add("expiry_date < CURRENT_DATE")
	}
	return w
}

func (r *medicationRepository) List(ctx context.Context, filter model.MedicationFilter, page model.Page) ([]*model.Medication, error) {
	w := medicationWhere(filter)
	order := " ORDER BY name ASC, id ASC"
	if filter.LowStock {
		order = " ORDER BY quantity ASC, name ASC"
	}
	query := fmt.Sprintf("%s%s%s LIMIT %s OFFSET %s",
		medicationSelect, w.String(), order, w.next(page.Limit), w.next(page.Offset()))

	medications := []*model.Medication{}
	err := r.db.SelectContext(ctx, &medications, query, w.args...)
	if err := r.observe("medication_list", err); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return medications, nil
}

func (r *medicationRepository) Count(ctx context.Context, filter model.MedicationFilter) (int, error) {
	w := medicationWhere(filter)

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM medications"+w.String(), w.args...)
	if err := r.observe("medication_count", err); err != nil {
		return 0, fmt.Errorf("failed to count medications: %w", err)
	}
	return total, nil
}

func (r *medicationRepository) GetByID(ctx context.Context, id int64) (*model.Medication, error) {
	var m model.Medication
	err := r.db.GetContext(ctx, &m, medicationSelect+" WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("medication_get", nil)
		return nil, nil
	}
	if err := r.observe("medication_get", err); err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	return &m, nil
}

func (r *medicationRepository) Create(ctx context.Context, m *model.Medication) error {
	query := `
		INSERT INTO medications (
			name, generic_name, form, strength, unit, quantity, min_quantity,
			unit_price, expiry_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.Name,
		nullString(m.GenericName),
		nullString(m.Form),
		nullString(m.Strength),
		nullString(m.Unit),
		m.Quantity,
		m.MinQuantity,
		m.UnitPrice,
		m.ExpiryDate,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err := r.observe("medication_create", err); err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Update(ctx context.Context, id int64, req model.UpdateMedicationRequest) error {
	s := &setBuilder{}
	if req.Name != nil {
		s.set("name", *req.Name)
	}
	if req.GenericName != nil {
		s.set("generic_name", nullString(req.GenericName))
	}
	if req.Form != nil {
		s.set("form", nullString(req.Form))
	}
	if req.Strength != nil {
		s.set("strength", nullString(req.Strength))
	}
	if req.Unit != nil {
		s.set("unit", nullString(req.Unit))
	}
	if req.Quantity != nil {
		s.set("quantity", *req.Quantity)
	}
	if req.MinQuantity != nil {
		s.set("min_quantity", *req.MinQuantity)
	}
	if req.UnitPrice != nil {
		s.set("unit_price", *req.UnitPrice)
	}
	if req.ExpiryDate != nil {
		s.set("expiry_date", req.ExpiryDate.Time)
	}
	if s.empty() {
		return repository.ErrNothingToUpdate
	}

	query, args := s.query("medications", id)
	_, err := r.db.ExecContext(ctx, query, args...)
	if err := r.observe("medication_update", err); err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) SetStatus(ctx context.Context, id int64, status model.MedicationStatus, reason *string) error {
	query := `
		UPDATE medications
		SET status = $1, discontinuation_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, status, nullString(reason), id)
	if err := r.observe("medication_set_status", err); err != nil {
		return fmt.Errorf("failed to update medication status: %w", err)
	}
	return nil
}

func (r *medicationRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err := r.observe("medication_delete", err); err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	return nil
}
