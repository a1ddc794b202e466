package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
)

const prescriptionSelect = `
	SELECT mp.id, mp.consultation_id, mp.patient_name, mp.patient_phone, mp.prescribed_date,
	       mp.doctor_id, mp.site_id, mp.notes, mp.status, mp.created_at, mp.updated_at,
	       u.first_name || ' ' || u.last_name AS doctor_name,
	       s.name AS site_name
	FROM medical_prescriptions mp
	LEFT JOIN users u ON u.id = mp.doctor_id
	LEFT JOIN sites s ON s.id = mp.site_id`

const prescriptionItemSelect = `
	SELECT i.id, i.prescription_id, i.medication_id, i.quantity, i.dosage, i.duration,
	       i.instructions, i.notes, m.name AS medication_name
	FROM medical_prescription_items i
	LEFT JOIN medications m ON m.id = i.medication_id`

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.MedicalPrescription) (int64, error) {
	parentQuery := `
		INSERT INTO medical_prescriptions (
			consultation_id, patient_name, patient_phone, prescribed_date,
			doctor_id, site_id, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`
	itemQuery := `
		INSERT INTO medical_prescription_items (
			prescription_id, medication_id, quantity, dosage, duration, instructions, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var id int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, parentQuery,
			p.ConsultationID,
			p.PatientName,
			nullString(p.PatientPhone),
			p.PrescribedDate,
			p.DoctorID,
			p.SiteID,
			nullString(p.Notes),
			p.Status,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert prescription: %w", err)
		}

		for i, item := range p.Items {
			_, err := tx.ExecContext(ctx, itemQuery,
				id,
				item.MedicationID,
				item.Quantity,
				nullString(item.Dosage),
				nullString(item.Duration),
				nullString(item.Instructions),
				nullString(item.Notes),
			)
			if err != nil {
				return fmt.Errorf("failed to insert prescription item %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err := r.observe("prescription_create", err); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *prescriptionRepository) FindByID(ctx context.Context, id int64) (*model.MedicalPrescription, error) {
	var p model.MedicalPrescription
	err := r.db.GetContext(ctx, &p, prescriptionSelect+" WHERE mp.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("prescription_get", nil)
		return nil, nil
	}
	if err := r.observe("prescription_get", err); err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	if err := r.attachItems(ctx, []*model.MedicalPrescription{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepository) FindAll(ctx context.Context, filter model.RecordFilter, page model.Page) ([]*model.MedicalPrescription, error) {
	w := recordWhere("mp", "prescribed_date", filter)
	query := fmt.Sprintf("%s%s ORDER BY mp.prescribed_date DESC, mp.id DESC LIMIT %s OFFSET %s",
		prescriptionSelect, w.String(), w.next(page.Limit), w.next(page.Offset()))

	prescriptions := []*model.MedicalPrescription{}
	err := r.db.SelectContext(ctx, &prescriptions, query, w.args...)
	if err := r.observe("prescription_list", err); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	if err := r.attachItems(ctx, prescriptions); err != nil {
		return nil, err
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) CountAll(ctx context.Context, filter model.RecordFilter) (int, error) {
	w := recordWhere("mp", "prescribed_date", filter)

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM medical_prescriptions mp"+w.String(), w.args...)
	if err := r.observe("prescription_count", err); err != nil {
		return 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}
	return total, nil
}

func (r *prescriptionRepository) FindByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter, page model.Page) ([]*model.MedicalPrescription, error) {
	filter.DoctorID = &doctorID
	return r.FindAll(ctx, filter, page)
}

func (r *prescriptionRepository) CountByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter) (int, error) {
	filter.DoctorID = &doctorID
	return r.CountAll(ctx, filter)
}

// attachItems loads the items of every prescription in one query.
func (r *prescriptionRepository) attachItems(ctx context.Context, prescriptions []*model.MedicalPrescription) error {
	if len(prescriptions) == 0 {
		return nil
	}

	ids := make([]int64, len(prescriptions))
	byID := make(map[int64]*model.MedicalPrescription, len(prescriptions))
	for i, p := range prescriptions {
		ids[i] = p.ID
		p.Items = []model.MedicalPrescriptionItem{}
		byID[p.ID] = p
	}

	var items []model.MedicalPrescriptionItem
	err := r.db.SelectContext(ctx, &items,
		prescriptionItemSelect+" WHERE i.prescription_id = ANY($1) ORDER BY i.id", pq.Array(ids))
	if err := r.observe("prescription_items_list", err); err != nil {
		return fmt.Errorf("failed to load prescription items: %w", err)
	}

	for _, item := range items {
		if p, ok := byID[item.PrescriptionID]; ok {
			p.Items = append(p.Items, item)
		}
	}
	return nil
}

func (r *prescriptionRepository) Update(ctx context.Context, id int64, u model.PrescriptionUpdate) error {
	s := &setBuilder{}
	if u.PatientName != nil {
		s.set("patient_name", *u.PatientName)
	}
	if u.PatientPhone != nil {
		s.set("patient_phone", nullString(u.PatientPhone))
	}
	if u.Notes != nil {
		s.set("notes", nullString(u.Notes))
	}
	if u.Status != nil {
		s.set("status", *u.Status)
	}
	if s.empty() {
		return repository.ErrNothingToUpdate
	}

	query, args := s.query("medical_prescriptions", id)
	_, err := r.db.ExecContext(ctx, query, args...)
	if err := r.observe("prescription_update", err); err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Cancel(ctx context.Context, id int64) error {
	query := `UPDATE medical_prescriptions SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, model.PrescriptionStatusCancelled, id)
	if err := r.observe("prescription_cancel", err); err != nil {
		return fmt.Errorf("failed to cancel prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, id int64) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM medical_prescription_items WHERE prescription_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete prescription items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM medical_prescriptions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete prescription: %w", err)
		}
		return nil
	})
	return r.observe("prescription_delete", err)
}

func (r *prescriptionRepository) Stats(ctx context.Context, filter model.StatsFilter) (*model.PrescriptionStats, error) {
	w := statsWhere("mp", "prescribed_date", filter)
	query := `
		SELECT COUNT(*) AS total_prescriptions,
		       COUNT(*) FILTER (WHERE mp.status = 'ACTIVE') AS active_count,
		       COUNT(*) FILTER (WHERE mp.status = 'FULFILLED') AS fulfilled_count,
		       COUNT(*) FILTER (WHERE mp.status = 'CANCELLED') AS cancelled_count
		FROM medical_prescriptions mp` + w.String()

	var stats model.PrescriptionStats
	err := r.db.GetContext(ctx, &stats, query, w.args...)
	if err := r.observe("prescription_stats", err); err != nil {
		return nil, fmt.Errorf("failed to get prescription stats: %w", err)
	}
	return &stats, nil
}
