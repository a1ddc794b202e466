package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
)

const consultationSelect = `
	SELECT c.id, c.patient_name, c.patient_phone, c.patient_age, c.patient_gender,
	       c.consultation_date, c.symptoms, c.diagnosis, c.notes, c.doctor_id,
	       c.site_id, c.status, c.created_at, c.updated_at,
	       u.first_name || ' ' || u.last_name AS doctor_name,
	       s.name AS site_name
	FROM consultations c
	LEFT JOIN users u ON u.id = c.doctor_id
	LEFT JOIN sites s ON s.id = c.site_id`

type consultationRepository struct {
	BaseRepository
}

func NewConsultationRepository(base BaseRepository) repository.ConsultationRepository {
	return &consultationRepository{base}
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) (int64, error) {
	query := `
		INSERT INTO consultations (
			patient_name, patient_phone, patient_age, patient_gender, consultation_date,
			symptoms, diagnosis, notes, doctor_id, site_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		c.PatientName,
		nullString(c.PatientPhone),
		c.PatientAge,
		nullString(c.PatientGender),
		c.ConsultationDate,
		nullString(c.Symptoms),
		nullString(c.Diagnosis),
		nullString(c.Notes),
		c.DoctorID,
		c.SiteID,
		c.Status,
	).Scan(&id)
	if err := r.observe("consultation_create", err); err != nil {
		return 0, fmt.Errorf("failed to create consultation: %w", err)
	}
	return id, nil
}

func (r *consultationRepository) FindByID(ctx context.Context, id int64) (*model.Consultation, error) {
	var c model.Consultation
	err := r.db.GetContext(ctx, &c, consultationSelect+" WHERE c.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("consultation_get", nil)
		return nil, nil
	}
	if err := r.observe("consultation_get", err); err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &c, nil
}

func (r *consultationRepository) FindAll(ctx context.Context, filter model.RecordFilter, page model.Page) ([]*model.Consultation, error) {
	w := recordWhere("c", "consultation_date", filter)
	query := fmt.Sprintf("%s%s ORDER BY c.consultation_date DESC, c.id DESC LIMIT %s OFFSET %s",
		consultationSelect, w.String(), w.next(page.Limit), w.next(page.Offset()))

	consultations := []*model.Consultation{}
	err := r.db.SelectContext(ctx, &consultations, query, w.args...)
	if err := r.observe("consultation_list", err); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) CountAll(ctx context.Context, filter model.RecordFilter) (int, error) {
	w := recordWhere("c", "consultation_date", filter)

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM consultations c"+w.String(), w.args...)
	if err := r.observe("consultation_count", err); err != nil {
		return 0, fmt.Errorf("failed to count consultations: %w", err)
	}
	return total, nil
}

func (r *consultationRepository) FindByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter, page model.Page) ([]*model.Consultation, error) {
	filter.DoctorID = &doctorID
	return r.FindAll(ctx, filter, page)
}

func (r *consultationRepository) CountByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter) (int, error) {
	filter.DoctorID = &doctorID
	return r.CountAll(ctx, filter)
}

func (r *consultationRepository) Update(ctx context.Context, id int64, u model.ConsultationUpdate) error {
	s := &setBuilder{}
	if u.PatientName != nil {
		s.set("patient_name", *u.PatientName)
	}
	if u.PatientPhone != nil {
		s.set("patient_phone", nullString(u.PatientPhone))
	}
	if u.PatientAge != nil {
		s.set("patient_age", *u.PatientAge)
	}
	if u.PatientGender != nil {
		s.set("patient_gender", nullString(u.PatientGender))
	}
	if u.ConsultationDate != nil {
		s.set("consultation_date", u.ConsultationDate.Time)
	}
	if u.Symptoms != nil {
		s.set("symptoms", nullString(u.Symptoms))
	}
	if u.Diagnosis != nil {
		s.set("diagnosis", nullString(u.Diagnosis))
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

	query, args := s.query("consultations", id)
	_, err := r.db.ExecContext(ctx, query, args...)
	if err := r.observe("consultation_update", err); err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Cancel(ctx context.Context, id int64) error {
	query := `UPDATE consultations SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, model.ConsultationStatusCancelled, id)
	if err := r.observe("consultation_cancel", err); err != nil {
		return fmt.Errorf("failed to cancel consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err := r.observe("consultation_delete", err); err != nil {
		return fmt.Errorf("failed to delete consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Stats(ctx context.Context, filter model.StatsFilter) (*model.ConsultationStats, error) {
	w := statsWhere("c", "consultation_date", filter)
	query := `
		SELECT COUNT(*) AS total_consultations,
		       COUNT(*) FILTER (WHERE c.status = 'COMPLETED') AS completed_count,
		       COUNT(*) FILTER (WHERE c.status = 'CANCELLED') AS cancelled_count
		FROM consultations c` + w.String()

	var stats model.ConsultationStats
	err := r.db.GetContext(ctx, &stats, query, w.args...)
	if err := r.observe("consultation_stats", err); err != nil {
		return nil, fmt.Errorf("failed to get consultation stats: %w", err)
	}
	return &stats, nil
}
