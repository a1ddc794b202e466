package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/policy"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
	"github.com/jwalitptl/pharmacy-api/internal/service/event"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

const (
	msgNotFound        = "Consultation non trouvée"
	msgForbidden       = "Accès non autorisé à cette consultation"
	msgForbiddenList   = "Accès non autorisé à ces consultations"
	msgNothingToUpdate = "Aucune donnée à mettre à jour"
	msgInvalidStatus   = "Statut de consultation invalide"
)

type Service struct {
	repo   repository.ConsultationRepository
	events event.Emitter
	now    func() time.Time
}

func NewService(repo repository.ConsultationRepository, events event.Emitter) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// Create records a consultation for the calling doctor and returns the
// stored row.
func (s *Service) Create(ctx context.Context, caller model.Caller, in model.ConsultationInput) (*model.Consultation, error) {
	in.DoctorID = &caller.ID

	if res := Validate(in); !res.IsValid {
		return nil, errors.Validation(res.Errors)
	}

	c := &model.Consultation{
		PatientName:      *trimmed(in.PatientName),
		PatientPhone:     trimmed(in.PatientPhone),
		PatientAge:       in.PatientAge,
		PatientGender:    in.PatientGender,
		ConsultationDate: s.now(),
		Symptoms:         trimmed(in.Symptoms),
		Diagnosis:        trimmed(in.Diagnosis),
		Notes:            trimmed(in.Notes),
		DoctorID:         caller.ID,
		SiteID:           in.SiteID,
		Status:           model.ConsultationStatusCompleted,
	}
	if in.ConsultationDate != nil {
		c.ConsultationDate = in.ConsultationDate.Time
	}
	if in.Status != nil {
		c.Status = *in.Status
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	s.events.Emit(ctx, model.EventConsultationCreated, id, c)

	return s.reload(ctx, id)
}

func (s *Service) Get(ctx context.Context, caller model.Caller, id int64) (*model.Consultation, error) {
	return s.authorized(ctx, caller, id, policy.ActionRead)
}

// List returns one page of consultations. Doctors only ever see their own.
func (s *Service) List(ctx context.Context, caller model.Caller, filter model.RecordFilter, page model.Page) (*model.ListResult[*model.Consultation], error) {
	if err := checkStatus(filter.Status); err != nil {
		return nil, err
	}
	if policy.ScopeToSelf(caller.Role) {
		filter.DoctorID = &caller.ID
	}

	items, err := s.repo.FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.ListResult[*model.Consultation]{Items: items, Total: total, Page: page}, nil
}

func (s *Service) ListByDoctor(ctx context.Context, caller model.Caller, doctorID int64, filter model.RecordFilter, page model.Page) (*model.ListResult[*model.Consultation], error) {
	if !policy.Can(caller, policy.ResourceConsultation, policy.ActionListAll, doctorID) {
		return nil, errors.Forbidden(msgForbiddenList)
	}
	if err := checkStatus(filter.Status); err != nil {
		return nil, err
	}

	items, err := s.repo.FindByDoctor(ctx, doctorID, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByDoctor(ctx, doctorID, filter)
	if err != nil {
		return nil, err
	}
	return &model.ListResult[*model.Consultation]{Items: items, Total: total, Page: page}, nil
}

func (s *Service) Stats(ctx context.Context, caller model.Caller, filter model.StatsFilter) (*model.ConsultationStats, error) {
	if policy.ScopeToSelf(caller.Role) {
		filter.DoctorID = &caller.ID
	}
	return s.repo.Stats(ctx, filter)
}

func (s *Service) Update(ctx context.Context, caller model.Caller, id int64, u model.ConsultationUpdate) (*model.Consultation, error) {
	if _, err := s.authorized(ctx, caller, id, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if u.Empty() {
		return nil, errors.BadRequest(msgNothingToUpdate, nil)
	}
	if res := ValidateUpdate(u); !res.IsValid {
		return nil, errors.Validation(res.Errors)
	}

	u.PatientName = trimmed(u.PatientName)
	u.PatientPhone = trimmed(u.PatientPhone)
	u.Symptoms = trimmed(u.Symptoms)
	u.Diagnosis = trimmed(u.Diagnosis)
	u.Notes = trimmed(u.Notes)

	if err := s.repo.Update(ctx, id, u); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, model.EventConsultationUpdated, id, u)

	return s.reload(ctx, id)
}

// Cancel marks the consultation CANCELLED. Cancelling twice is allowed.
func (s *Service) Cancel(ctx context.Context, caller model.Caller, id int64) (*model.Consultation, error) {
	if _, err := s.authorized(ctx, caller, id, policy.ActionCancel); err != nil {
		return nil, err
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, model.EventConsultationCancelled, id, map[string]interface{}{
		"id":     id,
		"status": model.ConsultationStatusCancelled,
	})

	return s.reload(ctx, id)
}

func (s *Service) Delete(ctx context.Context, caller model.Caller, id int64) error {
	c, err := s.authorized(ctx, caller, id, policy.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Emit(ctx, model.EventConsultationDeleted, id, c)
	return nil
}

// authorized loads the consultation then checks the caller may act on it.
// A missing record is reported before a permission failure.
func (s *Service) authorized(ctx context.Context, caller model.Caller, id int64, action policy.Action) (*model.Consultation, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NotFound(msgNotFound)
	}
	if !policy.Can(caller, policy.ResourceConsultation, action, c.DoctorID) {
		return nil, errors.Forbidden(msgForbidden)
	}
	return c, nil
}

func (s *Service) reload(ctx context.Context, id int64) (*model.Consultation, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.Internal(fmt.Errorf("consultation %d vanished after write", id))
	}
	return c, nil
}

func checkStatus(status string) error {
	if status != "" && !model.ConsultationStatus(status).Valid() {
		return errors.Validation([]string{msgInvalidStatus})
	}
	return nil
}
