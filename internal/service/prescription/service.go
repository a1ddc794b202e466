package prescription

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
	msgNotFound        = "Ordonnance médicale non trouvée"
	msgForbidden       = "Accès non autorisé à cette ordonnance médicale"
	msgForbiddenList   = "Accès non autorisé à ces ordonnances médicales"
	msgNothingToUpdate = "Aucune donnée à mettre à jour"
	msgInvalidStatus   = "Statut d'ordonnance invalide"
	msgUpdateFulfilled = "Impossible de modifier une ordonnance déjà remplie"
	msgCancelFulfilled = "Impossible d'annuler une ordonnance déjà remplie"
	msgDeleteFulfilled = "Impossible de supprimer une ordonnance déjà remplie"
)

type Service struct {
	repo   repository.PrescriptionRepository
	events event.Emitter
	now    func() time.Time
}

func NewService(repo repository.PrescriptionRepository, events event.Emitter) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// Create stores the prescription with its items for the calling doctor.
func (s *Service) Create(ctx context.Context, caller model.Caller, in model.PrescriptionInput) (*model.MedicalPrescription, error) {
	in.DoctorID = &caller.ID

	if res := Validate(in); !res.IsValid {
		return nil, errors.Validation(res.Errors)
	}

	p := &model.MedicalPrescription{
		ConsultationID: in.ConsultationID,
		PatientName:    *trimmed(in.PatientName),
		PatientPhone:   trimmed(in.PatientPhone),
		PrescribedDate: s.now(),
		DoctorID:       caller.ID,
		SiteID:         in.SiteID,
		Notes:          trimmed(in.Notes),
		Status:         model.PrescriptionStatusActive,
		Items:          make([]model.MedicalPrescriptionItem, 0, len(in.Items)),
	}
	if in.PrescribedDate != nil {
		p.PrescribedDate = in.PrescribedDate.Time
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	for _, item := range in.Items {
		p.Items = append(p.Items, model.MedicalPrescriptionItem{
			MedicationID: *item.MedicationID,
			Quantity:     *item.Quantity,
			Dosage:       trimmed(item.Dosage),
			Duration:     trimmed(item.Duration),
			Instructions: trimmed(item.Instructions),
			Notes:        trimmed(item.Notes),
		})
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	s.events.Emit(ctx, model.EventPrescriptionCreated, id, p)

	return s.reload(ctx, id)
}

func (s *Service) Get(ctx context.Context, caller model.Caller, id int64) (*model.MedicalPrescription, error) {
	return s.authorized(ctx, caller, id, policy.ActionRead)
}

func (s *Service) List(ctx context.Context, caller model.Caller, filter model.RecordFilter, page model.Page) (*model.ListResult[*model.MedicalPrescription], error) {
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
	return &model.ListResult[*model.MedicalPrescription]{Items: items, Total: total, Page: page}, nil
}

func (s *Service) ListByDoctor(ctx context.Context, caller model.Caller, doctorID int64, filter model.RecordFilter, page model.Page) (*model.ListResult[*model.MedicalPrescription], error) {
	if !policy.Can(caller, policy.ResourcePrescription, policy.ActionListAll, doctorID) {
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
	return &model.ListResult[*model.MedicalPrescription]{Items: items, Total: total, Page: page}, nil
}

func (s *Service) Stats(ctx context.Context, caller model.Caller, filter model.StatsFilter) (*model.PrescriptionStats, error) {
	if policy.ScopeToSelf(caller.Role) {
		filter.DoctorID = &caller.ID
	}
	return s.repo.Stats(ctx, filter)
}

func (s *Service) Update(ctx context.Context, caller model.Caller, id int64, u model.PrescriptionUpdate) (*model.MedicalPrescription, error) {
	p, err := s.authorized(ctx, caller, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, errors.BusinessRule(msgUpdateFulfilled)
	}
	if u.Empty() {
		return nil, errors.BadRequest(msgNothingToUpdate, nil)
	}
	if res := ValidateUpdate(u); !res.IsValid {
		return nil, errors.Validation(res.Errors)
	}

	u.PatientName = trimmed(u.PatientName)
	u.PatientPhone = trimmed(u.PatientPhone)
	u.Notes = trimmed(u.Notes)

	if err := s.repo.Update(ctx, id, u); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, model.EventPrescriptionUpdated, id, u)

	return s.reload(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, caller model.Caller, id int64) (*model.MedicalPrescription, error) {
	p, err := s.authorized(ctx, caller, id, policy.ActionCancel)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, errors.BusinessRule(msgCancelFulfilled)
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, model.EventPrescriptionCancelled, id, map[string]interface{}{
		"id":           id,
		"patient_name": p.PatientName,
		"status":       model.PrescriptionStatusCancelled,
	})

	return s.reload(ctx, id)
}

func (s *Service) Delete(ctx context.Context, caller model.Caller, id int64) error {
	p, err := s.authorized(ctx, caller, id, policy.ActionDelete)
	if err != nil {
		return err
	}
	if p.Status.Terminal() {
		return errors.BusinessRule(msgDeleteFulfilled)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Emit(ctx, model.EventPrescriptionDeleted, id, p)
	return nil
}

// authorized loads the prescription then checks the caller may act on it.
func (s *Service) authorized(ctx context.Context, caller model.Caller, id int64, action policy.Action) (*model.MedicalPrescription, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NotFound(msgNotFound)
	}
	if !policy.Can(caller, policy.ResourcePrescription, action, p.DoctorID) {
		return nil, errors.Forbidden(msgForbidden)
	}
	return p, nil
}

func (s *Service) reload(ctx context.Context, id int64) (*model.MedicalPrescription, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.Internal(fmt.Errorf("prescription %d vanished after write", id))
	}
	return p, nil
}

func checkStatus(status string) error {
	if status != "" && !model.PrescriptionStatus(status).Valid() {
		return errors.Validation([]string{msgInvalidStatus})
	}
	return nil
}
