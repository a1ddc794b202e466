package medication

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/policy"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

const (
	msgNotFound            = "Médicament non trouvé"
	msgForbidden           = "Accès non autorisé"
	msgNothingToUpdate     = "Aucune donnée à mettre à jour"
	msgAlreadyInactive     = "Le médicament est déjà désactivé"
	msgDiscontinued        = "Un médicament arrêté ne peut pas être modifié"
	msgNotInactive         = "Seul un médicament désactivé peut être réactivé"
	msgAlreadyDiscontinued = "Le médicament est déjà arrêté"
	msgBadConfirmation     = "Confirmation invalide: saisissez ARRETER"
	msgInvalidStatus       = "Statut de médicament invalide"
	msgInvalidQuantity     = "La quantité doit être un entier positif ou nul"
)

// StockView names one of the restricted inventory listings.
type StockView string

const (
	ViewLowStock   StockView = "low-stock"
	ViewOutOfStock StockView = "out-of-stock"
	ViewExpired    StockView = "expired"
)

type Service struct {
	repo repository.MedicationRepository
}

func NewService(repo repository.MedicationRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, caller model.Caller, filter model.MedicationFilter, page model.Page) (*model.ListResult[*model.Medication], error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionRead, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, errors.Validation([]string{msgInvalidStatus})
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.list(ctx, filter, page)
}

// Stock returns one inventory view. These listings are reserved to pharmacy
// staff.
func (s *Service) Stock(ctx context.Context, caller model.Caller, view StockView, page model.Page) (*model.ListResult[*model.Medication], error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionStock, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}

	var filter model.MedicationFilter
	switch view {
	case ViewLowStock:
		filter.LowStock = true
	case ViewOutOfStock:
		filter.OutOfStock = true
	case ViewExpired:
		filter.Expired = true
	default:
		return nil, errors.BadRequest("Vue de stock inconnue", nil)
	}
	return s.list(ctx, filter, page)
}

func (s *Service) list(ctx context.Context, filter model.MedicationFilter, page model.Page) (*model.ListResult[*model.Medication], error) {
	items, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.ListResult[*model.Medication]{Items: items, Total: total, Page: page}, nil
}

func (s *Service) Get(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionRead, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}
	return s.find(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller model.Caller, req model.CreateMedicationRequest) (*model.Medication, error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionWrite, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}

	m := &model.Medication{
		Name:        strings.TrimSpace(req.Name),
		GenericName: trimmed(req.GenericName),
		Form:        trimmed(req.Form),
		Strength:    trimmed(req.Strength),
		Unit:        trimmed(req.Unit),
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		UnitPrice:   req.UnitPrice,
		Status:      model.MedicationStatusActive,
	}
	if req.ExpiryDate != nil {
		expiry := req.ExpiryDate.Time
		m.ExpiryDate = &expiry
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, errors.FromDB(err)
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, caller model.Caller, id int64, req model.UpdateMedicationRequest) (*model.Medication, error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionWrite, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.MedicationStatusDiscontinued {
		return nil, errors.BusinessRule(msgDiscontinued)
	}
	if req.Empty() {
		return nil, errors.BadRequest(msgNothingToUpdate, nil)
	}

	req.Name = trimmed(req.Name)
	req.GenericName = trimmed(req.GenericName)
	req.Form = trimmed(req.Form)
	req.Strength = trimmed(req.Strength)
	req.Unit = trimmed(req.Unit)

	if err := s.repo.Update(ctx, id, req); err != nil {
		if stderrors.Is(err, repository.ErrNothingToUpdate) {
			return nil, errors.BadRequest(msgNothingToUpdate, nil)
		}
		return nil, errors.FromDB(err)
	}
	return s.find(ctx, id)
}

// AdjustQuantity sets the stock on hand. Each adjustment is logged with the
// previous quantity so stock movements can be traced back to a user.
func (s *Service) AdjustQuantity(ctx context.Context, caller model.Caller, id int64, req model.AdjustQuantityRequest) (*model.Medication, error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionStock, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return nil, errors.Validation([]string{msgInvalidQuantity})
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.MedicationStatusDiscontinued {
		return nil, errors.BusinessRule(msgDiscontinued)
	}

	if err := s.repo.Update(ctx, id, model.UpdateMedicationRequest{Quantity: req.Quantity}); err != nil {
		return nil, errors.FromDB(err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("medication_id", id).
		Int64("user_id", caller.ID).
		Int("previous_quantity", current.Quantity).
		Int("quantity", *req.Quantity).
		Str("reason", strings.TrimSpace(req.Reason)).
		Msg("stock adjusted")

	return s.find(ctx, id)
}

func (s *Service) Delete(ctx context.Context, caller model.Caller, id int64) error {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionWrite, 0) {
		return errors.Forbidden(msgForbidden)
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	// Medications referenced by prescription items surface as a 400 through FromDB.
	return errors.FromDB(s.repo.Delete(ctx, id))
}

// Deactivate moves an ACTIVE medication to INACTIVE.
func (s *Service) Deactivate(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error) {
	m, err := s.writable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case model.MedicationStatusInactive:
		return nil, errors.BusinessRule(msgAlreadyInactive)
	case model.MedicationStatusDiscontinued:
		return nil, errors.BusinessRule(msgDiscontinued)
	}
	return s.setStatus(ctx, id, model.MedicationStatusInactive, nil)
}

// Reactivate moves an INACTIVE medication back to ACTIVE. Discontinued
// medications stay discontinued.
func (s *Service) Reactivate(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error) {
	m, err := s.writable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.MedicationStatusDiscontinued {
		return nil, errors.BusinessRule(msgDiscontinued)
	}
	if m.Status != model.MedicationStatusInactive {
		return nil, errors.BusinessRule(msgNotInactive)
	}
	return s.setStatus(ctx, id, model.MedicationStatusActive, nil)
}

func (s *Service) Discontinue(ctx context.Context, caller model.Caller, id int64, req model.DiscontinueMedicationRequest) (*model.Medication, error) {
	m, err := s.writable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.MedicationStatusDiscontinued {
		return nil, errors.BusinessRule(msgAlreadyDiscontinued)
	}
	if strings.TrimSpace(req.Confirmation) != model.DiscontinueConfirmation {
		return nil, errors.Validation([]string{msgBadConfirmation})
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) < 3 {
		return nil, errors.Validation([]string{"La raison doit contenir au moins 3 caractères"})
	}
	return s.setStatus(ctx, id, model.MedicationStatusDiscontinued, &reason)
}

func (s *Service) writable(ctx context.Context, caller model.Caller, id int64) (*model.Medication, error) {
	if !policy.Can(caller, policy.ResourceMedication, policy.ActionWrite, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}
	return s.find(ctx, id)
}

func (s *Service) setStatus(ctx context.Context, id int64, status model.MedicationStatus, reason *string) (*model.Medication, error) {
	if err := s.repo.SetStatus(ctx, id, status, reason); err != nil {
		return nil, errors.FromDB(err)
	}
	return s.find(ctx, id)
}

func (s *Service) find(ctx context.Context, id int64) (*model.Medication, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.FromDB(err)
	}
	if m == nil {
		return nil, errors.NotFound(msgNotFound)
	}
	return m, nil
}

func validStatus(st model.MedicationStatus) bool {
	switch st {
	case model.MedicationStatusActive, model.MedicationStatusInactive, model.MedicationStatusDiscontinued:
		return true
	}
	return false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
