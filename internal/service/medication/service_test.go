package medication

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

type fakeRepo struct {
	rows       map[int64]*model.Medication
	nextID     int64
	lastFilter model.MedicationFilter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]*model.Medication{}}
}

func (f *fakeRepo) List(_ context.Context, filter model.MedicationFilter, _ model.Page) ([]*model.Medication, error) {
	f.lastFilter = filter
	out := []*model.Medication{}
	for _, m := range f.rows {
		if filter.LowStock && m.Quantity > m.MinQuantity {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) Count(_ context.Context, filter model.MedicationFilter) (int, error) {
	items, _ := f.List(context.Background(), filter, model.Page{})
	return len(items), nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*model.Medication, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, m *model.Medication) error {
	f.nextID++
	m.ID = f.nextID
	cp := *m
	f.rows[m.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, req model.UpdateMedicationRequest) error {
	m := f.rows[id]
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Quantity != nil {
		m.Quantity = *req.Quantity
	}
	return nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id int64, status model.MedicationStatus, reason *string) error {
	f.rows[id].Status = status
	f.rows[id].DiscontinuationReason = reason
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

var (
	staff      = model.Caller{ID: 1, Role: model.RoleAdminPharmacist}
	pharmacist = model.Caller{ID: 2, Role: model.RolePharmacist}
)

func strp(s string) *string { return &s }

func seed(t *testing.T, svc *Service) *model.Medication {
	t.Helper()
	m, err := svc.Create(context.Background(), staff, model.CreateMedicationRequest{
		Name:        "  Paracétamol ",
		GenericName: strp("acetaminophen "),
		Quantity:    3,
		MinQuantity: 5,
		UnitPrice:   1.5,
	})
	require.NoError(t, err)
	return m
}

func TestCreate_TrimsAndDefaultsActive(t *testing.T) {
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	assert.Equal(t, "Paracétamol", m.Name)
	assert.Equal(t, "acetaminophen", *m.GenericName)
	assert.Equal(t, model.MedicationStatusActive, m.Status)
	assert.Equal(t, "LOW_STOCK", m.StockStatus())

	_, err := svc.Create(context.Background(), pharmacist, model.CreateMedicationRequest{Name: "X"})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestReadAccess(t *testing.T) {
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	got, err := svc.Get(context.Background(), pharmacist, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = svc.Get(context.Background(), model.Caller{ID: 3, Role: model.RoleAdminPersonnel}, m.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = svc.Get(context.Background(), pharmacist, 99)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStock_StaffOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	seed(t, svc)

	_, err := svc.Stock(context.Background(), pharmacist, ViewLowStock, model.NewPage(1, 10))
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	res, err := svc.Stock(context.Background(), staff, ViewLowStock, model.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.True(t, repo.lastFilter.LowStock)

	_, err = svc.Stock(context.Background(), staff, StockView("bogus"), model.NewPage(1, 10))
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.List(context.Background(), pharmacist, model.MedicationFilter{Status: "GONE"}, model.NewPage(1, 10))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestUpdate(t *testing.T) {
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	_, err := svc.Update(context.Background(), staff, m.ID, model.UpdateMedicationRequest{})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	qty := 40
	got, err := svc.Update(context.Background(), staff, m.ID, model.UpdateMedicationRequest{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "IN_STOCK", got.StockStatus())
}

func TestAdjustQuantity(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	qty := 12
	_, err := svc.AdjustQuantity(ctx, pharmacist, m.ID, model.AdjustQuantityRequest{Quantity: &qty})
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	neg := -1
	_, err = svc.AdjustQuantity(ctx, staff, m.ID, model.AdjustQuantityRequest{Quantity: &neg})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	got, err := svc.AdjustQuantity(ctx, staff, m.ID, model.AdjustQuantityRequest{Quantity: &qty, Reason: "livraison"})
	require.NoError(t, err)
	assert.Equal(t, 12, got.Quantity)
	assert.Equal(t, "IN_STOCK", got.StockStatus())

	_, err = svc.Discontinue(ctx, staff, m.ID, model.DiscontinueMedicationRequest{Reason: "Rappel du lot", Confirmation: "ARRETER"})
	require.NoError(t, err)
	_, err = svc.AdjustQuantity(ctx, staff, m.ID, model.AdjustQuantityRequest{Quantity: &qty})
	assert.True(t, errors.Is(err, errors.ErrBusinessRule))
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	_, err := svc.Reactivate(ctx, staff, m.ID)
	assert.True(t, errors.Is(err, errors.ErrBusinessRule))

	got, err := svc.Deactivate(ctx, staff, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MedicationStatusInactive, got.Status)

	_, err = svc.Deactivate(ctx, staff, m.ID)
	assert.True(t, errors.Is(err, errors.ErrBusinessRule))

	got, err = svc.Reactivate(ctx, staff, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MedicationStatusActive, got.Status)
}

func TestDiscontinue(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	_, err := svc.Discontinue(ctx, staff, m.ID, model.DiscontinueMedicationRequest{Reason: "Rappel du lot", Confirmation: "arreter"})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	got, err := svc.Discontinue(ctx, staff, m.ID, model.DiscontinueMedicationRequest{Reason: " Rappel du lot ", Confirmation: "ARRETER"})
	require.NoError(t, err)
	assert.Equal(t, model.MedicationStatusDiscontinued, got.Status)
	assert.Equal(t, "Rappel du lot", *got.DiscontinuationReason)

	_, err = svc.Reactivate(ctx, staff, m.ID)
	assert.True(t, errors.Is(err, errors.ErrBusinessRule))

	qty := 1
	_, err = svc.Update(ctx, staff, m.ID, model.UpdateMedicationRequest{Quantity: &qty})
	assert.True(t, errors.Is(err, errors.ErrBusinessRule))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	m := seed(t, svc)

	assert.True(t, errors.Is(svc.Delete(ctx, pharmacist, m.ID), errors.ErrForbidden))
	require.NoError(t, svc.Delete(ctx, staff, m.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, staff, m.ID), errors.ErrNotFound))
}
