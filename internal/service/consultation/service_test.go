package consultation

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/service/event"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

type fakeRepo struct {
	rows   map[int64]*model.Consultation
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]*model.Consultation{}}
}

func (f *fakeRepo) Create(_ context.Context, c *model.Consultation) (int64, error) {
	f.nextID++
	cp := *c
	cp.ID = f.nextID
	f.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*model.Consultation, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) matching(filter model.RecordFilter) []*model.Consultation {
	var out []*model.Consultation
	for _, c := range f.rows {
		if filter.DoctorID != nil && c.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if filter.PatientName != "" && !strings.Contains(c.PatientName, filter.PatientName) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConsultationDate.Equal(out[j].ConsultationDate) {
			return out[i].ConsultationDate.After(out[j].ConsultationDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeRepo) FindAll(_ context.Context, filter model.RecordFilter, page model.Page) ([]*model.Consultation, error) {
	all := f.matching(filter)
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeRepo) CountAll(_ context.Context, filter model.RecordFilter) (int, error) {
	return len(f.matching(filter)), nil
}

func (f *fakeRepo) FindByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter, page model.Page) ([]*model.Consultation, error) {
	filter.DoctorID = &doctorID
	return f.FindAll(ctx, filter, page)
}

func (f *fakeRepo) CountByDoctor(ctx context.Context, doctorID int64, filter model.RecordFilter) (int, error) {
	filter.DoctorID = &doctorID
	return f.CountAll(ctx, filter)
}

func (f *fakeRepo) Update(_ context.Context, id int64, u model.ConsultationUpdate) error {
	c := f.rows[id]
	if u.PatientName != nil {
		c.PatientName = *u.PatientName
	}
	if u.Notes != nil {
		c.Notes = u.Notes
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	return nil
}

func (f *fakeRepo) Cancel(_ context.Context, id int64) error {
	f.rows[id].Status = model.ConsultationStatusCancelled
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) Stats(_ context.Context, filter model.StatsFilter) (*model.ConsultationStats, error) {
	stats := &model.ConsultationStats{}
	for _, c := range f.matching(model.RecordFilter{DoctorID: filter.DoctorID}) {
		stats.TotalConsultations++
		if c.Status == model.ConsultationStatusCancelled {
			stats.CancelledCount++
		} else {
			stats.CompletedCount++
		}
	}
	return stats, nil
}

type recordingEmitter struct {
	types []string
}

func (r *recordingEmitter) Emit(_ context.Context, eventType string, _ int64, _ interface{}) {
	r.types = append(r.types, eventType)
}

func str(s string) *string { return &s }
func intp(i int) *int { return &i }

var (
	doctor5 = model.Caller{ID: 5, Role: model.RoleDoctor}
	doctor7 = model.Caller{ID: 7, Role: model.RoleDoctor}
	admin   = model.Caller{ID: 1, Role: model.RoleAdmin}
)

func TestValidate_Valid(t *testing.T) {
	doctorID := int64(5)
	res := Validate(model.ConsultationInput{
		PatientName:   str("Jean Dupont"),
		PatientAge:    intp(40),
		PatientGender: str("M"),
		PatientPhone:  str("0600000000"),
		DoctorID:      &doctorID,
	})
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	res := Validate(model.ConsultationInput{
		PatientAge:    intp(151),
		PatientGender: str("X"),
		PatientPhone:  str(strings.Repeat("1", 21)),
	})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		msgPatientNameRequired,
		msgDoctorRequired,
		msgAgeRange,
		msgGender,
		msgPhoneTooLong,
	}, res.Errors)
}

func TestValidate_NameBounds(t *testing.T) {
	doctorID := int64(5)
	short := Validate(model.ConsultationInput{PatientName: str("  A  "), DoctorID: &doctorID})
	assert.Equal(t, []string{msgPatientNameRequired}, short.Errors)

	long := Validate(model.ConsultationInput{PatientName: str(strings.Repeat("a", 256)), DoctorID: &doctorID})
	assert.Equal(t, []string{msgPatientNameTooLong}, long.Errors)
}

func TestCreate_TrimsAndDefaults(t *testing.T) {
	repo := newFakeRepo()
	events := &recordingEmitter{}
	svc := NewService(repo, events)

	c, err := svc.Create(context.Background(), doctor5, model.ConsultationInput{
		PatientName: str("  Jean Dupont  "),
		Notes:       str("  suivi  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "Jean Dupont", c.PatientName)
	assert.Equal(t, "suivi", *c.Notes)
	assert.Equal(t, model.ConsultationStatusCompleted, c.Status)
	assert.Equal(t, int64(5), c.DoctorID)
	assert.False(t, c.ConsultationDate.IsZero())
	assert.Equal(t, []string{model.EventConsultationCreated}, events.types)
}

func TestCreate_InvalidPayload(t *testing.T) {
	svc := NewService(newFakeRepo(), event.Nop{})

	_, err := svc.Create(context.Background(), doctor5, model.ConsultationInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "Données invalides: "+msgPatientNameRequired)
}

func TestGet_OwnershipAndNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, event.Nop{})
	c, err := svc.Create(context.Background(), doctor7, model.ConsultationInput{PatientName: str("Marie")})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), doctor5, c.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	got, err := svc.Get(context.Background(), doctor7, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.Get(context.Background(), doctor5, 999)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCancel_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, event.Nop{})
	c, err := svc.Create(context.Background(), doctor5, model.ConsultationInput{PatientName: str("Marie")})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := svc.Cancel(context.Background(), doctor5, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ConsultationStatusCancelled, got.Status)
	}
}

func TestUpdate_Rules(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, event.Nop{})
	c, err := svc.Create(context.Background(), doctor5, model.ConsultationInput{PatientName: str("Marie")})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), doctor5, c.ID, model.ConsultationUpdate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgNothingToUpdate)

	_, err = svc.Update(context.Background(), doctor5, c.ID, model.ConsultationUpdate{PatientAge: intp(-1)})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	got, err := svc.Update(context.Background(), doctor5, c.ID, model.ConsultationUpdate{PatientName: str(" Marie Curie ")})
	require.NoError(t, err)
	assert.Equal(t, "Marie Curie", got.PatientName)
}

func TestDelete_HeadDoctorNotPrivileged(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, event.Nop{})
	c, err := svc.Create(context.Background(), doctor7, model.ConsultationInput{PatientName: str("Marie")})
	require.NoError(t, err)

	head := model.Caller{ID: 3, Role: model.RoleHeadDoctor}
	_, err = svc.Get(context.Background(), head, c.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), head, c.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), admin, c.ID))
	_, err = svc.Get(context.Background(), admin, c.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestList_PaginationAndScope(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, event.Nop{})
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		_, err := svc.Create(context.Background(), doctor5, model.ConsultationInput{PatientName: str("Patient")})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), doctor7, model.ConsultationInput{PatientName: str("Autre")})
	require.NoError(t, err)

	res, err := svc.List(context.Background(), doctor5, model.RecordFilter{}, model.NewPage(2, 10))
	require.NoError(t, err)
	assert.Equal(t, 25, res.Total)
	require.Len(t, res.Items, 10)
	// newest first: page 2 holds the 11th to 20th most recent records
	assert.Equal(t, int64(15), res.Items[0].ID)
	assert.Equal(t, int64(6), res.Items[9].ID)

	all, err := svc.List(context.Background(), admin, model.RecordFilter{}, model.NewPage(1, 100))
	require.NoError(t, err)
	assert.Equal(t, 26, all.Total)
}

func TestListByDoctor_Forbidden(t *testing.T) {
	svc := NewService(newFakeRepo(), event.Nop{})

	_, err := svc.ListByDoctor(context.Background(), doctor5, 7, model.RecordFilter{}, model.NewPage(1, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgForbiddenList)

	_, err = svc.ListByDoctor(context.Background(), doctor7, 7, model.RecordFilter{}, model.NewPage(1, 10))
	assert.NoError(t, err)
}

func TestStats_ScopedForDoctors(t *testing.T) {
	svc := NewService(newFakeRepo(), event.Nop{})
	_, _ = svc.Create(context.Background(), doctor5, model.ConsultationInput{PatientName: str("Un")})
	_, _ = svc.Create(context.Background(), doctor7, model.ConsultationInput{PatientName: str("Deux")})

	stats, err := svc.Stats(context.Background(), doctor5, model.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalConsultations)

	stats, err = svc.Stats(context.Background(), admin, model.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalConsultations)
}
