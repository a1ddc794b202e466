package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

func TestRecordWhere_Empty(t *testing.T) {
	w := recordWhere("c", "consultation_date", model.RecordFilter{})
	assert.Equal(t, "", w.String())
	assert.Empty(t, w.args)
}

func TestRecordWhere_AllFilters(t *testing.T) {
	doctor := int64(5)
	site := int64(2)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	w := recordWhere("mp", "prescribed_date", model.RecordFilter{
		DoctorID:    &doctor,
		SiteID:      &site,
		Status:      "ACTIVE",
		PatientName: "Dup",
		DateFrom:    &from,
		DateTo:      &to,
	})

	assert.Equal(t,
		" WHERE mp.doctor_id = $1 AND mp.status = $2 AND mp.patient_name LIKE $3"+
			" AND mp.prescribed_date >= $4 AND mp.prescribed_date <= $5 AND mp.site_id = $6",
		w.String())
	assert.Equal(t, []interface{}{doctor, "ACTIVE", "%Dup%", from, to, site}, w.args)
}

func TestRecordWhere_SharedByListAndCount(t *testing.T) {
	f := model.RecordFilter{Status: "COMPLETED"}

	list := recordWhere("c", "consultation_date", f)
	limit := list.next(10)
	offset := list.next(20)
	count := recordWhere("c", "consultation_date", f)

	assert.Equal(t, count.String(), list.String())
	assert.Equal(t, "$2", limit)
	assert.Equal(t, "$3", offset)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_x`, escapeLike("50% _x"))
}

func TestSetBuilder(t *testing.T) {
	s := &setBuilder{}
	assert.True(t, s.empty())

	s.set("patient_name", "Jean")
	s.set("notes", nil)
	q, args := s.query("consultations", 42)

	assert.Equal(t, "UPDATE consultations SET patient_name = $1, notes = $2, updated_at = NOW() WHERE id = $3", q)
	assert.Equal(t, []interface{}{"Jean", nil, int64(42)}, args)
}
