package postgres

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

// whereBuilder accumulates AND-ed conditions and their positional arguments.
// Conditions use ? for each argument; placeholders are numbered on add.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, args ...interface{}) {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			i++
			fmt.Fprintf(&b, "$%d", len(w.args))
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder for an argument appended after the conditions.
func (w *whereBuilder) next(arg interface{}) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

// recordWhere renders a RecordFilter against a table alias. dateCol is the
// column the date bounds apply to.
func recordWhere(alias, dateCol string, f model.RecordFilter) *whereBuilder {
	w := &whereBuilder{}
	col := func(name string) string { return alias + "." + name }

	if f.DoctorID != nil {
		w.add(col("doctor_id")+" = ?", *f.DoctorID)
	}
	if f.Status != "" {
		w.add(col("status")+" = ?", f.Status)
	}
	if f.PatientName != "" {
		w.add(col("patient_name")+" LIKE ?", "%"+escapeLike(f.PatientName)+"%")
	}
	if f.DateFrom != nil {
		w.add(col(dateCol)+" >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		w.add(col(dateCol)+" <= ?", *f.DateTo)
	}
	if f.SiteID != nil {
		w.add(col("site_id")+" = ?", *f.SiteID)
	}
	return w
}

func statsWhere(alias, dateCol string, f model.StatsFilter) *whereBuilder {
	return recordWhere(alias, dateCol, model.RecordFilter{
		DoctorID: f.DoctorID,
		SiteID:   f.SiteID,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// setBuilder collects the assignments of a partial UPDATE.
type setBuilder struct {
	sets []string
	args []interface{}
}

func (s *setBuilder) set(column string, value interface{}) {
	s.args = append(s.args, value)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setBuilder) empty() bool {
	return len(s.sets) == 0
}

// query renders UPDATE table SET ..., updated_at = NOW() WHERE id = $n.
func (s *setBuilder) query(table string, id int64) (string, []interface{}) {
	args := append(s.args, id)
	q := fmt.Sprintf("UPDATE %s SET %s, updated_at = NOW() WHERE id = $%d",
		table, strings.Join(s.sets, ", "), len(args))
	return q, args
}
