package builtin

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"hretl/internal/table"
)

// DefaultDatePattern accepts a YYYY-MM-DD prefix followed by anything.
var DefaultDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var leadingDigit = regexp.MustCompile(`^\d+`)

// MisalignColumns are the fields the repair reads and rewrites.
var MisalignColumns = []string{"FirstName", "LastName", "BirthDate", "Department", "Salary"}

// shifted holds the named slots of one row during repair.
type shifted struct {
	first, last, birth, dept, salary table.Value
}

// RepairMisalignment handles rows whose Salary is Null or empty. Such rows
// are assumed to have two tokens in FirstName with every later field moved
// one column to the left. The repair moves LastName, BirthDate and
// Department one slot to the right, takes the second FirstName token as the
// first name and the first token as the last name. If the moved BirthDate
// does not match DatePattern, or the moved Salary does not start with a
// digit, the whole row (EmployeeID included) is set to Null so the
// rejection stages drop it.
type RepairMisalignment struct {
	// DatePattern validates the BirthDate candidate. Nil means DefaultDatePattern.
	DatePattern *regexp.Regexp
	Log         *zap.Logger
}

// Misaligned reports whether r shows the column shift symptom.
func Misaligned(r table.Row) bool {
	return r.Get("Salary").IsEmpty()
}

// splitFirst splits s at its first whitespace run. The remainder is "" when
// s holds a single token.
func splitFirst(s string) (head, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

func (m RepairMisalignment) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(MisalignColumns...); err != nil {
		return nil, err
	}
	log := orNop(m.Log)
	pat := m.DatePattern
	if pat == nil {
		pat = DefaultDatePattern
	}

	repaired, dropped := 0, 0
	out := in.Update(func(r *table.Row) {
		if !Misaligned(*r) {
			return
		}
		id := r.Get(KeyColumn).String()
		first, _ := r.Get("FirstName").Text()
		head, rest := splitFirst(first)

		cur := shifted{
			first:  r.Get("FirstName"),
			last:   r.Get("LastName"),
			birth:  r.Get("BirthDate"),
			dept:   r.Get("Department"),
			salary: r.Get("Salary"),
		}
		next := shifted{
			first:  table.Text(rest),
			last:   table.Text(head),
			birth:  cur.last,
			dept:   cur.birth,
			salary: cur.dept,
		}

		if s, ok := next.birth.Text(); !ok || !pat.MatchString(s) {
			log.Error("cannot repair suspected misalignment; row will be deleted",
				zap.Int("index", r.Index),
				zap.String("employee_id", id),
				zap.String("column", "BirthDate"),
				zap.Stringer("value", next.birth),
				zap.String("reason", "does not match date format"))
			r.Clear()
			dropped++
			return
		}
		if s, ok := next.salary.Text(); !ok || !leadingDigit.MatchString(s) {
			log.Error("cannot repair suspected misalignment; row will be deleted",
				zap.Int("index", r.Index),
				zap.String("employee_id", id),
				zap.String("column", "Salary"),
				zap.Stringer("value", next.salary),
				zap.String("reason", "is not a valid number"))
			r.Clear()
			dropped++
			return
		}

		r.Set("FirstName", next.first)
		r.Set("LastName", next.last)
		r.Set("BirthDate", next.birth)
		r.Set("Department", next.dept)
		r.Set("Salary", next.salary)
		repaired++
		log.Info("repaired misaligned row",
			zap.Int("index", r.Index),
			zap.String("employee_id", id),
			zap.Stringer("old_first_name", cur.first),
			zap.Stringer("first_name", next.first),
			zap.Stringer("last_name", next.last))
	})

	if repaired+dropped > 0 {
		log.Info("misalignment repair done", zap.Int("repaired", repaired), zap.Int("nullified", dropped))
	}
	return out, nil
}
