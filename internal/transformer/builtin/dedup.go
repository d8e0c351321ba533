package builtin

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hretl/internal/table"
	"hretl/internal/transformer"
)

// ReasonDuplicateKey is reported for rows DeDup removes.
const ReasonDuplicateKey = "duplicate key"

// Duplicate policies accepted by DeDup.
const (
	PolicyFail         = "fail"
	PolicyKeepFirst    = "keep-first"
	PolicyKeepLast     = "keep-last"
	PolicyMostComplete = "most-complete"
)

// ValidPolicy reports whether p names a duplicate policy. Empty means fail.
func ValidPolicy(p string) bool {
	switch p {
	case "", PolicyFail, PolicyKeepFirst, PolicyKeepLast, PolicyMostComplete:
		return true
	}
	return false
}

// DeDup collapses rows sharing the same Keys into one winner chosen by
// Policy:
//
//   - "keep-first":    the earliest occurrence
//   - "keep-last":     the latest occurrence (default)
//   - "most-complete": the row with the most non-empty cells; ties go to the
//     later row
//
// Rows with a Null key cell are not keyed and pass through. Survivors keep
// their input order. Losers are warned about and passed to Rejecter.
//
// Run it only when a duplicate policy is configured; by default the job
// fails on duplicates with UniqueKey instead of choosing a row.
type DeDup struct {
	Keys     []string // empty means EmployeeID
	Policy   string
	Log      *zap.Logger
	Rejecter transformer.Rejecter
}

func (d DeDup) Apply(in *table.Table) (*table.Table, error) {
	keys := d.Keys
	if len(keys) == 0 {
		keys = []string{KeyColumn}
	}
	if err := in.Require(keys...); err != nil {
		return nil, err
	}
	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	switch policy {
	case "":
		policy = PolicyKeepLast
	case PolicyKeepFirst, PolicyKeepLast, PolicyMostComplete:
	default:
		return nil, fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}

	type slot struct {
		pos   int
		score int
	}
	rows := in.Rows()
	winners := make(map[string]slot, len(rows))
	keyed := make([]string, len(rows))

	for i, r := range rows {
		key, ok := keyOf(r, keys)
		if !ok {
			continue
		}
		keyed[i] = key
		s := slot{pos: i}
		prev, seen := winners[key]
		switch policy {
		case PolicyKeepFirst:
			if !seen {
				winners[key] = s
			}
		case PolicyMostComplete:
			s.score = completeness(r)
			if !seen || s.score >= prev.score {
				winners[key] = s
			}
		default:
			winners[key] = s
		}
	}

	log := orNop(d.Log)
	pos, removed := -1, 0
	out := in.Filter(func(r table.Row) bool {
		pos++
		key := keyed[pos]
		if key == "" || winners[key].pos == pos {
			return true
		}
		removed++
		log.Warn("deleting duplicate row",
			zap.Int("index", r.Index),
			zap.String("employee_id", r.Get(KeyColumn).String()),
			zap.String("policy", policy))
		if d.Rejecter != nil {
			d.Rejecter.Reject(ReasonDuplicateKey, r)
		}
		return false
	})
	if removed > 0 {
		log.Info("duplicates removed", zap.Int("rows", removed), zap.Int("remaining", out.Len()))
	}
	return out, nil
}

// keyOf joins the key cells with a unit separator. A Null key cell means
// the row is not keyed.
func keyOf(r table.Row, keys []string) (string, bool) {
	var b strings.Builder
	for i, k := range keys {
		v := r.Get(k)
		if v.IsNull() {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(v.Kind().String())
		b.WriteByte(':')
		b.WriteString(v.String())
	}
	return b.String(), true
}

func completeness(r table.Row) int {
	n := 0
	for _, v := range r.Values() {
		if !v.IsEmpty() {
			n++
		}
	}
	return n
}
