// Package skiplog counts rejected rows per reason and, optionally, writes
// each one to a CSV report so a run can be audited per EmployeeID.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"hretl/internal/table"
)

// Header is the first line of a report.
var Header = []string{"reason", "index", "employee_id", "raw"}

// Ledger implements transformer.Rejecter.
type Ledger struct {
	mu      sync.Mutex
	reasons map[string]int
	order   []string
	w       *csv.Writer
	c       io.Closer
}

// New returns a Ledger that only counts.
func New() *Ledger {
	return &Ledger{reasons: make(map[string]int)}
}

// NewWriter returns a Ledger that also writes a report to w.
func NewWriter(w io.Writer) (*Ledger, error) {
	l := New()
	l.w = csv.NewWriter(w)
	if err := l.w.Write(Header); err != nil {
		return nil, fmt.Errorf("skiplog: write header: %w", err)
	}
	return l, nil
}

// Create opens path (creating parent directories) and returns a Ledger
// writing its report there. Close flushes and closes the file.
func Create(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("skiplog: create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: open %s: %w", path, err)
	}
	l, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	l.c = f
	return l, nil
}

// Reject records one removed row.
func (l *Ledger) Reject(reason string, row table.Row) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.reasons[reason]; !ok {
		l.order = append(l.order, reason)
	}
	l.reasons[reason]++
	if l.w == nil {
		return
	}
	_ = l.w.Write([]string{
		reason,
		strconv.Itoa(row.Index),
		row.Get("EmployeeID").String(),
		rawLine(row.Strings()),
	})
}

// rawLine renders values as one CSV line without the trailing newline.
func rawLine(vals []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(vals)
	w.Flush()
	return strings.TrimRight(b.String(), "\r\n")
}

// Counts returns a copy of the per-reason counters.
func (l *Ledger) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.reasons))
	for k, v := range l.reasons {
		out[k] = v
	}
	return out
}

// Reasons returns the reasons in the order they were first seen.
func (l *Ledger) Reasons() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Total is the number of rejected rows.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, v := range l.reasons {
		n += v
	}
	return n
}

// Close flushes the report and closes the file opened by Create.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	if l.w != nil {
		l.w.Flush()
		err = l.w.Error()
	}
	if l.c != nil {
		if cerr := l.c.Close(); err == nil {
			err = cerr
		}
		l.c = nil
	}
	return err
}
