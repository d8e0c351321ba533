// Package csv reads a delimited export into a table.Table. Header names are
// cleaned (BOM, surrounding whitespace, Unicode NFC); cell values are kept
// verbatim except that empty fields become Null.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"hretl/internal/config"
	"hretl/internal/table"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Options configures the CSV parser. Zero values select the defaults.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// LazyQuotes relaxes quote handling in encoding/csv.
	LazyQuotes bool

	// HeaderMap renames source header names (after cleaning) to canonical
	// column names.
	HeaderMap map[string]string

	// MaxLogged caps the per-row warnings for skipped rows. Zero means 400.
	MaxLogged int
}

// OptionsFrom maps parser.options from a pipeline file onto Options.
func OptionsFrom(o config.Options) Options {
	opt := Options{
		Comma:      o.Rune("comma", ','),
		LazyQuotes: o.Bool("lazy_quotes", false),
		MaxLogged:  o.Int("max_logged", 0),
	}
	if m, ok := o["header_map"].(map[string]any); ok {
		opt.HeaderMap = make(map[string]string, len(m))
		for k, v := range m {
			if s, ok := v.(string); ok {
				opt.HeaderMap[k] = s
			}
		}
	}
	return opt
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not concurrently.
type Parser struct {
	opt Options
	log *zap.Logger
}

// NewParser constructs a Parser. A nil logger discards diagnostics.
func NewParser(opt Options, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.MaxLogged <= 0 {
		opt.MaxLogged = 400
	}
	return &Parser{opt: opt, log: log}
}

// Parse consumes r and returns the table plus the number of data rows that
// were skipped. Rows shorter than the header are padded with Null; longer
// rows and rows encoding/csv cannot read are skipped and logged. Row indexes
// count every data record read, so skipped rows leave gaps.
func (p *Parser) Parse(r io.Reader) (*table.Table, int, error) {
	cr := csv.NewReader(r)
	cr.Comma = p.opt.Comma
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return nil, 0, ErrNoHeader
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers, err := normalizeHeaders(h, p.opt.HeaderMap)
	if err != nil {
		return nil, 0, err
	}

	b := table.NewBuilder(headers)
	skipped := 0
	skip := func(index int, line int, msg string, err error) {
		if skipped < p.opt.MaxLogged {
			p.log.Warn(msg, zap.Int("index", index), zap.Int("line", line), zap.Error(err))
		}
		skipped++
	}

	for index := 0; ; index++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			skip(index, line, "skipping unreadable row", err)
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(row) > len(headers) {
			skip(index, line, "skipping row with too many fields",
				fmt.Errorf("expected %d fields, got %d", len(headers), len(row)))
			continue
		}
		vals := make([]table.Value, len(row))
		for i, s := range row {
			if s != "" {
				vals[i] = table.Text(s)
			}
		}
		if err := b.Add(index, vals...); err != nil {
			return nil, skipped, err
		}
	}

	t := b.Table()
	p.log.Debug("csv parsed",
		zap.Int("rows", t.Len()),
		zap.Int("skipped", skipped),
		zap.Strings("columns", headers))
	return t, skipped, nil
}

// normalizeHeaders strips a BOM from the first cell, trims whitespace,
// applies NFC and then HeaderMap. Empty or duplicate names are an error.
func normalizeHeaders(h []string, headerMap map[string]string) ([]string, error) {
	res := StripHeaderBOM(append([]string(nil), h...))
	seen := make(map[string]bool, len(res))
	for i, col := range res {
		c := norm.NFC.String(strings.TrimSpace(col))
		if m, ok := headerMap[c]; ok {
			c = m
		}
		if c == "" {
			return nil, fmt.Errorf("csv: header column %d is empty", i+1)
		}
		if seen[c] {
			return nil, fmt.Errorf("csv: duplicate header column %q", c)
		}
		seen[c] = true
		res[i] = c
	}
	return res, nil
}
