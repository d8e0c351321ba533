package table

import (
	"github.com/zeebo/xxh3"
)

const (
	unitSep   = 0x1f
	recordSep = 0x1e
)

// Fingerprint hashes the header and every cell (kind and rendered value) in
// order. Two tables with equal content always share a fingerprint; row
// indexes are not part of the hash.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	for _, n := range t.h.names {
		h.WriteString(n)
		h.Write([]byte{unitSep})
	}
	h.Write([]byte{recordSep})
	for _, r := range t.rows {
		for _, v := range r.cells {
			h.Write([]byte{byte(v.kind)})
			h.WriteString(v.String())
			h.Write([]byte{unitSep})
		}
		h.Write([]byte{recordSep})
	}
	return h.Sum64()
}

// Duplicates returns the non-null values of col that occur more than once,
// in order of their second occurrence.
func (t *Table) Duplicates(col string) []string {
	j, ok := t.h.pos[col]
	if !ok {
		return nil
	}
	seen := make(map[uint64][]string, len(t.rows))
	reported := make(map[string]bool)
	var dups []string
	for _, r := range t.rows {
		v := r.cells[j]
		if v.IsNull() {
			continue
		}
		s := v.String()
		k := xxh3.HashString(s)
		hit := false
		for _, prev := range seen[k] {
			if prev == s {
				hit = true
				break
			}
		}
		if !hit {
			seen[k] = append(seen[k], s)
			continue
		}
		if !reported[s] {
			reported[s] = true
			dups = append(dups, s)
		}
	}
	return dups
}
