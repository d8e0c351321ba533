package builtin

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"

	"hretl/internal/table"
)

var notLetter = runes.NotIn(unicode.L)

// TrimNonLetters removes every non-letter rune from both ends of s. Letters
// are Unicode category L, so "Ørsted" and "李" survive intact while interior
// punctuation such as the hyphen in "Anne-Marie" is kept.
func TrimNonLetters(s string) string {
	return strings.TrimFunc(s, notLetter.Contains)
}

// SanitizeNames applies TrimNonLetters to each of Columns and logs every
// cell it changed with the row index and the old and new value.
type SanitizeNames struct {
	Columns []string
	Log     *zap.Logger
}

func (s SanitizeNames) Apply(in *table.Table) (*table.Table, error) {
	if err := in.Require(s.Columns...); err != nil {
		return nil, err
	}
	log := orNop(s.Log)
	out := mapText(in, TrimNonLetters, s.Columns...)
	for _, c := range s.Columns {
		if n := logChanges(log, "cleaned name", c, in, out); n > 0 {
			log.Debug("name cleaning done", zap.String("column", c), zap.Int("changed", n))
		}
	}
	return out, nil
}
