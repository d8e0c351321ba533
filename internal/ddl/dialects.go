package ddl

import (
	"fmt"
	"strings"
)

func doubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Postgres quotes with double quotes.
var Postgres = Dialect{
	Name:  "postgres",
	Quote: doubleQuote,
	MapType: func(kind string, _ bool) string {
		switch kind {
		case "int":
			return "BIGINT"
		case "number":
			return "DOUBLE PRECISION"
		case "date":
			return "DATE"
		default:
			return "TEXT"
		}
	},
}

// SQLite uses type affinities and stores dates as ISO-8601 text.
var SQLite = Dialect{
	Name:  "sqlite",
	Quote: doubleQuote,
	MapType: func(kind string, _ bool) string {
		switch kind {
		case "int":
			return "INTEGER"
		case "number":
			return "REAL"
		default:
			return "TEXT"
		}
	},
}

// MySQL quotes with backticks. Key columns get a bounded VARCHAR since TEXT
// cannot be a primary key without a prefix length.
var MySQL = Dialect{
	Name:  "mysql",
	Quote: func(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" },
	MapType: func(kind string, key bool) string {
		switch kind {
		case "int":
			return "BIGINT"
		case "number":
			return "DOUBLE"
		case "date":
			return "DATE"
		default:
			if key {
				return "VARCHAR(64)"
			}
			return "TEXT"
		}
	},
}

// MSSQL quotes with brackets and guards CREATE with OBJECT_ID since T-SQL
// has no CREATE TABLE IF NOT EXISTS.
var MSSQL = Dialect{
	Name:  "mssql",
	Quote: func(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" },
	MapType: func(kind string, key bool) string {
		switch kind {
		case "int":
			return "BIGINT"
		case "number":
			return "FLOAT"
		case "date":
			return "DATE"
		default:
			if key {
				return "NVARCHAR(64)"
			}
			return "NVARCHAR(MAX)"
		}
	},
	Guard: func(_, quoted, create string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  %s\nEND",
			strings.ReplaceAll(quoted, "'", "''"), create)
	},
}

// Document describes schemaless stores. Column types are the logical kinds
// and nothing is quoted; only the collection name in FQN is used.
var Document = Dialect{
	Name:    "document",
	Quote:   func(id string) string { return id },
	MapType: func(kind string, _ bool) string { return kind },
}

// DialectFor returns the dialect used by the storage kind.
func DialectFor(kind string) (Dialect, bool) {
	switch kind {
	case "postgres":
		return Postgres, true
	case "sqlite":
		return SQLite, true
	case "mysql":
		return MySQL, true
	case "mssql":
		return MSSQL, true
	case "mongo":
		return Document, true
	default:
		return Dialect{}, false
	}
}
