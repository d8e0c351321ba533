// Package all enables every built-in storage backend. Import it for side
// effects from the binary's wiring layer:
//
//	import _ "hretl/internal/storage/all"
//
// After that, storage.New and storage.EnsureTable accept the kinds "mongo",
// "postgres", "mysql", "mssql" and "sqlite".
package all

import (
	_ "hretl/internal/storage/mongo"
	_ "hretl/internal/storage/mssql"
	_ "hretl/internal/storage/mysql"
	_ "hretl/internal/storage/postgres"
	_ "hretl/internal/storage/sqlite"
)
