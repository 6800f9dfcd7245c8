// Package all wires all built-in storage backends into the storage factory.
//
// Importing it for side effects registers the repository factory and SQL
// dialect of each backend:
//
//   - "sqlite"   (titanic/internal/storage/sqlite)
//   - "postgres" (titanic/internal/storage/postgres)
//   - "mssql"    (titanic/internal/storage/mssql)
//   - "mysql"    (titanic/internal/storage/mysql)
//
// A binary that needs only a subset can import the backends directly instead.
package all

import (
	_ "titanic/internal/storage/mssql"
	_ "titanic/internal/storage/mysql"
	_ "titanic/internal/storage/postgres"
	_ "titanic/internal/storage/sqlite"
)
