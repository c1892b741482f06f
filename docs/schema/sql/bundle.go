// Package sqldocs exposes the snapshot-table DDL bundles directly from the
// docs tree, so operators can provision databases without running the binary.
package sqldocs

import _ "embed"

// SQLite contains the SQLite DDL bundle for the snapshot store.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the Postgres DDL bundle for the snapshot store.
//
//go:embed postgres.sql
var Postgres string
