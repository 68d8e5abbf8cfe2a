// Package database provides relational storage connectivity for Student Ally Core.
//
// This package manages:
//   - Driver selection (SQLite for development and tests, PostgreSQL in production)
//   - Connection pooling and lifecycle management
//   - Schema migrations from the embedded migration tree
//   - Translation of driver-specific unique-constraint errors
//
// All repositories share a single *sqlx.DB. Queries are written with ?
// placeholders and passed through Rebind so the same statement works on
// every supported driver.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Driver: "sqlite3", Path: "./data/ally.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration Strategy:
//
// Each dialect has its own directory under migrations/ (sqlite, postgres)
// with matching version numbers. Files follow the golang-migrate naming
// scheme: {version}_{name}.up.sql and {version}_{name}.down.sql.
package database
