package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize creates and configures a SQLite-backed connection
func Initialize(dbPath string) (*DB, error) {
	return open(NewSQLiteDialect(), DialectConfig{Path: dbPath})
}

// InitializeWithType creates and configures the database connection for the
// configured database type (sqlite, postgres, mysql).
func InitializeWithType(dbType, dbPath, dbURL string) (*DB, error) {
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return open(NewPostgresDialect(), DialectConfig{URL: dbURL})
	case "mysql":
		return open(NewMySQLDialect(), DialectConfig{URL: dbURL})
	case "sqlite", "sqlite3", "":
		return open(NewSQLiteDialect(), DialectConfig{Path: dbPath})
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

func open(dialect Dialect, cfg DialectConfig) (*DB, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Query executes a query with automatic placeholder rewriting
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.Query(db.Dialect.RewriteQuery(query), args...)
}

// QueryRow executes a query that returns a single row with automatic placeholder rewriting
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRow(db.Dialect.RewriteQuery(query), args...)
}

// Exec executes a query that doesn't return rows with automatic placeholder rewriting
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(db.Dialect.RewriteQuery(query), args...)
}

// ExecReturningID executes an INSERT query and returns the new row's ID.
// This handles the dialect difference between databases that support
// LastInsertId() and PostgreSQL which requires a RETURNING clause.
func (db *DB) ExecReturningID(query string, args ...interface{}) (int64, error) {
	rewrittenQuery := db.Dialect.RewriteQuery(query)

	if db.Dialect.SupportsLastInsertId() {
		result, err := db.DB.Exec(rewrittenQuery, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	rewrittenQuery = strings.TrimSuffix(strings.TrimSpace(rewrittenQuery), ";")
	rewrittenQuery += " RETURNING id"

	var id int64
	err := db.DB.QueryRow(rewrittenQuery, args...).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertIgnore runs a dialect-appropriate insert-if-absent and reports whether
// this caller actually inserted the row. Concurrent callers converge on one
// winner; losers see inserted == false.
func (db *DB) InsertIgnore(table string, columns, conflict []string, args ...interface{}) (bool, error) {
	query := db.Dialect.RewriteQuery(db.Dialect.InsertIgnoreQuery(table, columns, conflict))
	result, err := db.DB.Exec(query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
