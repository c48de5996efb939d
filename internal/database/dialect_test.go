package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN includes busy timeout", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "/tmp/game.db"})
		if !strings.Contains(result, "_busy_timeout") {
			t.Errorf("DSN() = %v, want busy timeout parameter", result)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM rooms WHERE id = ?",
			expected: "SELECT * FROM rooms WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM rooms WHERE id = ?",
			expected: "SELECT * FROM rooms WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO participants (room_id, user_id) VALUES (?, ?)",
			expected: "INSERT INTO participants (room_id, user_id) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE rooms SET status = ?, current_index = ? WHERE id = ?",
			expected: "UPDATE rooms SET status = ?, current_index = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestInsertIgnoreQuery(t *testing.T) {
	columns := []string{"room_id", "user_id", "position"}
	conflict := []string{"room_id", "user_id", "position"}

	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{
			name:     "SQLite",
			dialect:  NewSQLiteDialect(),
			expected: "INSERT OR IGNORE INTO results (room_id, user_id, position) VALUES (?, ?, ?)",
		},
		{
			name:     "PostgreSQL",
			dialect:  NewPostgresDialect(),
			expected: "INSERT INTO results (room_id, user_id, position) VALUES (?, ?, ?) ON CONFLICT (room_id, user_id, position) DO NOTHING",
		},
		{
			name:     "MySQL",
			dialect:  NewMySQLDialect(),
			expected: "INSERT IGNORE INTO results (room_id, user_id, position) VALUES (?, ?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.InsertIgnoreQuery("results", columns, conflict)
			if result != tt.expected {
				t.Errorf("InsertIgnoreQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestRandomFunc(t *testing.T) {
	if got := NewSQLiteDialect().RandomFunc(); got != "RANDOM()" {
		t.Errorf("sqlite RandomFunc() = %v", got)
	}
	if got := NewPostgresDialect().RandomFunc(); got != "RANDOM()" {
		t.Errorf("postgres RandomFunc() = %v", got)
	}
	if got := NewMySQLDialect().RandomFunc(); got != "RAND()" {
		t.Errorf("mysql RandomFunc() = %v", got)
	}
}
