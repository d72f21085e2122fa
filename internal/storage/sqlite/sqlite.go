// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network and no separate server process, which makes it handy for
// local development and for demos where a MongoDB deployment is not
// available. Identifiers are generated as ObjectID hex strings so the
// wire format is the same whichever backend is configured.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.SQLitePath, creates the
// students table if it does not already exist, and returns a ready-to-use
// *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   id      — 24-char hex ObjectID, assigned by CreateStudent
	//   city    — NULL when the address has no city
	//   country — NULL when the address has no country
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id      TEXT    PRIMARY KEY,
			name    TEXT    NOT NULL,
			age     INTEGER NOT NULL,
			city    TEXT,
			country TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// CreateStudent inserts a new row and returns its generated id.
// Values go through ? placeholders, never string concatenation.
func (s *SQLite) CreateStudent(ctx context.Context, name string, age int, address types.Address) (string, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, name, age, city, country) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	id := storage.NewID()
	_, err = stmt.ExecContext(ctx, id, name, age, nullString(address.City), nullString(address.Country))
	if err != nil {
		return "", fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return id, nil
}

// GetStudents returns all rows matching filter, in insertion order.
func (s *SQLite) GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	query := "SELECT id, name, age, city, country FROM students"

	var (
		where []string
		args  []any
	)
	if filter.Country != nil {
		where = append(where, "country = ?")
		args = append(args, *filter.Country)
	}
	if filter.MinAge != nil {
		where = append(where, "age >= ?")
		args = append(args, *filter.MinAge)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid"

	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// GetStudentByID fetches exactly one row matched by id.
func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	if !storage.IsValidID(id) {
		return types.Student{}, storage.ErrNotFound
	}

	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, name, age, city, country FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, strings.ToLower(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// UpdateStudentByID sets only the columns supplied in patch. An address
// in the patch overwrites both city and country.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) error {
	var (
		set  []string
		args []any
	)
	if v, ok := patch.Name.Get(); ok {
		set = append(set, "name = ?")
		args = append(args, v)
	}
	if v, ok := patch.Age.Get(); ok {
		set = append(set, "age = ?")
		args = append(args, v)
	}
	if v, ok := patch.Address.Get(); ok {
		set = append(set, "city = ?", "country = ?")
		args = append(args, nullString(v.City), nullString(v.Country))
	}
	if len(set) == 0 {
		return storage.ErrNoFields
	}

	if !storage.IsValidID(id) {
		return storage.ErrNotFound
	}

	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE students SET "+strings.Join(set, ", ")+" WHERE id = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	args = append(args, strings.ToLower(id))
	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	// SQLite counts every row the WHERE clause matched, changed or not.
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteStudentByID removes a student row by id.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) error {
	if !storage.IsValidID(id) {
		return storage.ErrNotFound
	}

	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (types.Student, error) {
	var (
		student       types.Student
		city, country sql.NullString
	)

	// Scan order must match the SELECT column order.
	if err := row.Scan(&student.ID, &student.Name, &student.Age, &city, &country); err != nil {
		return types.Student{}, err
	}

	if city.Valid {
		student.Address.City = &city.String
	}
	if country.Valid {
		student.Address.Country = &country.String
	}

	return student, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
