// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change the driver in the config. Zero handler changes.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for handler tests.
//
// Two backends ship with the application: mongodb (the document store)
// and sqlite (a single-file store with the same identifier format).
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-management/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by every by-id operation when no student has
// the given id, including ids that are not well-formed.
var ErrNotFound = errors.New("student not found")

// ErrNoFields is returned by UpdateStudentByID for a patch that carries
// no fields. It takes precedence over ErrNotFound.
var ErrNoFields = errors.New("no fields to update")

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new student and returns the identifier the
	// store assigned to it.
	CreateStudent(ctx context.Context, name string, age int, address types.Address) (string, error)

	// GetStudents returns every student matching filter, in whatever order
	// the store yields them. Returns an empty slice (not nil) if none match.
	GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error)

	// GetStudentByID fetches a single student. Returns ErrNotFound if the
	// id is malformed or no student has it.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// UpdateStudentByID writes only the fields supplied in patch.
	// Returns ErrNoFields for an empty patch, whatever the id, and
	// ErrNotFound if the id is malformed or nothing matched.
	UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) error

	// DeleteStudentByID removes a student permanently.
	// Returns ErrNotFound if the id is malformed or nothing was removed.
	DeleteStudentByID(ctx context.Context, id string) error
}

// IsValidID reports whether id is a well-formed store identifier: a
// 24-character hexadecimal ObjectID. Backends call it before issuing any
// query so a malformed id is a plain not-found, never a driver error.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// NewID returns a fresh identifier in the store's format. Used by
// backends that do not generate ObjectIDs themselves.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
