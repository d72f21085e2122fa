// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// To inject the storage dependency each exported function is a factory:
// it is called once at startup with the storage and returns the handler
// that runs on every request.
//
//	router.HandleFunc("POST /students", student.New(storage))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

var (
	errNotFound      = errors.New("Student not found")
	errNoFields      = errors.New("No fields to update")
	errEmptyBody     = errors.New("request body is empty")
	errInternalStore = errors.New("internal server error")
)

// validate is shared: a *validator.Validate caches struct metadata and is
// safe for concurrent use. Field names in messages use the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
//
// Request body (JSON):
//
//	{ "name": "Ann", "age": 22, "address": { "city": null, "country": "India" } }
//
// Success response (201 Created):
//
//	{ "id": "65f1c2a4b7e8d9f0a1b2c3d4" }
//
// Error responses:
//
//	422 Unprocessable Entity — empty body, malformed JSON, wrong types,
//	                           or a missing name/age
//	500 Internal             — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var student types.NewStudent

		err := json.NewDecoder(r.Body).Decode(&student)
		if errors.Is(err, io.EOF) {
			response.WriteError(w, http.StatusUnprocessableEntity, errEmptyBody)
			return
		}
		if err != nil {
			response.WriteError(w, http.StatusUnprocessableEntity, err)
			return
		}

		if err := validate.Struct(student); err != nil {
			var validateErrs validator.ValidationErrors
			if !errors.As(err, &validateErrs) {
				response.WriteError(w, http.StatusUnprocessableEntity, err)
				return
			}
			response.WriteJSON(w, http.StatusUnprocessableEntity,
				response.ValidationError(validateErrs))
			return
		}

		id, err := storage.CreateStudent(r.Context(), *student.Name, *student.Age, student.GetAddress())
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errInternalStore)
			return
		}

		slog.Info("student created", slog.String("id", id))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students?country=India&age=20
//
// country — exact match on address.country (empty means no filter)
// age     — minimum age, inclusive
//
// Success response (200 OK):
//
//	{ "data": [ { "id": "...", "name": "Ann", ... } ] }
//
// "data" is [] (not null) when nothing matches.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			response.WriteError(w, http.StatusUnprocessableEntity, err)
			return
		}

		slog.Info("listing students",
			slog.String("country", r.URL.Query().Get("country")),
			slog.String("age", r.URL.Query().Get("age")))

		students, err := storage.GetStudents(r.Context(), filter)
		if err != nil {
			slog.Error("error listing students", slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errInternalStore)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.List[types.Student]{Data: students})
	}
}

func parseFilter(r *http.Request) (types.StudentFilter, error) {
	var filter types.StudentFilter
	q := r.URL.Query()

	if country := q.Get("country"); country != "" {
		filter.Country = &country
	}

	if raw := q.Get("age"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return types.StudentFilter{}, errors.New("query parameter age must be an integer")
		}
		filter.MinAge = &age
	}

	return filter, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
//
// Success response (200 OK):
//
//	{ "id": "...", "name": "Ann", "age": 22, "address": { "city": null, "country": "India" } }
//
// Error responses:
//
//	404 Not Found — no student with that id, or the id is malformed
//	500 Internal  — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := storage.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, "error getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /students/{id}
// Writes only the fields present in the body. "address" replaces the
// stored address as a whole.
//
// Request body (JSON) — any non-empty subset:
//
//	{ "age": 23 }
//
// Success response: 204 No Content.
//
// Error responses:
//
//	400 Bad Request          — empty body or no known fields
//	422 Unprocessable Entity — malformed JSON, wrong types, explicit null
//	404 Not Found            — no student with that id, or the id is malformed
//	500 Internal             — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		var patch types.StudentPatch
		err := json.NewDecoder(r.Body).Decode(&patch)
		if errors.Is(err, io.EOF) {
			response.WriteError(w, http.StatusBadRequest, errNoFields)
			return
		}
		if err != nil {
			response.WriteError(w, http.StatusUnprocessableEntity, err)
			return
		}

		if patch.IsEmpty() {
			response.WriteError(w, http.StatusBadRequest, errNoFields)
			return
		}

		if err := patch.Validate(); err != nil {
			response.WriteError(w, http.StatusUnprocessableEntity, err)
			return
		}

		if err := storage.UpdateStudentByID(r.Context(), id, patch); err != nil {
			writeStoreError(w, "error updating student", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
// Permanently removes a student.
//
// Success response (200 OK):
//
//	{ "message": "Student deleted successfully" }
//
// Error responses:
//
//	404 Not Found — no student with that id, or the id is malformed
//	500 Internal  — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := storage.DeleteStudentByID(r.Context(), id); err != nil {
			writeStoreError(w, "error deleting student", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK,
			response.Message{Message: "Student deleted successfully"})
	}
}

// writeStoreError maps a storage error to its HTTP status. Anything other
// than the storage sentinels is logged and reported as a 500 without
// leaking driver details to the client.
func writeStoreError(w http.ResponseWriter, msg, id string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, errNotFound)
	case errors.Is(err, storage.ErrNoFields):
		response.WriteError(w, http.StatusBadRequest, errNoFields)
	default:
		slog.Error(msg,
			slog.String("id", id),
			slog.String("error", err.Error()))
		response.WriteError(w, http.StatusInternalServerError, errInternalStore)
	}
}
