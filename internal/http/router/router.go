// Package router builds the HTTP route table.
//
// Route table:
//
//	POST   /students        → create a new student
//	GET    /students        → list students (?country=&age=)
//	GET    /students/{id}   → get one student by id
//	PATCH  /students/{id}   → partially update a student
//	DELETE /students/{id}   → delete a student
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-management/internal/http/handlers/student"
	"github.com/aanand-mishra/student-management/internal/http/middleware"
	"github.com/aanand-mishra/student-management/internal/storage"
)

// New registers every route against storage and wraps the mux in the
// request-id, access-log and recovery middleware.
func New(storage storage.Storage, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /students", student.New(storage))
	mux.HandleFunc("GET /students", student.GetList(storage))
	mux.HandleFunc("GET /students/{id}", student.GetByID(storage))
	mux.HandleFunc("PATCH /students/{id}", student.Update(storage))
	mux.HandleFunc("DELETE /students/{id}", student.Delete(storage))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recover(log),
	)
}
