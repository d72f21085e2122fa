package student

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validID = "65f1c2a4b7e8d9f0a1b2c3d4"

// fakeStorage records what the handlers pass down and returns canned
// results. Each field is consulted by the matching method.
type fakeStorage struct {
	createID  string
	createErr error
	created   []types.Student

	list      []types.Student
	listErr   error
	gotFilter types.StudentFilter

	student types.Student
	getErr  error

	updateErr error
	gotPatch  types.StudentPatch

	deleteErr error

	calls int
}

func (f *fakeStorage) CreateStudent(_ context.Context, name string, age int, address types.Address) (string, error) {
	f.calls++
	f.created = append(f.created, types.Student{Name: name, Age: age, Address: address})
	return f.createID, f.createErr
}

func (f *fakeStorage) GetStudents(_ context.Context, filter types.StudentFilter) ([]types.Student, error) {
	f.calls++
	f.gotFilter = filter
	return f.list, f.listErr
}

func (f *fakeStorage) GetStudentByID(_ context.Context, _ string) (types.Student, error) {
	f.calls++
	return f.student, f.getErr
}

func (f *fakeStorage) UpdateStudentByID(_ context.Context, _ string, patch types.StudentPatch) error {
	f.calls++
	f.gotPatch = patch
	return f.updateErr
}

func (f *fakeStorage) DeleteStudentByID(_ context.Context, _ string) error {
	f.calls++
	return f.deleteErr
}

func serve(h http.HandlerFunc, method, target, body, id string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if id != "" {
		req.SetPathValue("id", id)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func strPtr(s string) *string { return &s }

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "created",
			body:       `{"name":"Ann","age":22,"address":{"country":"India"}}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":"` + validID + `"}`,
		},
		{
			name:       "address is optional",
			body:       `{"name":"Ann","age":22}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":"` + validID + `"}`,
		},
		{
			name:       "age zero is allowed",
			body:       `{"name":"Ann","age":0}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":"` + validID + `"}`,
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"status":"error","error":"request body is empty"}`,
		},
		{
			name:       "missing fields",
			body:       `{"address":{}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"status":"error","error":"field name is required, field age is required"}`,
		},
		{
			name:       "wrong type",
			body:       `{"name":"Ann","age":"22"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStorage{createID: validID}
			rec := serve(New(fs), http.MethodPost, "/students", tt.body, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				assert.Zero(t, fs.calls, "storage must not be called on invalid input")
			}
		})
	}
}

func TestNew_PassesFieldsThrough(t *testing.T) {
	fs := &fakeStorage{createID: validID}
	serve(New(fs), http.MethodPost, "/students",
		`{"name":"Ann","age":22,"address":{"city":"Pune","country":"India"}}`, "")

	require.Len(t, fs.created, 1)
	assert.Equal(t, types.Student{
		Name:    "Ann",
		Age:     22,
		Address: types.Address{City: strPtr("Pune"), Country: strPtr("India")},
	}, fs.created[0])
}

func TestNew_StoreError(t *testing.T) {
	fs := &fakeStorage{createErr: errors.New("connection refused")}
	rec := serve(New(fs), http.MethodPost, "/students", `{"name":"Ann","age":22}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestGetList(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		fs := &fakeStorage{list: []types.Student{}}
		rec := serve(GetList(fs), http.MethodGet, "/students", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
		assert.Equal(t, types.StudentFilter{}, fs.gotFilter)
	})

	t.Run("both filters", func(t *testing.T) {
		fs := &fakeStorage{list: []types.Student{
			{ID: validID, Name: "Ann", Age: 22, Address: types.Address{Country: strPtr("India")}},
		}}
		rec := serve(GetList(fs), http.MethodGet, "/students?country=India&age=20", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"data":[{"id":"`+validID+`","name":"Ann","age":22,"address":{"city":null,"country":"India"}}]}`,
			rec.Body.String())
		require.NotNil(t, fs.gotFilter.Country)
		require.NotNil(t, fs.gotFilter.MinAge)
		assert.Equal(t, "India", *fs.gotFilter.Country)
		assert.Equal(t, 20, *fs.gotFilter.MinAge)
	})

	t.Run("empty country is no filter", func(t *testing.T) {
		fs := &fakeStorage{list: []types.Student{}}
		serve(GetList(fs), http.MethodGet, "/students?country=", "", "")
		assert.Nil(t, fs.gotFilter.Country)
	})

	t.Run("age must be an integer", func(t *testing.T) {
		fs := &fakeStorage{}
		rec := serve(GetList(fs), http.MethodGet, "/students?age=old", "", "")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Zero(t, fs.calls)
	})

	t.Run("store error", func(t *testing.T) {
		fs := &fakeStorage{listErr: errors.New("boom")}
		rec := serve(GetList(fs), http.MethodGet, "/students", "", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fs := &fakeStorage{student: types.Student{ID: validID, Name: "Ann", Age: 22}}
		rec := serve(GetByID(fs), http.MethodGet, "/students/"+validID, "", validID)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"id":"`+validID+`","name":"Ann","age":22,"address":{"city":null,"country":null}}`,
			rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		fs := &fakeStorage{getErr: storage.ErrNotFound}
		rec := serve(GetByID(fs), http.MethodGet, "/students/123", "", "123")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"status":"error","error":"Student not found"}`, rec.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		fs := &fakeStorage{getErr: errors.New("boom")}
		rec := serve(GetByID(fs), http.MethodGet, "/students/"+validID, "", validID)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		body       string
		updateErr  error
		wantStatus int
		wantCalled bool
	}{
		{"updated", validID, `{"age":23}`, nil, http.StatusNoContent, true},
		{"empty body", validID, "", nil, http.StatusBadRequest, false},
		{"empty object", validID, `{}`, nil, http.StatusBadRequest, false},
		{"empty object with bad id", "123", `{}`, nil, http.StatusBadRequest, false},
		{"only unknown fields", validID, `{"email":"x@y.z"}`, nil, http.StatusBadRequest, false},
		{"null name", validID, `{"name":null}`, nil, http.StatusUnprocessableEntity, false},
		{"wrong type", validID, `{"age":"old"}`, nil, http.StatusUnprocessableEntity, false},
		{"not found", "123", `{"age":23}`, storage.ErrNotFound, http.StatusNotFound, true},
		{"store error", validID, `{"age":23}`, errors.New("boom"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStorage{updateErr: tt.updateErr}
			rec := serve(Update(fs), http.MethodPatch, "/students/"+tt.id, tt.body, tt.id)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, fs.calls > 0)
			if tt.wantStatus == http.StatusNoContent {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestUpdate_PassesOnlySuppliedFields(t *testing.T) {
	fs := &fakeStorage{}
	serve(Update(fs), http.MethodPatch, "/students/"+validID, `{"age":23}`, validID)

	assert.False(t, fs.gotPatch.Name.Set)
	assert.False(t, fs.gotPatch.Address.Set)
	assert.Equal(t, types.Some(23), fs.gotPatch.Age)
}

func TestDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		fs := &fakeStorage{}
		rec := serve(Delete(fs), http.MethodDelete, "/students/"+validID, "", validID)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Student deleted successfully"}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		fs := &fakeStorage{deleteErr: storage.ErrNotFound}
		rec := serve(Delete(fs), http.MethodDelete, "/students/"+validID, "", validID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
