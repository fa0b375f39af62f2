package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository"
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/storage"
)

func newProjectHandler(t *testing.T) (*ProjectHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	h := NewProjectHandler(
		repository.NewClientRepo(db),
		repository.NewProjectRepo(db),
		repository.NewReportRepo(db),
		files,
	)
	return h, mock, func() { db.Close() }
}

func sessionGet(t *testing.T, path, email, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("email", email)
	c.Set("role", role)
	return c, rec
}

func reportRows() []string {
	return []string{"id", "project_id", "name", "stored_name", "version", "uploaded_by", "uploaded_at"}
}

func TestListProjectsAdminSeesAllNewestActivityFirst(t *testing.T) {
	h, mock, done := newProjectHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, client_id, created_at FROM projects ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "client_id", "created_at"}).
			AddRow(1, "Alpha Audit", 1, now.Add(-48*time.Hour)).
			AddRow(2, "Beta Audit", 2, now.Add(-24*time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, status, added_at FROM clients ORDER BY added_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "added_at"}).
			AddRow(1, "alice@example.com", "active", now).
			AddRow(2, "bob@example.com", "active", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE project_id = ? ORDER BY version ASC")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(reportRows()).
			AddRow(10, 1, "a-v1.pdf", "x.pdf", 1, "boss@example.com", now.Add(-40*time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE project_id = ? ORDER BY version ASC")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(reportRows()).
			AddRow(11, 2, "b-v1.pdf", "y.pdf", 1, "boss@example.com", now.Add(-time.Hour)))

	c, rec := sessionGet(t, "/projects", "boss@example.com", "admin")
	if err := h.ListProjects(c); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var out []struct {
		ID          uint64 `json:"id"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 projects, got %d", len(out))
	}
	// Beta has the fresher report, so it lists first.
	if out[0].ID != 2 || out[1].ID != 1 {
		t.Errorf("wrong order: %+v", out)
	}
	if out[0].ClientEmail != "bob@example.com" || out[1].ClientEmail != "alice@example.com" {
		t.Errorf("owner emails missing: %+v", out)
	}
}

func TestListProjectsClientScopedToOwnProjects(t *testing.T) {
	h, mock, done := newProjectHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, status, added_at FROM clients WHERE email = ? LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "added_at"}).
			AddRow(1, "alice@example.com", "active", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, client_id, created_at FROM projects WHERE client_id = ? ORDER BY id")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "client_id", "created_at"}).
			AddRow(1, "Alpha Audit", 1, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE project_id = ? ORDER BY version ASC")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(reportRows()).
			AddRow(10, 1, "a-v1.pdf", "x.pdf", 1, "boss@example.com", now))

	c, rec := sessionGet(t, "/projects", "alice@example.com", "client")
	if err := h.ListProjects(c); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Alpha Audit") {
		t.Errorf("own project missing: %s", body)
	}
	if strings.Contains(body, "Beta Audit") || strings.Contains(body, "bob@example.com") {
		t.Errorf("foreign data leaked into client listing: %s", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestListProjectsRemovedClientGetsEmptyList(t *testing.T) {
	h, mock, done := newProjectHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, status, added_at FROM clients WHERE email = ? LIMIT 1")).
		WithArgs("gone@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "added_at"}))

	c, rec := sessionGet(t, "/projects", "gone@example.com", "client")
	if err := h.ListProjects(c); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("want [], got %s", rec.Body.String())
	}
}

func TestDownloadForbiddenForForeignReport(t *testing.T) {
	h, mock, done := newProjectHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE id = ? LIMIT 1")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(reportRows()).
			AddRow(9, 2, "secret.pdf", "z.pdf", 1, "boss@example.com", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, status, added_at FROM clients WHERE email = ? LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "added_at"}).
			AddRow(1, "alice@example.com", "active", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, client_id, created_at FROM projects WHERE id = ? LIMIT 1")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "client_id", "created_at"}).
			AddRow(2, "Beta Audit", 2, now))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/download/9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("reportId")
	c.SetParamValues("9")
	c.Set("email", "alice@example.com")
	c.Set("role", "client")

	if err := h.Download(c); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestDownloadUnknownReport(t *testing.T) {
	h, mock, done := newProjectHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE id = ? LIMIT 1")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows(reportRows()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/download/404", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("reportId")
	c.SetParamValues("404")
	c.Set("email", "boss@example.com")
	c.Set("role", "admin")

	if err := h.Download(c); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func multipartUpload(t *testing.T, path, filename string, fields map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := part.Write([]byte("content")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	w.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAddReportRejectsDisallowedExtension(t *testing.T) {
	h, _, done := newProjectHandler(t)
	defer done()

	c, rec := multipartUpload(t, "/project/5/add-report", "notes.txt", nil)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set("email", "boss@example.com")
	c.Set("role", "admin")

	if err := h.AddReport(c); err != nil {
		t.Fatalf("AddReport: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateProjectRequiresFields(t *testing.T) {
	h, _, done := newProjectHandler(t)
	defer done()

	c, rec := multipartUpload(t, "/admin/create-project", "", map[string]string{"title": "X"})
	c.Set("email", "boss@example.com")
	c.Set("role", "admin")

	if err := h.CreateProject(c); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
