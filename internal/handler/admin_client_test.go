package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository"
)

func errDuplicate() error {
	return errors.New("Error 1062 (23000): Duplicate entry 'dup@example.com' for key 'clients.email'")
}

func newAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewAdminHandler(repository.NewClientRepo(db)), mock, func() { db.Close() }
}

func TestListClientsEmptyRegistry(t *testing.T) {
	h, mock, done := newAdminHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, status, added_at FROM clients ORDER BY added_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "added_at"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/clients", nil)
	rec := httptest.NewRecorder()
	if err := h.ListClients(e.NewContext(req, rec)); err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty registry should serialize as [], got %s", rec.Body.String())
	}
}

func TestAddClientMissingEmail(t *testing.T) {
	h, _, done := newAdminHandler(t)
	defer done()

	c, rec := jsonPost(t, "/admin/add-client", `{"email":"  "}`)
	if err := h.AddClient(c); err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddClientDuplicate(t *testing.T) {
	h, mock, done := newAdminHandler(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients (email, status) VALUES (?, ?)")).
		WithArgs("dup@example.com", "active").
		WillReturnError(errDuplicate())

	c, rec := jsonPost(t, "/admin/add-client", `{"email":"dup@example.com"}`)
	if err := h.AddClient(c); err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestAddClientSuccess(t *testing.T) {
	h, mock, done := newAdminHandler(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients (email, status) VALUES (?, ?)")).
		WithArgs("new@example.com", "active").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, status, added_at FROM clients WHERE id = ? LIMIT 1")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "added_at"}).
			AddRow(3, "new@example.com", "active", time.Now()))

	c, rec := jsonPost(t, "/admin/add-client", `{"email":"New@Example.com"}`)
	if err := h.AddClient(c); err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Client new@example.com added successfully") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestToggleClientNotFound(t *testing.T) {
	h, mock, done := newAdminHandler(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE clients SET status = IF(status = ?, ?, ?) WHERE id = ?")).
		WithArgs("active", "inactive", "active", uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/admin/toggle-client/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.ToggleClient(c); err != nil {
		t.Fatalf("ToggleClient: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateClientBadID(t *testing.T) {
	h, _, done := newAdminHandler(t)
	defer done()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/admin/update-client/abc", strings.NewReader(`{"email":"x@y.z"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := h.UpdateClient(c); err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
