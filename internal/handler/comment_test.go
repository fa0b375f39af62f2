package handler

import (
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

func newCommentHandler(t *testing.T) (*CommentHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	h := NewCommentHandler(repository.NewCommentRepo(db), repository.NewReportRepo(db))
	return h, mock, func() { db.Close() }
}

func commentPost(t *testing.T, reportID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/comments/"+reportID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("reportId")
	c.SetParamValues(reportID)
	return c, rec
}

func TestPostCommentEmptyTextRejected(t *testing.T) {
	h, _, done := newCommentHandler(t)
	defer done()

	c, rec := commentPost(t, "8", `{"email":"alice@example.com","text":"   "}`)
	if err := h.PostComment(c); err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPostCommentUnknownReport(t *testing.T) {
	h, mock, done := newCommentHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE id = ? LIMIT 1")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "stored_name", "version", "uploaded_by", "uploaded_at"}))

	c, rec := commentPost(t, "404", `{"email":"alice@example.com","text":"hello"}`)
	if err := h.PostComment(c); err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPostCommentFallsBackToSessionEmail(t *testing.T) {
	h, mock, done := newCommentHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE id = ? LIMIT 1")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "stored_name", "version", "uploaded_by", "uploaded_at"}).
			AddRow(8, 1, "a.pdf", "x.pdf", 1, "boss@example.com", now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments (report_id, user_email, text) VALUES (?, ?, ?)")).
		WithArgs(uint64(8), "alice@example.com", "looks good").
		WillReturnResult(sqlmock.NewResult(15, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM comments WHERE id = ?")).
		WithArgs(uint64(15)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	c, rec := commentPost(t, "8", `{"text":"looks good"}`)
	c.Set("email", "alice@example.com")
	c.Set("role", "client")
	if err := h.PostComment(c); err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Errorf("session author missing: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestListCommentsEmptyThread(t *testing.T) {
	h, mock, done := newCommentHandler(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, report_id, user_email, text, created_at FROM comments WHERE report_id = ? ORDER BY created_at ASC, id ASC")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "user_email", "text", "created_at"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/comments/8", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("reportId")
	c.SetParamValues("8")
	if err := h.ListComments(c); err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty thread should serialize as [], got %s", rec.Body.String())
	}
}
