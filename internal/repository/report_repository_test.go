package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
)

func TestReportAppendAssignsNextVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReportRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM projects WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM reports WHERE project_id = ?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports (project_id, name, stored_name, version, uploaded_by) VALUES (?, ?, ?, ?, ?)")).
		WithArgs(uint64(5), "q3-audit.pdf", "ab12.pdf", uint32(3), "admin@example.com").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT uploaded_at FROM reports WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"uploaded_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	rep := &model.Report{
		ProjectID:  5,
		Name:       "q3-audit.pdf",
		StoredName: "ab12.pdf",
		UploadedBy: "admin@example.com",
	}
	if err := repo.Append(context.Background(), rep); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rep.ID != 11 || rep.Version != 3 {
		t.Errorf("unexpected report: id=%d version=%d", rep.ID, rep.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReportAppendMissingProject(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReportRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM projects WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	rep := &model.Report{ProjectID: 404, Name: "x.pdf", StoredName: "x.pdf", UploadedBy: "a@b.c"}
	if err := repo.Append(context.Background(), rep); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("want ErrProjectNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReportListByProjectOrdersByVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReportRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "project_id", "name", "stored_name", "version", "uploaded_by", "uploaded_at"}).
		AddRow(1, 5, "initial.pdf", "a.pdf", 1, "admin@example.com", now.Add(-2*time.Hour)).
		AddRow(9, 5, "followup.pdf", "b.pdf", 2, "admin@example.com", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, name, stored_name, version, uploaded_by, uploaded_at FROM reports WHERE project_id = ? ORDER BY version ASC")).
		WithArgs(uint64(5)).
		WillReturnRows(rows)

	list, err := repo.ListByProject(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 reports, got %d", len(list))
	}
	if list[0].Version != 1 || list[1].Version != 2 {
		t.Errorf("versions out of order: %d, %d", list[0].Version, list[1].Version)
	}
}
