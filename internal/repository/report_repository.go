package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
)

// ReportRepo encapsulates queries against the reports table.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

const reportCols = "id, project_id, name, stored_name, version, uploaded_by, uploaded_at"

// Append adds the next revision to an existing project.  The new version
// is MAX(version)+1 computed under a row lock inside a transaction, so
// concurrent appends serialize and the lineage has no gaps and no reuse.
// ErrProjectNotFound when the project does not exist.
func (r *ReportRepo) Append(ctx context.Context, rep *model.Report) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the project row first; this both validates existence and
	// serializes competing appends on the same project.
	var pid uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM projects WHERE id = ? FOR UPDATE", rep.ProjectID).Scan(&pid)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProjectNotFound
	}
	if err != nil {
		return err
	}

	var next uint32
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM reports WHERE project_id = ?",
		rep.ProjectID).Scan(&next); err != nil {
		return err
	}
	rep.Version = next

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reports (project_id, name, stored_name, version, uploaded_by) VALUES (?, ?, ?, ?, ?)",
		rep.ProjectID, rep.Name, rep.StoredName, rep.Version, rep.UploadedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)

	if err := tx.QueryRowContext(ctx,
		"SELECT uploaded_at FROM reports WHERE id = ?", rep.ID).Scan(&rep.UploadedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a report, ErrReportNotFound when absent.
func (r *ReportRepo) GetByID(ctx context.Context, id uint64) (*model.Report, error) {
	var rep model.Report
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+reportCols+" FROM reports WHERE id = ? LIMIT 1", id).
		Scan(&rep.ID, &rep.ProjectID, &rep.Name, &rep.StoredName, &rep.Version, &rep.UploadedBy, &rep.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByProject returns a project's full revision history ordered by
// version ascending.
func (r *ReportRepo) ListByProject(ctx context.Context, projectID uint64) ([]*model.Report, error) {
	return r.list(ctx,
		"SELECT "+reportCols+" FROM reports WHERE project_id = ? ORDER BY version ASC", projectID)
}

// ListAll returns every report, newest uploads first.  Used by the legacy
// flat listing for admins.
func (r *ReportRepo) ListAll(ctx context.Context) ([]*model.Report, error) {
	return r.list(ctx,
		"SELECT "+reportCols+" FROM reports ORDER BY uploaded_at DESC, id DESC")
}

// ListByClient returns reports across all projects owned by one client,
// newest uploads first.
func (r *ReportRepo) ListByClient(ctx context.Context, clientID uint64) ([]*model.Report, error) {
	return r.list(ctx,
		`SELECT r.id, r.project_id, r.name, r.stored_name, r.version, r.uploaded_by, r.uploaded_at
		 FROM reports r JOIN projects p ON r.project_id = p.id
		 WHERE p.client_id = ? ORDER BY r.uploaded_at DESC, r.id DESC`, clientID)
}

func (r *ReportRepo) list(ctx context.Context, q string, args ...any) ([]*model.Report, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Report
	for rows.Next() {
		rep := new(model.Report)
		if err := rows.Scan(&rep.ID, &rep.ProjectID, &rep.Name, &rep.StoredName, &rep.Version, &rep.UploadedBy, &rep.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
