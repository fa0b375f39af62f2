package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
)

// ProjectRepo encapsulates queries against the projects table.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectCols = "id, title, client_id, created_at"

// CreateWithInitialReport inserts a project and its version-1 report in a
// single transaction, so a project can never exist without its first
// revision and a failed file insert never leaves an empty project behind.
// Both structs are populated with their generated ids and timestamps.
func (r *ProjectRepo) CreateWithInitialReport(ctx context.Context, p *model.Project, rep *model.Report) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO projects (title, client_id) VALUES (?, ?)",
		p.Title, p.ClientID)
	if err != nil {
		return err
	}
	pid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(pid)

	rep.ProjectID = p.ID
	rep.Version = 1
	res, err = tx.ExecContext(ctx,
		"INSERT INTO reports (project_id, name, stored_name, version, uploaded_by) VALUES (?, ?, ?, ?, ?)",
		rep.ProjectID, rep.Name, rep.StoredName, rep.Version, rep.UploadedBy)
	if err != nil {
		return err
	}
	rid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(rid)

	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM projects WHERE id = ?", p.ID).Scan(&p.CreatedAt); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT uploaded_at FROM reports WHERE id = ?", rep.ID).Scan(&rep.UploadedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a project, ErrProjectNotFound when absent.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+projectCols+" FROM projects WHERE id = ? LIMIT 1", id).
		Scan(&p.ID, &p.Title, &p.ClientID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAll returns every project.  Final ordering (latest report activity
// first) is applied by the handler once reports are attached.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]*model.Project, error) {
	return r.list(ctx, "SELECT "+projectCols+" FROM projects ORDER BY id")
}

// ListByClient returns only the projects owned by one client.  Ownership
// scoping is a hard invariant: callers pass the client id resolved from
// the authenticated session, never from request input.
func (r *ProjectRepo) ListByClient(ctx context.Context, clientID uint64) ([]*model.Project, error) {
	return r.list(ctx,
		"SELECT "+projectCols+" FROM projects WHERE client_id = ? ORDER BY id", clientID)
}

func (r *ProjectRepo) list(ctx context.Context, q string, args ...any) ([]*model.Project, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p := new(model.Project)
		if err := rows.Scan(&p.ID, &p.Title, &p.ClientID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
