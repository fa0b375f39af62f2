package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
)

// CommentRepo encapsulates queries against the comments table.  The
// thread is append-only: there are deliberately no update or delete
// methods here.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create appends a comment to a report's thread and returns the stored
// row.  ErrReportNotFound when the referenced report does not exist (the
// reports table carries a foreign key, surfaced via error 1452).
func (r *CommentRepo) Create(ctx context.Context, reportID uint64, email, text string) (*model.Comment, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (report_id, user_email, text) VALUES (?, ?, ?)",
		reportID, email, text)
	if err != nil {
		if isFKViolation(err) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	c := model.Comment{ID: uint64(id), ReportID: reportID, UserEmail: email, Text: text}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM comments WHERE id = ?", c.ID).Scan(&c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByReport returns the thread ordered ascending by creation time.
// Re-listing always reflects current persisted state; nothing is cached
// at this layer.
func (r *CommentRepo) ListByReport(ctx context.Context, reportID uint64) ([]*model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, report_id, user_email, text, created_at FROM comments WHERE report_id = ? ORDER BY created_at ASC, id ASC",
		reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Comment
	for rows.Next() {
		c := new(model.Comment)
		if err := rows.Scan(&c.ID, &c.ReportID, &c.UserEmail, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isFKViolation sniffs MySQL error 1452 (foreign key constraint fails),
// the same string match used for duplicate detection elsewhere.
func isFKViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1452")
}
