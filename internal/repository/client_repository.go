package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
)

// ClientRepo encapsulates all database queries against the clients table.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientCols = "id, email, status, added_at"

// Create inserts a client with status 'active' and returns the stored row.
// Duplicate emails map to ErrEmailExists.
func (r *ClientRepo) Create(ctx context.Context, email string) (*model.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (email, status) VALUES (?, ?)",
		email, model.ClientActive)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	// Follow-up SELECT populates the DB-generated added_at.
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a client by id, ErrClientNotFound when absent.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*model.Client, error) {
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE id = ? LIMIT 1", id).
		Scan(&c.ID, &c.Email, &c.Status, &c.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail fetches a client by normalized email regardless of status.
func (r *ClientRepo) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE email = ? LIMIT 1", email).
		Scan(&c.ID, &c.Email, &c.Status, &c.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActiveByEmail fetches a client only when it exists AND is active.
// The OTP request flow uses this so inactive clients are rejected before
// any code is ever issued.
func (r *ClientRepo) GetActiveByEmail(ctx context.Context, email string) (*model.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE email = ? AND status = ? LIMIT 1",
		email, model.ClientActive).
		Scan(&c.ID, &c.Email, &c.Status, &c.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all clients, newest registrations first.
func (r *ClientRepo) List(ctx context.Context) ([]*model.Client, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientCols+" FROM clients ORDER BY added_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Client
	for rows.Next() {
		c := new(model.Client)
		if err := rows.Scan(&c.ID, &c.Email, &c.Status, &c.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEmail renames a client.  ErrClientNotFound when no row matched,
// ErrEmailExists when the new email is already taken.
func (r *ClientRepo) UpdateEmail(ctx context.Context, id uint64, email string) (*model.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET email = ? WHERE id = ?", email, id)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either the id is unknown or the email is unchanged; resolve via lookup.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// ToggleStatus flips active<->inactive and returns the updated client.
// Applying it twice restores the original status.
func (r *ClientRepo) ToggleStatus(ctx context.Context, id uint64) (*model.Client, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET status = IF(status = ?, ?, ?) WHERE id = ?",
		model.ClientActive, model.ClientInactive, model.ClientActive, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrClientNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a client row.  ErrClientNotFound when nothing matched.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrClientNotFound
	}
	return nil
}

// isDuplicate sniffs MySQL error 1062 (duplicate entry) from the driver
// error string, the same way the rest of this codebase detects unique
// constraint violations.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
