package model

import "time"

// Client status values as stored in the `clients.status` column.
const (
	ClientActive   = "active"
	ClientInactive = "inactive"
)

// Client represents an account that is allowed to log into the
// portal via OTP.  Clients are created and managed exclusively by
// admins.  Each client owns zero or more projects.  This struct
// corresponds to a row in the `clients` table.
//
// Fields:
//  ID      – primary key identifier.
//  Email   – unique login email of the client.
//  Status  – "active" or "inactive"; only active clients may request an OTP.
//  AddedAt – timestamp when the admin registered the client.
type Client struct {
	ID      uint64    `json:"id"`       // clients.id
	Email   string    `json:"email"`    // clients.email
	Status  string    `json:"status"`   // clients.status
	AddedAt time.Time `json:"added_at"` // clients.added_at
}
