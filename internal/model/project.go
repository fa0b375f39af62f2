package model

import "time"

// Project is a named unit of work owned by exactly one client.  It
// carries an ordered history of report versions.  The title is fixed
// at creation time.  This struct corresponds to a row in the
// `projects` table.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – human-friendly project name.
//  ClientID  – owning client (clients.id).
//  CreatedAt – timestamp when the admin created the project.
type Project struct {
	ID        uint64    `json:"id"`         // projects.id
	Title     string    `json:"title"`      // projects.title
	ClientID  uint64    `json:"client_id"`  // projects.client_id
	CreatedAt time.Time `json:"created_at"` // projects.created_at
}
