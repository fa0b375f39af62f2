package model

import "time"

// Comment is a single remark on a report.  The thread is append-only:
// no edit or delete operations exist, matching an audit-style trail.
// This struct corresponds to a row in the `comments` table.
//
// Fields:
//  ID        – primary key identifier.
//  ReportID  – report the comment belongs to (reports.id).
//  UserEmail – email of the author, admin or client.
//  Text      – remark body, non-empty after trimming.
//  CreatedAt – creation timestamp; threads are listed ascending by it.
type Comment struct {
	ID        uint64    `json:"id"`         // comments.id
	ReportID  uint64    `json:"report_id"`  // comments.report_id
	UserEmail string    `json:"user_email"` // comments.user_email
	Text      string    `json:"text"`       // comments.text
	CreatedAt time.Time `json:"created_at"` // comments.created_at
}
