package model

import "time"

// Report is one uploaded file revision belonging to a project.  Every
// upload appends a new version; versions are never replaced, reused
// or decremented.  The original filename is kept for downloads while
// StoredName is the unique on-disk name.  This struct corresponds to
// a row in the `reports` table.
//
// Fields:
//  ID         – primary key identifier.
//  ProjectID  – project this revision belongs to (projects.id).
//  Name       – original filename as uploaded.
//  StoredName – unique filename under the uploads directory.
//  Version    – positive integer, strictly increasing per project.
//  UploadedBy – email of the uploader, recorded as presented.
//  UploadedAt – upload timestamp.
type Report struct {
	ID         uint64    `json:"id"`          // reports.id
	ProjectID  uint64    `json:"project_id"`  // reports.project_id
	Name       string    `json:"name"`        // reports.name
	StoredName string    `json:"-"`           // reports.stored_name (never exposed)
	Version    uint32    `json:"version"`     // reports.version
	UploadedBy string    `json:"uploaded_by"` // reports.uploaded_by
	UploadedAt time.Time `json:"uploaded_at"` // reports.uploaded_at
}
