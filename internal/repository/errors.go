// Package repository contains data access logic separated from HTTP
// handlers.  Sentinel errors defined here let handlers translate failure
// scenarios into the portal's error taxonomy without inspecting SQL
// details: not-found values become 404s, ErrEmailExists becomes a 409.
package repository

import "errors"

// ErrClientNotFound is returned when a client id or email does not
// resolve to a row in the clients table.
var ErrClientNotFound = errors.New("client not found")

// ErrProjectNotFound is returned when a project id does not exist.
var ErrProjectNotFound = errors.New("project not found")

// ErrReportNotFound is returned when a report id does not exist.
var ErrReportNotFound = errors.New("report not found")

// ErrEmailExists is returned when adding or renaming a client would
// duplicate an email.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")
