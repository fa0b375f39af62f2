package database

import (
	"context"
	"database/sql"
)

// schema holds the portal's DDL.  EnsureSchema runs it at startup so a
// fresh database comes up without a separate migration step; every
// statement is idempotent.  The unique index on (project_id, version)
// backs the versioning invariant at the storage level: even a buggy
// writer cannot record the same version twice for one project.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email    VARCHAR(120) NOT NULL,
		status   VARCHAR(10)  NOT NULL DEFAULT 'active',
		added_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_clients_email (email)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS projects (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title      VARCHAR(200)    NOT NULL,
		client_id  BIGINT UNSIGNED NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_projects_client (client_id),
		CONSTRAINT fk_projects_client FOREIGN KEY (client_id) REFERENCES clients (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS reports (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		project_id  BIGINT UNSIGNED NOT NULL,
		name        VARCHAR(200)    NOT NULL,
		stored_name VARCHAR(300)    NOT NULL,
		version     INT UNSIGNED    NOT NULL,
		uploaded_by VARCHAR(120)    NOT NULL,
		uploaded_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_reports_project_version (project_id, version),
		CONSTRAINT fk_reports_project FOREIGN KEY (project_id) REFERENCES projects (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		report_id  BIGINT UNSIGNED NOT NULL,
		user_email VARCHAR(120)    NOT NULL,
		text       VARCHAR(500)    NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_comments_report (report_id, created_at),
		CONSTRAINT fk_comments_report FOREIGN KEY (report_id) REFERENCES reports (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email      VARCHAR(120) NOT NULL,
		role       VARCHAR(20)  NOT NULL,
		token_hash CHAR(64)     NOT NULL,
		expires_at DATETIME     NOT NULL,
		revoked_at DATETIME     NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_email (email)
	) ENGINE=InnoDB`,
}

// EnsureSchema creates the portal tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
