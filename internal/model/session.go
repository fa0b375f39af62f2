package model

import "time"

// Session roles as asserted by the server inside issued tokens.  The
// role is never inferred client-side from the email address.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is returned to the caller once and only its SHA-256
// hash is stored, so a leaked table cannot be used to mint sessions.
//
// Fields:
//  ID        – primary key identifier.
//  Email     – identity the token was issued to.
//  Role      – server-asserted role at issue time ("admin"|"client").
//  TokenHash – SHA-256 hex digest of the raw token.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the token was revoked (null while active).
//  CreatedAt – issue timestamp.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	Email     string     // refresh_tokens.email
	Role      string     // refresh_tokens.role
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
