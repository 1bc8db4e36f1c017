package model

import "time"

// Role names stored in the users table and carried in the JWT "role"
// claim.  Authorization is enforced at the HTTP boundary; the engine never
// inspects roles.
const (
	RoleBusinessOwner = "business_owner"
	RoleBranchManager = "branch_manager"
	RoleStaff         = "staff"
	RoleCustomer      = "customer"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Handlers
// define separate response types with JSON tags; these structs are used
// internally by the repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name shown in queue updates.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (business_owner, branch_manager, staff, customer).
//  BranchID     – branch assignment for branch managers and staff (nullable).
//  BusinessID   – business assignment for owners (nullable).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	BranchID     *uint64   // users.branch_id (nullable)
	BusinessID   *uint64   // users.business_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry and
// revocation.  The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
