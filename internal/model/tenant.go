package model

import "time"

// Business is the top-level tenant.  Every branch, staff member and queue
// hangs off a business through its branches.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user who owns the business.
//  Name      – unique business name.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Business struct {
	ID        uint64    // businesses.id
	OwnerID   uint64    // businesses.owner_id
	Name      string    // businesses.name
	CreatedAt time.Time // businesses.created_at
	UpdatedAt time.Time // businesses.updated_at
}

// Branch is a physical location of a business.  Queues are scoped to one
// branch and staff are assigned to one branch.
//
// Fields:
//  ID         – primary key identifier.
//  BusinessID – owning business.
//  Name       – branch display name.
//  Address    – optional street address.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last update.
type Branch struct {
	ID         uint64    // branches.id
	BusinessID uint64    // branches.business_id
	Name       string    // branches.name
	Address    *string   // branches.address (nullable)
	CreatedAt  time.Time // branches.created_at
	UpdatedAt  time.Time // branches.updated_at
}

// Staff links a user to the branch they work at.  A staff row is what
// allows a user with the staff role to own queues.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – the user acting as staff.
//  BranchID  – branch the staff member works at.
//  CreatedAt – timestamp of creation.
type Staff struct {
	ID        uint64    // staff.id
	UserID    uint64    // staff.user_id
	BranchID  uint64    // staff.branch_id
	CreatedAt time.Time // staff.created_at
}
