package handler

import (
	"context"

	"github.com/iliyamo/walkin-queue/internal/model"
	"github.com/iliyamo/walkin-queue/internal/repository"
)

// Tenancy answers the one authorization question the queue endpoints need:
// does this caller's scope cover that branch.  Owners reach every branch of
// their business; managers and staff only the branch they are assigned to.
type Tenancy struct {
	Branches   *repository.BranchRepo
	Businesses *repository.BusinessRepo
	Users      *repository.UserRepo
}

func NewTenancy(br *repository.BranchRepo, bu *repository.BusinessRepo, u *repository.UserRepo) *Tenancy {
	if br == nil || bu == nil || u == nil {
		panic("nil repository passed to NewTenancy")
	}
	return &Tenancy{Branches: br, Businesses: bu, Users: u}
}

// CanManageBranch returns nil when the caller may manage the branch and
// repository.ErrForbidden otherwise.
func (t *Tenancy) CanManageBranch(ctx context.Context, userID uint64, role string, branchID uint64) error {
	switch role {
	case model.RoleBusinessOwner:
		biz, err := t.Businesses.GetByOwner(ctx, userID)
		if err != nil {
			return repository.ErrForbidden
		}
		branch, err := t.Branches.GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch.BusinessID != biz.ID {
			return repository.ErrForbidden
		}
		return nil
	case model.RoleBranchManager, model.RoleStaff:
		u, err := t.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.BranchID == nil || *u.BranchID != branchID {
			return repository.ErrForbidden
		}
		return nil
	}
	return repository.ErrForbidden
}
