package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/model"
	"github.com/iliyamo/walkin-queue/internal/repository"
)

// BranchHandler manages the tenancy tree: the owner's business and the
// branches under it.
type BranchHandler struct {
	Businesses *repository.BusinessRepo
	Branches   *repository.BranchRepo
	Users      *repository.UserRepo
}

func NewBranchHandler(bu *repository.BusinessRepo, br *repository.BranchRepo, u *repository.UserRepo) *BranchHandler {
	if bu == nil || br == nil || u == nil {
		panic("nil repository passed to NewBranchHandler")
	}
	return &BranchHandler{Businesses: bu, Branches: br, Users: u}
}

type businessReq struct {
	Name string `json:"name"`
}

type branchReq struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

type branchResp struct {
	ID         uint64  `json:"id"`
	BusinessID uint64  `json:"business_id"`
	Name       string  `json:"name"`
	Address    *string `json:"address,omitempty"`
}

func branchToResp(b *model.Branch) branchResp {
	return branchResp{ID: b.ID, BusinessID: b.BusinessID, Name: b.Name, Address: b.Address}
}

// ownBusiness loads the caller's business.  On failure the response has
// already been written and the second return is false.
func (h *BranchHandler) ownBusiness(c echo.Context, ctx context.Context) (*model.Business, bool) {
	uid, err := getUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return nil, false
	}
	biz, err := h.Businesses.GetByOwner(ctx, uid)
	if err != nil {
		_ = repoError(c, err)
		return nil, false
	}
	return biz, true
}

// CreateBusiness registers the owner's business.  One business per owner.
func (h *BranchHandler) CreateBusiness(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req businessReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Businesses.GetByOwner(ctx, uid); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "business already exists"})
	}
	biz := model.Business{OwnerID: uid, Name: strings.TrimSpace(req.Name)}
	if err := h.Businesses.Create(ctx, &biz); err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": biz.ID, "name": biz.Name})
}

// MyBusiness returns the caller's business.
func (h *BranchHandler) MyBusiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	biz, ok := h.ownBusiness(c, ctx)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{"id": biz.ID, "name": biz.Name})
}

// CreateBranch adds a branch to the owner's business.
func (h *BranchHandler) CreateBranch(c echo.Context) error {
	var req branchReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	biz, ok := h.ownBusiness(c, ctx)
	if !ok {
		return nil
	}
	branch := model.Branch{BusinessID: biz.ID, Name: strings.TrimSpace(req.Name), Address: req.Address}
	if err := h.Branches.Create(ctx, &branch); err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusCreated, branchToResp(&branch))
}

// ListBranches lists the branches of the owner's business.
func (h *BranchHandler) ListBranches(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	biz, ok := h.ownBusiness(c, ctx)
	if !ok {
		return nil
	}
	branches, err := h.Branches.ListByBusiness(ctx, biz.ID)
	if err != nil {
		return repoError(c, err)
	}
	out := make([]branchResp, 0, len(branches))
	for i := range branches {
		out = append(out, branchToResp(&branches[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateBranch edits a branch of the owner's business.
func (h *BranchHandler) UpdateBranch(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	var req branchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	biz, ok := h.ownBusiness(c, ctx)
	if !ok {
		return nil
	}
	branch, err := h.Branches.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	if branch.BusinessID != biz.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		branch.Name = name
	}
	if req.Address != nil {
		branch.Address = req.Address
	}
	if err := h.Branches.Update(ctx, branch); err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusOK, branchToResp(branch))
}

// DeleteBranch removes an empty branch.  Branches that still hold queues
// are rejected with 409.
func (h *BranchHandler) DeleteBranch(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	biz, ok := h.ownBusiness(c, ctx)
	if !ok {
		return nil
	}
	branch, err := h.Branches.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	if branch.BusinessID != biz.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Branches.Delete(ctx, id); err != nil {
		return repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignStaff puts a staff or branch manager user onto a branch of the
// owner's business.
func (h *BranchHandler) AssignStaff(c echo.Context) error {
	branchID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	var req struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	biz, ok := h.ownBusiness(c, ctx)
	if !ok {
		return nil
	}
	branch, err := h.Branches.GetByID(ctx, branchID)
	if err != nil {
		return repoError(c, err)
	}
	if branch.BusinessID != biz.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	u, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return repoError(c, err)
	}
	if u.Role != model.RoleStaff && u.Role != model.RoleBranchManager {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "user must be staff or branch_manager"})
	}
	if err := h.Users.AssignBranch(ctx, u.ID, branchID); err != nil {
		return repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
