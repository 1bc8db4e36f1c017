package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/repository"
)

// PublicHandler serves the unauthenticated discovery endpoints customers
// browse before joining a queue.  These responses change rarely, so the
// router puts the Redis response cache in front of them; queue state never
// flows through here.
type PublicHandler struct {
	Businesses *repository.BusinessRepo
	Branches   *repository.BranchRepo
	Queues     *repository.QueueRepo
}

func NewPublicHandler(bu *repository.BusinessRepo, br *repository.BranchRepo, q *repository.QueueRepo) *PublicHandler {
	if bu == nil || br == nil || q == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Businesses: bu, Branches: br, Queues: q}
}

// ListBusinesses returns all registered businesses.
func (h *PublicHandler) ListBusinesses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	all, err := h.Businesses.List(ctx)
	if err != nil {
		return repoError(c, err)
	}
	type item struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	out := make([]item, 0, len(all))
	for _, b := range all {
		out = append(out, item{ID: b.ID, Name: b.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// ListBranches returns the branches of one business.
func (h *PublicHandler) ListBranches(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid business id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Businesses.GetByID(ctx, id); err != nil {
		return repoError(c, err)
	}
	branches, err := h.Branches.ListByBusiness(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	out := make([]branchResp, 0, len(branches))
	for i := range branches {
		out = append(out, branchToResp(&branches[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// ListQueues returns the queues of one branch with their open/closed flag,
// so a customer can pick a queue to join.  Deliberately not cached: the
// is_active flag must be fresh.
func (h *PublicHandler) ListQueues(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Branches.GetByID(ctx, id); err != nil {
		return repoError(c, err)
	}
	queues, err := h.Queues.ListByBranch(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	type item struct {
		ID       uint64 `json:"id"`
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
		IsPaused bool   `json:"is_paused"`
	}
	out := make([]item, 0, len(queues))
	for _, q := range queues {
		out = append(out, item{ID: q.ID, Name: q.Name, IsActive: q.IsActive, IsPaused: q.IsPaused})
	}
	return c.JSON(http.StatusOK, out)
}
