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

// QueueHandler bundles the repositories needed for queue CRUD.  Positional
// operations live in QueueOpsHandler; this handler only manages the queue
// rows themselves and enforces tenancy.
type QueueHandler struct {
	Queues *repository.QueueRepo
	Scope  *Tenancy
}

func NewQueueHandler(q *repository.QueueRepo, scope *Tenancy) *QueueHandler {
	if q == nil || scope == nil {
		panic("nil dependency passed to NewQueueHandler")
	}
	return &QueueHandler{Queues: q, Scope: scope}
}

type queueReq struct {
	BranchID      uint64  `json:"branch_id"`
	Name          string  `json:"name"`
	StaffID       *uint64 `json:"staff_id"`
	ScheduledDate *string `json:"scheduled_date"` // "2006-01-02"
	StartTime     *string `json:"start_time"`     // "HH:MM"
}

type queueResp struct {
	ID            uint64  `json:"id"`
	BranchID      uint64  `json:"branch_id"`
	StaffID       *uint64 `json:"staff_id,omitempty"`
	Name          string  `json:"name"`
	IsActive      bool    `json:"is_active"`
	IsPaused      bool    `json:"is_paused"`
	ScheduledDate *string `json:"scheduled_date,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
}

func queueToResp(q *model.Queue) queueResp {
	resp := queueResp{
		ID:        q.ID,
		BranchID:  q.BranchID,
		StaffID:   q.StaffID,
		Name:      q.Name,
		IsActive:  q.IsActive,
		IsPaused:  q.IsPaused,
		StartTime: q.StartTime,
	}
	if q.ScheduledDate != nil {
		d := q.ScheduledDate.Format("2006-01-02")
		resp.ScheduledDate = &d
	}
	return resp
}

// Create provisions a new queue (inactive, unpaused) together with its
// latecomer side-queue.
func (h *QueueHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req queueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.BranchID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id and name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Scope.CanManageBranch(ctx, uid, getRole(c), req.BranchID); err != nil {
		return repoError(c, err)
	}

	q := model.Queue{BranchID: req.BranchID, Name: req.Name, StaffID: req.StaffID, StartTime: req.StartTime}
	if req.ScheduledDate != nil {
		d, err := time.Parse("2006-01-02", *req.ScheduledDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_date must be YYYY-MM-DD"})
		}
		q.ScheduledDate = &d
	}
	if err := h.Queues.Create(ctx, &q); err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusCreated, queueToResp(&q))
}

// Get returns one queue the caller is allowed to see.
func (h *QueueHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Queues.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	if err := h.Scope.CanManageBranch(ctx, uid, getRole(c), q.BranchID); err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusOK, queueToResp(q))
}

// List returns every queue within the caller's tenancy scope: all branches
// of the business for owners, the assigned branch for managers and staff.
func (h *QueueHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var queues []model.Queue
	switch getRole(c) {
	case model.RoleBusinessOwner:
		biz, err := h.Scope.Businesses.GetByOwner(ctx, uid)
		if err != nil {
			return repoError(c, err)
		}
		ids, err := h.Scope.Branches.BranchIDsByBusiness(ctx, biz.ID)
		if err != nil {
			return repoError(c, err)
		}
		queues, err = h.Queues.ListByBranches(ctx, ids)
		if err != nil {
			return repoError(c, err)
		}
	case model.RoleBranchManager, model.RoleStaff:
		u, err := h.Scope.Users.GetByID(ctx, uid)
		if err != nil {
			return repoError(c, err)
		}
		if u.BranchID == nil {
			return c.JSON(http.StatusOK, []queueResp{})
		}
		queues, err = h.Queues.ListByBranch(ctx, *u.BranchID)
		if err != nil {
			return repoError(c, err)
		}
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	out := make([]queueResp, 0, len(queues))
	for i := range queues {
		out = append(out, queueToResp(&queues[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Update edits queue details.  Lifecycle flags are not editable here; they
// move only through the activate/pause/resume/deactivate endpoints.
func (h *QueueHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	var req queueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Queues.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	if err := h.Scope.CanManageBranch(ctx, uid, getRole(c), q.BranchID); err != nil {
		return repoError(c, err)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		q.Name = name
	}
	if req.StartTime != nil {
		q.StartTime = req.StartTime
	}
	if req.ScheduledDate != nil {
		d, err := time.Parse("2006-01-02", *req.ScheduledDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_date must be YYYY-MM-DD"})
		}
		q.ScheduledDate = &d
	}
	if err := h.Queues.UpdateDetails(ctx, q); err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusOK, queueToResp(q))
}

// Delete removes a queue and everything hanging off it.
func (h *QueueHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Queues.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err)
	}
	if err := h.Scope.CanManageBranch(ctx, uid, getRole(c), q.BranchID); err != nil {
		return repoError(c, err)
	}
	if err := h.Queues.Delete(ctx, id); err != nil {
		return repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
