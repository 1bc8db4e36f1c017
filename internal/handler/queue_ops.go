package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/engine"
	"github.com/iliyamo/walkin-queue/internal/repository"
)

// QueueOpsHandler exposes the ordering engine over HTTP.  Every mutation
// goes through the engine so the position invariants hold no matter which
// endpoint fired; this handler only authenticates, authorizes against the
// queue's branch and maps engine errors to status codes.
type QueueOpsHandler struct {
	Engine *engine.Engine
	Queues *repository.QueueRepo
	Scope  *Tenancy
}

func NewQueueOpsHandler(eng *engine.Engine, q *repository.QueueRepo, scope *Tenancy) *QueueOpsHandler {
	if eng == nil || q == nil || scope == nil {
		panic("nil dependency passed to NewQueueOpsHandler")
	}
	return &QueueOpsHandler{Engine: eng, Queues: q, Scope: scope}
}

type customerReq struct {
	CustomerID uint64 `json:"customer_id"`
}

type moveReq struct {
	Position int `json:"position"`
}

type reinsertReq struct {
	CustomerID uint64 `json:"customer_id"`
	Position   int    `json:"position"`
}

// authorize loads the queue and checks that the caller's scope covers its
// branch.  On failure the response has already been written and ok is
// false; on success it returns the caller identity for the engine call.
func (h *QueueOpsHandler) authorize(c echo.Context, ctx context.Context, queueID uint64) (engine.Caller, bool) {
	caller, err := callerFrom(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return engine.Caller{}, false
	}
	q, err := h.Queues.GetByID(ctx, queueID)
	if err != nil {
		_ = repoError(c, err)
		return engine.Caller{}, false
	}
	if err := h.Scope.CanManageBranch(ctx, caller.UserID, caller.Role, q.BranchID); err != nil {
		_ = repoError(c, err)
		return engine.Caller{}, false
	}
	return caller, true
}

// AddCustomer inserts a customer at the tail of the queue.
func (h *QueueOpsHandler) AddCustomer(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	var req customerReq
	if err := c.Bind(&req); err != nil || req.CustomerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	member, err := h.Engine.AddCustomer(ctx, caller, queueID, req.CustomerID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"customer_id":   member.CustomerID,
		"position":      member.Position,
		"ticket_number": member.TicketNumber,
	})
}

// RemoveCustomer deletes a customer from the queue and closes the gap.
func (h *QueueOpsHandler) RemoveCustomer(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	customerID, err := paramID(c, "customerID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	if err := h.Engine.RemoveCustomer(ctx, caller, queueID, customerID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Members lists the queue's ordered waiting/serving members.
func (h *QueueOpsHandler) Members(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.authorize(c, ctx, queueID); !ok {
		return nil
	}
	members, err := h.Engine.Members(ctx, queueID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, membersToJSON(members))
}

// Move repositions a member.  Out-of-range targets are rejected with 422,
// never clamped.
func (h *QueueOpsHandler) Move(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	memberID, err := paramID(c, "memberID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req moveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	if err := h.Engine.Move(ctx, caller, memberID, req.Position); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CallNext promotes the head waiting member to serving.
func (h *QueueOpsHandler) CallNext(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	member, err := h.Engine.CallNext(ctx, caller, queueID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"customer_id":   member.CustomerID,
		"ticket_number": member.TicketNumber,
		"served_at":     member.ServedAt,
	})
}

// CompleteServing finishes the serving member's service and records its
// measured duration.
func (h *QueueOpsHandler) CompleteServing(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	var req customerReq
	if err := c.Bind(&req); err != nil || req.CustomerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	record, err := h.Engine.CompleteServing(ctx, caller, queueID, req.CustomerID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"customer_id":  record.CustomerID,
		"service_time": record.WaitingTime,
	})
}

// MarkLate parks a customer in the latecomer side-queue.
func (h *QueueOpsHandler) MarkLate(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	var req customerReq
	if err := c.Bind(&req); err != nil || req.CustomerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	if err := h.Engine.MarkLate(ctx, caller, queueID, req.CustomerID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LateCustomers lists the members parked in the latecomer side-queue.
func (h *QueueOpsHandler) LateCustomers(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.authorize(c, ctx, queueID); !ok {
		return nil
	}
	late, err := h.Engine.LateCustomers(ctx, queueID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, membersToJSON(late))
}

// Reinsert pulls a late customer back into the ordered sequence at the
// requested position.
func (h *QueueOpsHandler) Reinsert(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	var req reinsertReq
	if err := c.Bind(&req); err != nil || req.CustomerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	if err := h.Engine.ReinsertCustomer(ctx, caller, queueID, req.CustomerID, req.Position); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate opens the queue for calling and serving.
func (h *QueueOpsHandler) Activate(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Activate)
}

// Pause suspends the queue; wait estimates become indefinite.
func (h *QueueOpsHandler) Pause(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Pause)
}

// Resume lifts a pause.
func (h *QueueOpsHandler) Resume(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Resume)
}

// Deactivate closes the queue for the day.
func (h *QueueOpsHandler) Deactivate(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Deactivate)
}

func (h *QueueOpsHandler) lifecycle(c echo.Context, op func(context.Context, engine.Caller, uint64) error) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.authorize(c, ctx, queueID)
	if !ok {
		return nil
	}
	if err := op(ctx, caller, queueID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Status returns the staff aggregate view with the live average service
// time, identical to what a broadcast subscriber would receive.
func (h *QueueOpsHandler) Status(c echo.Context) error {
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.authorize(c, ctx, queueID); !ok {
		return nil
	}
	status, err := h.Engine.Status(ctx, queueID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}
