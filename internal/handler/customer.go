package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/engine"
	"github.com/iliyamo/walkin-queue/internal/repository"
)

// CustomerHandler serves the customer-facing queue endpoints.  Customers
// act only on their own membership, so no tenancy check applies; the
// engine enforces everything positional.
type CustomerHandler struct {
	Engine *engine.Engine
	Queues *repository.QueueRepo
}

func NewCustomerHandler(eng *engine.Engine, q *repository.QueueRepo) *CustomerHandler {
	if eng == nil || q == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{Engine: eng, Queues: q}
}

// Join adds the calling customer to the tail of the queue.
func (h *CustomerHandler) Join(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	q, err := h.Queues.GetByID(ctx, queueID)
	if err != nil {
		return repoError(c, err)
	}
	if !q.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "queue is not open"})
	}

	member, err := h.Engine.AddCustomer(ctx, caller, queueID, caller.UserID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"queue_id":      queueID,
		"position":      member.Position,
		"ticket_number": member.TicketNumber,
	})
}

// Leave removes the calling customer from the queue.
func (h *CustomerHandler) Leave(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Engine.RemoveCustomer(ctx, caller, queueID, caller.UserID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyStatus returns the caller's live view of the queue: their position,
// the estimated wait and the customer currently at the front.  The same
// payload is pushed on "update.<customerID>" after every mutation; this
// endpoint exists for polling clients.
func (h *CustomerHandler) MyStatus(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queueID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	update, err := h.Engine.CustomerStatus(ctx, queueID, caller.UserID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, update)
}
