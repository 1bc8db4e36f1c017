package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/engine"
	"github.com/iliyamo/walkin-queue/internal/model"
	"github.com/iliyamo/walkin-queue/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWTAuth stores the raw claim value, whose concrete type depends on how the
// token was decoded, so all plausible numeric shapes are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim stored by JWTAuth, or "" when absent.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// callerFrom builds the engine caller identity from the request context.
func callerFrom(c echo.Context) (engine.Caller, error) {
	uid, err := getUserID(c)
	if err != nil {
		return engine.Caller{}, err
	}
	return engine.Caller{UserID: uid, Role: getRole(c)}, nil
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// engineError translates engine sentinel errors into HTTP responses.  The
// taxonomy is deliberately small: unknown resources are 404, rejected
// arguments are 422, wrong lifecycle state is 409, and lock contention is
// 409 with a retry hint.  Anything else is an opaque 500.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, engine.ErrInvalidArgument):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "queue busy, retry", "retry": true})
	default:
		c.Logger().Errorf("engine: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// repoError translates repository sentinel errors into HTTP responses.
func repoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrQueueNotFound),
		errors.Is(err, repository.ErrBranchNotFound),
		errors.Is(err, repository.ErrBusinessNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting state"})
	default:
		c.Logger().Errorf("repository: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// memberJSON is the wire shape for a queue member in list responses.
type memberJSON struct {
	ID           uint64  `json:"id"`
	CustomerID   uint64  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Position     int     `json:"position"`
	Status       string  `json:"status"`
	TicketNumber string  `json:"ticket_number"`
	JoinedAt     string  `json:"joined_at"`
	ServedAt     *string `json:"served_at,omitempty"`
}

func memberToJSON(m model.MemberView) memberJSON {
	out := memberJSON{
		ID:           m.ID,
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		Position:     m.Position,
		Status:       m.Status,
		TicketNumber: m.TicketNumber,
		JoinedAt:     m.JoinedAt.UTC().Format(time.RFC3339),
	}
	if m.ServedAt != nil {
		s := m.ServedAt.UTC().Format(time.RFC3339)
		out.ServedAt = &s
	}
	return out
}

func membersToJSON(ms []model.MemberView) []memberJSON {
	out := make([]memberJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, memberToJSON(m))
	}
	return out
}
