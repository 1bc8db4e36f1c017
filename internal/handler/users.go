package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/repository"
)

// UserHandler exposes the customer lookup staff use at the counter before
// inserting a walk-in into a queue.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	if u == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: u}
}

// Search returns users whose name contains the given fragment.  Both
// ?name= and the shorter ?q= are accepted.
func (h *UserHandler) Search(c echo.Context) error {
	fragment := strings.TrimSpace(c.QueryParam("name"))
	if fragment == "" {
		fragment = strings.TrimSpace(c.QueryParam("q"))
	}
	if fragment == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.SearchByName(ctx, fragment, 10)
	if err != nil {
		return repoError(c, err)
	}
	type hit struct {
		ID    uint64 `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	out := make([]hit, 0, len(users))
	for _, u := range users {
		out = append(out, hit{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return c.JSON(http.StatusOK, out)
}
