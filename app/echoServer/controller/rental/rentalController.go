package rental

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	rs "dvdrental/service/rental"
)

type Controller struct {
	Svc     rs.Service
	Sweeper rs.Sweeper
	Log     *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// POST /v1/rentals/:id/return
func (h *Controller) RequestReturn(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.RequestReturn(c.Request().Context(), uid, id); err != nil {
		return h.mapError(c, "rental return request", err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "return requested"})
}

// POST /v1/rentals/:id/return/accept  (admin)
func (h *Controller) AcceptReturn(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.AcceptReturn(c.Request().Context(), id); err != nil {
		return h.mapError(c, "rental return accept", err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "return accepted"})
}

// POST /v1/rentals/:id/return/decline  (admin)
func (h *Controller) DeclineReturn(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.DeclineReturn(c.Request().Context(), id); err != nil {
		return h.mapError(c, "rental return decline", err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "return declined"})
}

// GET /v1/rentals/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyRentals(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("rental history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/rentals/return-requests  (admin)
func (h *Controller) ReturnRequests(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.ReturnRequests(c.Request().Context())
	if err != nil {
		h.Log.Error("return requests", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/transactions/my
func (h *Controller) MyTransactions(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyTransactions(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("transaction history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/rentals/sweep  (admin) — same operation the scheduler runs.
func (h *Controller) Sweep(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	sum, err := h.Sweeper.SweepExpired(c.Request().Context())
	if err != nil {
		h.Log.Error("manual sweep", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Controller) mapError(c echo.Context, op string, err error) error {
	switch rs.Code(err) {
	case rs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "rental not found"})
	case rs.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case rs.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "invalid rental state"})
	case rs.ErrComputation:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "transaction computation failed"})
	}
	h.Log.Error(op, "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}
