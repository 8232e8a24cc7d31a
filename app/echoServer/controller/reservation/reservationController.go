package reservation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"dvdrental/service/availability"
	rsvc "dvdrental/service/reservation"
)

type Controller struct {
	Svc rsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// POST /v1/reservations
func (h *Controller) Create(c echo.Context) error {
	var req CreateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	res, err := h.Svc.Create(c.Request().Context(), uid, rsvc.CreateReq{
		DvdID:       req.DvdID,
		Count:       req.Count,
		RentalStart: req.RentalStart,
		RentalEnd:   req.RentalEnd,
	})
	if err != nil {
		return h.mapError(c, "reservation create", err)
	}
	return c.JSON(http.StatusCreated, res)
}

// GET /v1/reservations/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyReservations(c.Request().Context(), uid, c.QueryParam("filter"))
	if err != nil {
		return h.mapError(c, "reservation list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reservations  (admin)
func (h *Controller) All(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.AllReservations(c.Request().Context(), c.QueryParam("filter"))
	if err != nil {
		return h.mapError(c, "reservation list all", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/reservations/:id/accept  (admin)
func (h *Controller) Accept(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rental, err := h.Svc.Accept(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, "reservation accept", err)
	}
	return c.JSON(http.StatusAccepted, rental)
}

// POST /v1/reservations/:id/decline  (admin)
func (h *Controller) Decline(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Decline(c.Request().Context(), id); err != nil {
		return h.mapError(c, "reservation decline", err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "declined"})
}

// POST /v1/reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)
	if err := h.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		return h.mapError(c, "reservation cancel", err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "cancelled"})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}

func (h *Controller) mapError(c echo.Context, op string, err error) error {
	switch rsvc.Code(err) {
	case rsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case rsvc.ErrBadInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid input"})
	case rsvc.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "invalid reservation state"})
	case rsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case rsvc.ErrNotRentable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "dvd not rentable"})
	case rsvc.ErrNoCopies:
		return c.JSON(http.StatusConflict, echo.Map{"message": "not enough copies available"})
	}
	if availability.Code(err) == availability.ErrInsufficient {
		return c.JSON(http.StatusConflict, echo.Map{"message": "not enough copies available"})
	}
	h.Log.Error(op, "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}
