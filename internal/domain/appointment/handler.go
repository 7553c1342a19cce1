package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
	"github.com/carebridge/carebridge/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book, auth.RequireRole(auth.RolePatient))
	api.GET("/appointments", h.List, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	api.GET("/appointments/booked-slots", h.BookedSlots, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	api.GET("/appointments/:id", h.Get, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	api.GET("/appointments/:id/join", h.JoinMeeting, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	api.POST("/appointments/:id/confirm", h.Confirm, auth.RequireRole(auth.RoleDoctor))
	api.POST("/appointments/:id/complete", h.Complete, auth.RequireRole(auth.RoleDoctor))
	api.POST("/appointments/:id/cancel", h.Cancel, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	api.POST("/appointments/:id/report-missed", h.ReportMissed, auth.RequireRole(auth.RolePatient))
	api.POST("/appointments/:id/status", h.SendStatus, auth.RequireRole(auth.RolePatient))
}

// httpError maps the package's sentinel errors onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, "slot was just booked by someone else")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "appointment state does not allow this action")
	case errors.Is(err, ErrWindowClosed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "action not available in the current time window")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func identity(c echo.Context) (uuid.UUID, string, error) {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return id, auth.RoleFromContext(ctx), nil
}

func apptID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Book(c echo.Context) error {
	userID, _, err := identity(c)
	if err != nil {
		return err
	}
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Book(c.Request().Context(), userID, auth.NameFromContext(c.Request().Context()), req)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	userID, role, err := identity(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var items []*Appointment
	var total int
	if role == auth.RoleDoctor {
		items, total, err = h.svc.ListForDoctor(ctx, userID, c.QueryParam("status"), pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.ListForPatient(ctx, userID, pg.Limit, pg.Offset)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	userID, role, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), userID, role, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Confirm(c echo.Context) error {
	userID, _, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Confirm(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Complete(c echo.Context) error {
	userID, _, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Complete(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	userID, role, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Cancel(c.Request().Context(), userID, role, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ReportMissed(c echo.Context) error {
	userID, _, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.ReportMissed(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type statusRequest struct {
	StatusType string `json:"status_type"`
}

func (h *Handler) SendStatus(c echo.Context) error {
	userID, _, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.SendStatusPing(ctx, userID, auth.NameFromContext(ctx), id, req.StatusType); err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) JoinMeeting(c echo.Context) error {
	userID, role, err := identity(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	link, err := h.svc.JoinMeeting(c.Request().Context(), userID, role, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"link": link})
}

func (h *Handler) BookedSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	date, err := ParseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	slots, err := h.svc.BookedSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return httpError(err)
	}
	if slots == nil {
		slots = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"slots": slots})
}
