package record

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/domain/appointment"
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
	api.POST("/appointments/:id/report", h.CreateReport, auth.RequireRole(auth.RoleDoctor))
	api.GET("/appointments/:id/prior-reports", h.PriorReports, auth.RequireRole(auth.RoleDoctor))
	api.PUT("/reports/:id", h.UpdateReport, auth.RequireRole(auth.RoleDoctor))
	api.GET("/reports", h.ListReports, auth.RequireRole(auth.RolePatient))
	api.GET("/reports/:id", h.GetReport, auth.RequireRole(auth.RolePatient))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, appointment.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, appointment.ErrWindowClosed):
		return echo.NewHTTPError(http.StatusForbidden, "report access window has closed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return id, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateReport(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	apptID, err := pathID(c)
	if err != nil {
		return err
	}
	var in ReportInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Create(c.Request().Context(), userID, apptID, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, appointment.ErrNotFound) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateReport(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in ReportInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.UpdateOwn(c.Request().Context(), userID, id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) PriorReports(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	apptID, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.PriorReports(c.Request().Context(), userID, apptID)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*MedicalReport{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListReports(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForPatient(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetReport(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetForPatient(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}
