package triage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/triage", auth.RequireRole(auth.RolePatient))
	g.POST("/symptoms", h.CheckSymptoms)
	g.POST("/severity", h.RateSeverity)
}

type symptomsRequest struct {
	Symptoms string `json:"symptoms"`
}

func (h *Handler) CheckSymptoms(c echo.Context) error {
	var req symptomsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.CheckSymptoms(c.Request().Context(), req.Symptoms)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// rating decodes severity values tolerantly: JSON integers and numeric
// strings parse as-is, anything else becomes 1 so a sloppy client never
// dead-ends the triage flow.
type rating int

func (r *rating) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if v, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			*r = rating(v)
			return nil
		}
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			*r = rating(v)
			return nil
		}
	}
	*r = 1
	return nil
}

type severityRequest struct {
	Session string            `json:"session"`
	Ratings map[string]rating `json:"ratings"`
}

func (h *Handler) RateSeverity(c echo.Context) error {
	var req severityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Session == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session is required")
	}
	ratings := make(map[string]int, len(req.Ratings))
	for spec, r := range req.Ratings {
		ratings[spec] = int(r)
	}
	result, err := h.svc.RateSeverity(c.Request().Context(), req.Session, ratings)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusGone, "triage session expired, resubmit symptoms")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
