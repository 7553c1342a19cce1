package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func authedContext(e *echo.Echo, method, path, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateDoctor(t *testing.T) {
	h, e := newTestHandler()
	body := `{"user_id":"` + uuid.New().String() + `","full_name":"S. Rao","specialization":"Cardiologist"}`
	c, rec := authedContext(e, http.MethodPost, "/doctors", body, uuid.New().String(), auth.RoleAdmin)

	if err := h.CreateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.DepartmentID == nil {
		t.Error("expected department to be bound on create")
	}
}

func TestHandler_CreateDoctor_InvalidSpecialization(t *testing.T) {
	h, e := newTestHandler()
	body := `{"user_id":"` + uuid.New().String() + `","specialization":"Wizard"}`
	c, _ := authedContext(e, http.MethodPost, "/doctors", body, uuid.New().String(), auth.RoleAdmin)

	if err := h.CreateDoctor(c); err == nil {
		t.Error("expected error for invalid specialization")
	}
}

func TestHandler_GetDoctor(t *testing.T) {
	h, e := newTestHandler()
	d := &Doctor{UserID: uuid.New()}
	if err := h.svc.Create(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := authedContext(e, http.MethodGet, "/doctors/"+d.ID.String(), "", uuid.New().String(), auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c, _ := authedContext(e, http.MethodGet, "/doctors/x", "", uuid.New().String(), auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_UpdateDoctor_OwnProfileOnly(t *testing.T) {
	h, e := newTestHandler()
	mine := &Doctor{UserID: uuid.New()}
	other := &Doctor{UserID: uuid.New()}
	for _, d := range []*Doctor{mine, other} {
		if err := h.svc.Create(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Editing someone else's profile looks like a missing doctor.
	body := `{"specialization":"Dentist"}`
	c, _ := authedContext(e, http.MethodPut, "/doctors/"+other.ID.String(), body, mine.UserID.String(), auth.RoleDoctor)
	c.SetParamNames("id")
	c.SetParamValues(other.ID.String())

	err := h.UpdateDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign profile, got %v", err)
	}

	// Editing the own profile succeeds and resyncs the department.
	c, rec := authedContext(e, http.MethodPut, "/doctors/"+mine.ID.String(), body, mine.UserID.String(), auth.RoleDoctor)
	c.SetParamNames("id")
	c.SetParamValues(mine.ID.String())

	if err := h.UpdateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.Specialization != "Dentist" || got.DepartmentID == nil {
		t.Errorf("update did not take: %+v", got)
	}
}

func TestHandler_ToggleFavorite(t *testing.T) {
	h, e := newTestHandler()
	d := &Doctor{UserID: uuid.New()}
	if err := h.svc.Create(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	patient := uuid.New().String()

	c, rec := authedContext(e, http.MethodPost, "/doctors/"+d.ID.String()+"/favorite", "", patient, auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.ToggleFavorite(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !got["liked"] {
		t.Error("expected liked=true on first toggle")
	}

	c, rec = authedContext(e, http.MethodPost, "/doctors/"+d.ID.String()+"/favorite", "", patient, auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())
	if err := h.ToggleFavorite(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got["liked"] {
		t.Error("expected liked=false on second toggle")
	}
}

func TestHandler_ListDoctors_SpecializationFilter(t *testing.T) {
	h, e := newTestHandler()
	for _, spec := range []Specialization{"Cardiologist", "Cardiologist", "Dentist"} {
		d := &Doctor{UserID: uuid.New(), Specialization: spec}
		if err := h.svc.Create(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	c, rec := authedContext(e, http.MethodGet, "/doctors?specialization=Cardiologist", "", uuid.New().String(), auth.RolePatient)
	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []*Doctor `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 cardiologists, got %d", len(resp.Data))
	}
}
