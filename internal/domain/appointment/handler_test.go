package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo, *stubDoctors) {
	svc, _, docs, _ := newTestService()
	return NewHandler(svc), echo.New(), docs
}

func authedContext(e *echo.Echo, method, path, body, userID, role, name string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	ctx = context.WithValue(ctx, auth.UserNameKey, name)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Book(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")
	patient := uuid.New().String()

	body := `{"doctor_id":"` + doc.ID.String() + `","date":"2026-09-10","slot_time":"10:30","reason":"checkup"}`
	c, rec := authedContext(e, http.MethodPost, "/appointments", body, patient, auth.RolePatient, "Asha")

	if err := h.Book(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.Status != StatusPending || got.Date.String() != "2026-09-10" {
		t.Errorf("unexpected appointment: %+v", got)
	}
}

func TestHandler_Book_BadDate(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")

	body := `{"doctor_id":"` + doc.ID.String() + `","date":"10/09/2026","slot_time":"10:30"}`
	c, _ := authedContext(e, http.MethodPost, "/appointments", body, uuid.New().String(), auth.RolePatient, "Asha")

	err := h.Book(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %v", err)
	}
}

func TestHandler_Book_SlotTakenConflict(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")

	a := book(t, h.svc, uuid.New(), doc.ID, "2026-09-10", "10:30")
	if _, err := h.svc.Confirm(context.Background(), doc.UserID, a.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	body := `{"doctor_id":"` + doc.ID.String() + `","date":"2026-09-10","slot_time":"10:30"}`
	c, _ := authedContext(e, http.MethodPost, "/appointments", body, uuid.New().String(), auth.RolePatient, "Ravi")

	err := h.Book(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for taken slot, got %v", err)
	}
}

func TestHandler_Confirm(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")

	a := book(t, h.svc, uuid.New(), doc.ID, "2026-09-10", "10:30")
	c, rec := authedContext(e, http.MethodPost, "/x", "", doc.UserID.String(), auth.RoleDoctor, "Mehta")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Confirm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Confirm_ForeignDoctor404(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")
	other := docs.add("Iyer")

	a := book(t, h.svc, uuid.New(), doc.ID, "2026-09-10", "10:30")
	c, _ := authedContext(e, http.MethodPost, "/x", "", other.UserID.String(), auth.RoleDoctor, "Iyer")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Confirm(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ReportMissed_TooEarly(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")
	patient := uuid.New()

	a := book(t, h.svc, patient, doc.ID, "2026-09-10", "10:30")
	h.svc.now = func() time.Time { return a.StartAt().Add(5 * time.Minute) }

	c, _ := authedContext(e, http.MethodPost, "/x", "", patient.String(), auth.RolePatient, "Asha")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.ReportMissed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 inside the wait window, got %v", err)
	}
}

func TestHandler_JoinMeeting(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")
	patient := uuid.New()

	a := book(t, h.svc, patient, doc.ID, "2026-09-10", "10:30")
	c, rec := authedContext(e, http.MethodGet, "/x", "", patient.String(), auth.RolePatient, "Asha")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.JoinMeeting(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got["link"] != a.MeetingLink {
		t.Errorf("expected stored link, got %s", got["link"])
	}
}

func TestHandler_BookedSlots(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")

	a := book(t, h.svc, uuid.New(), doc.ID, "2026-09-10", "10:30")
	if _, err := h.svc.Confirm(context.Background(), doc.UserID, a.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	path := "/appointments/booked-slots?doctor_id=" + doc.ID.String() + "&date=2026-09-10"
	c, rec := authedContext(e, http.MethodGet, path, "", uuid.New().String(), auth.RolePatient, "Asha")

	if err := h.BookedSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(got["slots"]) != 1 || got["slots"][0] != "10:30" {
		t.Errorf("expected [10:30], got %v", got["slots"])
	}
}

func TestHandler_BookedSlots_EmptyIsArray(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")

	path := "/appointments/booked-slots?doctor_id=" + doc.ID.String() + "&date=2026-09-10"
	c, rec := authedContext(e, http.MethodGet, path, "", uuid.New().String(), auth.RolePatient, "Asha")

	if err := h.BookedSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"slots":[]}` {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestHandler_SendStatus(t *testing.T) {
	h, e, docs := newTestHandler()
	doc := docs.add("Mehta")
	patient := uuid.New()

	a := book(t, h.svc, patient, doc.ID, "2026-09-10", "10:30")
	c, rec := authedContext(e, http.MethodPost, "/x", `{"status_type":"ready"}`, patient.String(), auth.RolePatient, "Asha")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.SendStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}

	c, _ = authedContext(e, http.MethodPost, "/x", `{"status_type":"nope"}`, patient.String(), auth.RolePatient, "Asha")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	err := h.SendStatus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status type, got %v", err)
	}
}
