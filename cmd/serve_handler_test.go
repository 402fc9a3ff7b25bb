package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/civil"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/ports"
	"duetrack/internal/usecase/tracker"
)

var errTestStorage = errors.New("disk i/o error")

type stubTrackerAPI struct {
	err error

	completeCalled bool
	completeInput  tracker.CompleteInput
	setDueCalled   bool
	setDueID       string
	setDueDate     civil.Date
	dueInput       tracker.DueReportInput
	createInput    tracker.CreateEquipmentInput
	deletedID      string
	limit          int
}

func (s *stubTrackerAPI) CreateClient(_ context.Context, in tracker.CreateClientInput) (tracker.ClientView, error) {
	return tracker.ClientView{ID: "client-1", Name: in.Name}, s.err
}

func (s *stubTrackerAPI) GetClient(_ context.Context, id string) (tracker.ClientView, error) {
	return tracker.ClientView{ID: id}, s.err
}

func (s *stubTrackerAPI) ListClients(context.Context) ([]tracker.ClientView, error) {
	return []tracker.ClientView{}, s.err
}

func (s *stubTrackerAPI) CreateSite(_ context.Context, in tracker.CreateSiteInput) (tracker.SiteView, error) {
	return tracker.SiteView{ID: "site-1", ClientID: in.ClientID, Name: in.Name}, s.err
}

func (s *stubTrackerAPI) GetSite(_ context.Context, id string) (tracker.SiteView, error) {
	return tracker.SiteView{ID: id}, s.err
}

func (s *stubTrackerAPI) ListSites(context.Context, string) ([]tracker.SiteView, error) {
	return []tracker.SiteView{}, s.err
}

func (s *stubTrackerAPI) CreateEquipmentType(_ context.Context, in tracker.EquipmentTypeInput) (tracker.EquipmentTypeView, error) {
	return tracker.EquipmentTypeView{ID: "type-1", Name: in.Name}, s.err
}

func (s *stubTrackerAPI) GetEquipmentType(_ context.Context, id string) (tracker.EquipmentTypeView, error) {
	return tracker.EquipmentTypeView{ID: id}, s.err
}

func (s *stubTrackerAPI) ListEquipmentTypes(context.Context) ([]tracker.EquipmentTypeView, error) {
	return []tracker.EquipmentTypeView{}, s.err
}

func (s *stubTrackerAPI) CreateEquipment(_ context.Context, in tracker.CreateEquipmentInput) (tracker.EquipmentView, error) {
	s.createInput = in
	return tracker.EquipmentView{ID: "eq-1", Name: in.Name}, s.err
}

func (s *stubTrackerAPI) GetEquipment(_ context.Context, id string) (tracker.EquipmentView, error) {
	return tracker.EquipmentView{ID: id}, s.err
}

func (s *stubTrackerAPI) ListEquipment(context.Context, tracker.ListEquipmentInput) ([]tracker.EquipmentView, error) {
	return []tracker.EquipmentView{}, s.err
}

func (s *stubTrackerAPI) UpdateEquipment(_ context.Context, in tracker.UpdateEquipmentInput) (tracker.EquipmentView, error) {
	return tracker.EquipmentView{ID: in.EquipmentID}, s.err
}

func (s *stubTrackerAPI) RescheduleEquipment(_ context.Context, id string, weeks int) (tracker.EquipmentView, error) {
	return tracker.EquipmentView{ID: id, IntervalWeeks: weeks}, s.err
}

func (s *stubTrackerAPI) RecalculateEquipment(_ context.Context, id string, _ tracker.RecalculateFrom) (tracker.EquipmentView, error) {
	return tracker.EquipmentView{ID: id}, s.err
}

func (s *stubTrackerAPI) SetDueDate(_ context.Context, id string, due civil.Date) (tracker.EquipmentView, error) {
	s.setDueCalled = true
	s.setDueID = id
	s.setDueDate = due
	return tracker.EquipmentView{ID: id}, s.err
}

func (s *stubTrackerAPI) DeleteEquipment(_ context.Context, id string) error {
	s.deletedID = id
	return s.err
}

func (s *stubTrackerAPI) CompleteEquipment(_ context.Context, in tracker.CompleteInput) (tracker.CompleteResult, error) {
	s.completeCalled = true
	s.completeInput = in
	if s.err != nil {
		return tracker.CompleteResult{}, s.err
	}
	next := "2024-02-26"
	return tracker.CompleteResult{
		Equipment:  tracker.EquipmentView{ID: in.EquipmentID, DueDate: &next, IntervalWeeks: 8},
		Completion: tracker.CompletionView{ID: "c-1", EquipmentID: in.EquipmentID, NextDueDate: next, Policy: in.Policy},
	}, nil
}

func (s *stubTrackerAPI) ListCompletions(_ context.Context, _ string, limit int) ([]tracker.CompletionView, error) {
	s.limit = limit
	return []tracker.CompletionView{}, s.err
}

func (s *stubTrackerAPI) DueReport(_ context.Context, in tracker.DueReportInput) (tracker.DueReport, error) {
	s.dueInput = in
	return tracker.DueReport{Today: "2024-03-01"}, s.err
}

func (s *stubTrackerAPI) Today() civil.Date {
	return civil.Date{Year: 2024, Month: 3, Day: 1}
}

func serveTestRequest(t *testing.T, svc *stubTrackerAPI, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := newTrackerHTTPHandler(context.Background(), svc)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeAPIError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()

	var out apiErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return out.Error
}

func TestTrackerHTTPCompleteEquipment(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodPost, "/api/v1/equipment/eq-1/completions",
		`{"policy":"completion_date","completed_on":"2024-01-10","interval_override":8,"completed_by":"ana"}`)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusCreated, resp.Body.String())
	}
	if !svc.completeCalled {
		t.Fatal("service called = false, want true")
	}
	in := svc.completeInput
	if in.EquipmentID != "eq-1" || in.Policy != "completion_date" || in.IntervalOverride != 8 || in.CompletedBy != "ana" {
		t.Fatalf("complete input = %+v", in)
	}
	if want := (civil.Date{Year: 2024, Month: 1, Day: 10}); in.CompletedOn != want {
		t.Fatalf("completed_on = %v, want %v", in.CompletedOn, want)
	}

	var out tracker.CompleteResult
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if out.Equipment.DueDate == nil || *out.Equipment.DueDate != "2024-02-26" {
		t.Fatalf("equipment.due_date = %v, want 2024-02-26", out.Equipment.DueDate)
	}
}

func TestTrackerHTTPCompleteRejectsBadDate(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodPost, "/api/v1/equipment/eq-1/completions", `{"completed_on":"2024-02-30"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusBadRequest, resp.Body.String())
	}
	if svc.completeCalled {
		t.Fatal("service called = true, want false")
	}
}

func TestTrackerHTTPRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodPost, "/api/v1/equipment/eq-1/completions", `{"policy":"due_date","when":"now"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusBadRequest)
	}
	if !strings.Contains(decodeAPIError(t, resp), "invalid request body") {
		t.Fatalf("error = %q, want invalid request body", decodeAPIError(t, resp))
	}
}

func TestTrackerHTTPErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		method string
		target string
		body   string
		want   int
	}{
		{
			name:   "concurrent completion",
			err:    ports.ErrConcurrentUpdate,
			method: http.MethodPost,
			target: "/api/v1/equipment/eq-1/completions",
			body:   `{}`,
			want:   http.StatusConflict,
		},
		{
			name:   "missing equipment",
			err:    ports.ErrEquipmentNotFound,
			method: http.MethodGet,
			target: "/api/v1/equipment/eq-404",
			want:   http.StatusNotFound,
		},
		{
			name:   "delete blocked",
			err:    ports.ErrDeleteBlocked,
			method: http.MethodDelete,
			target: "/api/v1/equipment/eq-1",
			want:   http.StatusConflict,
		},
		{
			name:   "invalid interval",
			err:    &recurrence.Error{Op: "reschedule", RecordID: "eq-1", Err: recurrence.ErrInvalidInterval},
			method: http.MethodPost,
			target: "/api/v1/equipment/eq-1/reschedule",
			body:   `{"interval_weeks":0}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "nothing to advance",
			err:    recurrence.ErrNothingToAdvance,
			method: http.MethodPost,
			target: "/api/v1/equipment/eq-1/recalculate",
			body:   `{"from":"due"}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "storage failure",
			err:    context.DeadlineExceeded,
			method: http.MethodGet,
			target: "/api/v1/clients",
			want:   http.StatusServiceUnavailable,
		},
		{
			name:   "unclassified failure",
			err:    errTestStorage,
			method: http.MethodGet,
			target: "/api/v1/equipment-types",
			want:   http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubTrackerAPI{err: tc.err}
			body := tc.body
			if body == "" {
				body = "{}"
			}
			resp := serveTestRequest(t, svc, tc.method, tc.target, body)
			if resp.Code != tc.want {
				t.Fatalf("status = %d, want %d; body=%s", resp.Code, tc.want, resp.Body.String())
			}
			if decodeAPIError(t, resp) == "" {
				t.Fatal("error message is empty")
			}
		})
	}
}

func TestTrackerHTTPRejectsMalformedRequestValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "create anchor", method: http.MethodPost, target: "/api/v1/equipment", body: `{"name":"Boiler","anchor_date":"2024-13-01"}`},
		{name: "create due", method: http.MethodPost, target: "/api/v1/equipment", body: `{"name":"Boiler","due_date":"soon"}`},
		{name: "list sort", method: http.MethodGet, target: "/api/v1/equipment?sort=weight"},
		{name: "update anchor", method: http.MethodPatch, target: "/api/v1/equipment/eq-1", body: `{"anchor_date":"01/02/2024"}`},
		{name: "recalculate from", method: http.MethodPost, target: "/api/v1/equipment/eq-1/recalculate", body: `{"from":"tomorrow"}`},
		{name: "due report today", method: http.MethodGet, target: "/api/v1/due-report?today=2024-02-30"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubTrackerAPI{}
			body := tc.body
			if body == "" {
				body = "{}"
			}
			resp := serveTestRequest(t, svc, tc.method, tc.target, body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusBadRequest, resp.Body.String())
			}
			if decodeAPIError(t, resp) == "" {
				t.Fatal("error message is empty")
			}
			if svc.createInput.Name != "" {
				t.Fatalf("CreateEquipment called with %+v", svc.createInput)
			}
		})
	}
}

func TestTrackerHTTPSetDueDate(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodPut, "/api/v1/equipment/eq-1/due-date", `{"due_date":"2024-05-01"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}
	if want := (civil.Date{Year: 2024, Month: 5, Day: 1}); svc.setDueDate != want || svc.setDueID != "eq-1" {
		t.Fatalf("SetDueDate(%q, %v), want (eq-1, %v)", svc.setDueID, svc.setDueDate, want)
	}

	cleared := &stubTrackerAPI{}
	resp = serveTestRequest(t, cleared, http.MethodPut, "/api/v1/equipment/eq-1/due-date", `{"due_date":null}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}
	if !cleared.setDueCalled || !cleared.setDueDate.IsZero() {
		t.Fatalf("SetDueDate called=%v with %v, want zero date", cleared.setDueCalled, cleared.setDueDate)
	}

	blank := &stubTrackerAPI{}
	resp = serveTestRequest(t, blank, http.MethodPut, "/api/v1/equipment/eq-1/due-date", `{"due_date":""}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusBadRequest)
	}
	if blank.setDueCalled {
		t.Fatal("SetDueDate called for blank date")
	}
}

func TestTrackerHTTPDueReportQuery(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodGet,
		"/api/v1/due-report?client_id=client-1&exclude_inactive=true&today=2024-03-01&lookahead_weeks=2&sort=name&desc=true", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}

	in := svc.dueInput
	if in.Filter.ClientID != "client-1" || !in.Filter.ExcludeInactive {
		t.Fatalf("filter = %+v", in.Filter)
	}
	if want := (civil.Date{Year: 2024, Month: 3, Day: 1}); in.Today != want {
		t.Fatalf("today = %v, want %v", in.Today, want)
	}
	if in.LookaheadWeeks == nil || *in.LookaheadWeeks != 2 {
		t.Fatalf("lookahead = %v, want 2", in.LookaheadWeeks)
	}
	if in.Sort.By != recurrence.SortByName || !in.Sort.Descending {
		t.Fatalf("sort = %+v, want name desc", in.Sort)
	}
}

func TestTrackerHTTPDueReportDefaults(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodGet, "/api/v1/due-report", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusOK)
	}
	if !svc.dueInput.Today.IsZero() || svc.dueInput.LookaheadWeeks != nil {
		t.Fatalf("due input = %+v, want zero today and nil lookahead", svc.dueInput)
	}
	if svc.dueInput.Sort.By != recurrence.SortByDueDate {
		t.Fatalf("sort = %q, want due_date", svc.dueInput.Sort.By)
	}

	resp = serveTestRequest(t, svc, http.MethodGet, "/api/v1/due-report?sort=color", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusBadRequest)
	}
}

func TestTrackerHTTPCreateEquipmentDefaultsAnchor(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodPost, "/api/v1/equipment",
		`{"client_id":"client-1","site_id":"site-1","name":"Boiler","lead_weeks":2}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusCreated, resp.Body.String())
	}
	in := svc.createInput
	if want := (civil.Date{Year: 2024, Month: 3, Day: 1}); in.AnchorDate != want {
		t.Fatalf("anchor = %v, want %v", in.AnchorDate, want)
	}
	if !in.DueDate.IsZero() {
		t.Fatalf("due = %v, want unscheduled", in.DueDate)
	}
	if in.LeadWeeks == nil || *in.LeadWeeks != 2 {
		t.Fatalf("lead weeks = %v, want 2", in.LeadWeeks)
	}
}

func TestTrackerHTTPDeleteAndCompletionsLimit(t *testing.T) {
	t.Parallel()

	svc := &stubTrackerAPI{}
	resp := serveTestRequest(t, svc, http.MethodDelete, "/api/v1/equipment/eq-9", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusNoContent)
	}
	if svc.deletedID != "eq-9" {
		t.Fatalf("deleted = %q, want eq-9", svc.deletedID)
	}

	resp = serveTestRequest(t, svc, http.MethodGet, "/api/v1/equipment/eq-9/completions?limit=5", "")
	if resp.Code != http.StatusOK || svc.limit != 5 {
		t.Fatalf("status = %d limit = %d, want 200 and 5", resp.Code, svc.limit)
	}

	resp = serveTestRequest(t, svc, http.MethodGet, "/api/v1/equipment/eq-9/completions?limit=-1", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusBadRequest)
	}
}

func TestTrackerHTTPHealthz(t *testing.T) {
	t.Parallel()

	resp := serveTestRequest(t, &stubTrackerAPI{}, http.MethodGet, "/healthz", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusOK)
	}
	if resp.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("content-type = %q, want application/json", resp.Header().Get("Content-Type"))
	}
}
