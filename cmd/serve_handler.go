package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

type trackerAPI interface {
	CreateClient(context.Context, tracker.CreateClientInput) (tracker.ClientView, error)
	GetClient(context.Context, string) (tracker.ClientView, error)
	ListClients(context.Context) ([]tracker.ClientView, error)
	CreateSite(context.Context, tracker.CreateSiteInput) (tracker.SiteView, error)
	GetSite(context.Context, string) (tracker.SiteView, error)
	ListSites(context.Context, string) ([]tracker.SiteView, error)
	CreateEquipmentType(context.Context, tracker.EquipmentTypeInput) (tracker.EquipmentTypeView, error)
	GetEquipmentType(context.Context, string) (tracker.EquipmentTypeView, error)
	ListEquipmentTypes(context.Context) ([]tracker.EquipmentTypeView, error)

	CreateEquipment(context.Context, tracker.CreateEquipmentInput) (tracker.EquipmentView, error)
	GetEquipment(context.Context, string) (tracker.EquipmentView, error)
	ListEquipment(context.Context, tracker.ListEquipmentInput) ([]tracker.EquipmentView, error)
	UpdateEquipment(context.Context, tracker.UpdateEquipmentInput) (tracker.EquipmentView, error)
	RescheduleEquipment(context.Context, string, int) (tracker.EquipmentView, error)
	RecalculateEquipment(context.Context, string, tracker.RecalculateFrom) (tracker.EquipmentView, error)
	SetDueDate(context.Context, string, civil.Date) (tracker.EquipmentView, error)
	DeleteEquipment(context.Context, string) error

	CompleteEquipment(context.Context, tracker.CompleteInput) (tracker.CompleteResult, error)
	ListCompletions(context.Context, string, int) ([]tracker.CompletionView, error)
	DueReport(context.Context, tracker.DueReportInput) (tracker.DueReport, error)
	Today() civil.Date
}

type trackerHTTPHandler struct {
	svc trackerAPI
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

type createClientRequest struct {
	Name string `json:"name"`
}

type createSiteRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type createEquipmentTypeRequest struct {
	Name                 string `json:"name"`
	DefaultIntervalWeeks int    `json:"default_interval_weeks"`
	DefaultLeadWeeks     int    `json:"default_lead_weeks"`
}

type createEquipmentRequest struct {
	ClientID      string `json:"client_id"`
	SiteID        string `json:"site_id"`
	TypeID        string `json:"type_id"`
	Name          string `json:"name"`
	AnchorDate    string `json:"anchor_date"`
	DueDate       string `json:"due_date"`
	IntervalWeeks int    `json:"interval_weeks"`
	LeadWeeks     *int   `json:"lead_weeks"`
	Active        *bool  `json:"active"`
	Timezone      string `json:"timezone"`
	Notes         string `json:"notes"`
}

type updateEquipmentRequest struct {
	Name       *string `json:"name"`
	TypeID     *string `json:"type_id"`
	AnchorDate *string `json:"anchor_date"`
	LeadWeeks  *int    `json:"lead_weeks"`
	Active     *bool   `json:"active"`
	Timezone   *string `json:"timezone"`
	Notes      *string `json:"notes"`
}

type rescheduleRequest struct {
	IntervalWeeks int `json:"interval_weeks"`
}

type recalculateRequest struct {
	From string `json:"from"`
}

// setDueDateRequest clears the schedule when DueDate is null.
type setDueDateRequest struct {
	DueDate *string `json:"due_date"`
}

type completeRequest struct {
	Policy           string `json:"policy"`
	CompletedOn      string `json:"completed_on"`
	IntervalOverride int    `json:"interval_override"`
	CompletedBy      string `json:"completed_by"`
}

func newTrackerHTTPHandler(ctx context.Context, svc trackerAPI) http.Handler {
	h := &trackerHTTPHandler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(ctx))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.listClients)
			r.Post("/", h.createClient)
			r.Get("/{clientID}", h.getClient)
		})
		r.Route("/sites", func(r chi.Router) {
			r.Get("/", h.listSites)
			r.Post("/", h.createSite)
			r.Get("/{siteID}", h.getSite)
		})
		r.Route("/equipment-types", func(r chi.Router) {
			r.Get("/", h.listEquipmentTypes)
			r.Post("/", h.createEquipmentType)
			r.Get("/{typeID}", h.getEquipmentType)
		})
		r.Route("/equipment", func(r chi.Router) {
			r.Get("/", h.listEquipment)
			r.Post("/", h.createEquipment)
			r.Route("/{equipmentID}", func(r chi.Router) {
				r.Get("/", h.getEquipment)
				r.Patch("/", h.updateEquipment)
				r.Delete("/", h.deleteEquipment)
				r.Post("/reschedule", h.rescheduleEquipment)
				r.Post("/recalculate", h.recalculateEquipment)
				r.Put("/due-date", h.setDueDate)
				r.Get("/completions", h.listCompletions)
				r.Post("/completions", h.completeEquipment)
			})
		})
		r.Get("/due-report", h.dueReport)
	})
	return r
}

// requestLogger writes one line per request with the chi request id.
func requestLogger(ctx context.Context) func(http.Handler) http.Handler {
	logCtx := logging.WithComponent(ctx, "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logging.Info(logCtx, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

func (h *trackerHTTPHandler) listClients(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListClients(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.CreateClient(r.Context(), tracker.CreateClientInput{Name: req.Name})
	respond(w, r, http.StatusCreated, out, err)
}

func (h *trackerHTTPHandler) getClient(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetClient(r.Context(), chi.URLParam(r, "clientID"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) listSites(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListSites(r.Context(), r.URL.Query().Get("client_id"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) createSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.CreateSite(r.Context(), tracker.CreateSiteInput{
		ClientID: req.ClientID,
		Name:     req.Name,
		Timezone: req.Timezone,
	})
	respond(w, r, http.StatusCreated, out, err)
}

func (h *trackerHTTPHandler) getSite(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetSite(r.Context(), chi.URLParam(r, "siteID"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) listEquipmentTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListEquipmentTypes(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) createEquipmentType(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentTypeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.CreateEquipmentType(r.Context(), tracker.EquipmentTypeInput{
		Name:                 req.Name,
		DefaultIntervalWeeks: req.DefaultIntervalWeeks,
		DefaultLeadWeeks:     req.DefaultLeadWeeks,
	})
	respond(w, r, http.StatusCreated, out, err)
}

func (h *trackerHTTPHandler) getEquipmentType(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetEquipmentType(r.Context(), chi.URLParam(r, "typeID"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) listEquipment(w http.ResponseWriter, r *http.Request) {
	filter, sortOpts, err := filterAndSortFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out, err := h.svc.ListEquipment(r.Context(), tracker.ListEquipmentInput{Filter: filter, Sort: sortOpts})
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) createEquipment(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	anchor, err := recurrence.ParseDate(req.AnchorDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if anchor.IsZero() {
		anchor = h.svc.Today()
	}
	due, err := recurrence.ParseDate(req.DueDate)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out, err := h.svc.CreateEquipment(r.Context(), tracker.CreateEquipmentInput{
		ClientID:      req.ClientID,
		SiteID:        req.SiteID,
		TypeID:        req.TypeID,
		Name:          req.Name,
		AnchorDate:    anchor,
		DueDate:       due,
		IntervalWeeks: req.IntervalWeeks,
		LeadWeeks:     req.LeadWeeks,
		Active:        req.Active,
		Timezone:      req.Timezone,
		Notes:         req.Notes,
	})
	respond(w, r, http.StatusCreated, out, err)
}

func (h *trackerHTTPHandler) getEquipment(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetEquipment(r.Context(), chi.URLParam(r, "equipmentID"))
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) updateEquipment(w http.ResponseWriter, r *http.Request) {
	var req updateEquipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input := tracker.UpdateEquipmentInput{
		EquipmentID: chi.URLParam(r, "equipmentID"),
		Name:        req.Name,
		TypeID:      req.TypeID,
		LeadWeeks:   req.LeadWeeks,
		Active:      req.Active,
		Timezone:    req.Timezone,
		Notes:       req.Notes,
	}
	if req.AnchorDate != nil {
		anchor, err := recurrence.ParseDate(*req.AnchorDate)
		if err != nil {
			respondError(w, r, err)
			return
		}
		input.AnchorDate = &anchor
	}
	out, err := h.svc.UpdateEquipment(r.Context(), input)
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) deleteEquipment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEquipment(r.Context(), chi.URLParam(r, "equipmentID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *trackerHTTPHandler) rescheduleEquipment(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.RescheduleEquipment(r.Context(), chi.URLParam(r, "equipmentID"), req.IntervalWeeks)
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) recalculateEquipment(w http.ResponseWriter, r *http.Request) {
	var req recalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	from, err := tracker.ParseRecalculateFrom(req.From)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out, err := h.svc.RecalculateEquipment(r.Context(), chi.URLParam(r, "equipmentID"), from)
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) setDueDate(w http.ResponseWriter, r *http.Request) {
	var req setDueDateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var due civil.Date
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			writeAPIError(w, http.StatusBadRequest, "due_date must be a yyyy-mm-dd date or null")
			return
		}
		parsed, err := recurrence.ParseDate(*req.DueDate)
		if err != nil {
			respondError(w, r, err)
			return
		}
		due = parsed
	}
	out, err := h.svc.SetDueDate(r.Context(), chi.URLParam(r, "equipmentID"), due)
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) listCompletions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	out, err := h.svc.ListCompletions(r.Context(), chi.URLParam(r, "equipmentID"), limit)
	respond(w, r, http.StatusOK, out, err)
}

func (h *trackerHTTPHandler) completeEquipment(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	completedOn, err := recurrence.ParseDate(req.CompletedOn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out, err := h.svc.CompleteEquipment(r.Context(), tracker.CompleteInput{
		EquipmentID:      chi.URLParam(r, "equipmentID"),
		Policy:           req.Policy,
		CompletedOn:      completedOn,
		IntervalOverride: req.IntervalOverride,
		CompletedBy:      req.CompletedBy,
	})
	respond(w, r, http.StatusCreated, out, err)
}

func (h *trackerHTTPHandler) dueReport(w http.ResponseWriter, r *http.Request) {
	filter, sortOpts, err := filterAndSortFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	query := r.URL.Query()
	today, err := recurrence.ParseDate(strings.TrimSpace(query.Get("today")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	input := tracker.DueReportInput{Filter: filter, Today: today, Sort: sortOpts}
	if raw := strings.TrimSpace(query.Get("lookahead_weeks")); raw != "" {
		weeks, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "lookahead_weeks must be an integer")
			return
		}
		input.LookaheadWeeks = &weeks
	}
	out, err := h.svc.DueReport(r.Context(), input)
	respond(w, r, http.StatusOK, out, err)
}

func filterAndSortFromQuery(r *http.Request) (recurrence.Filter, recurrence.SortOptions, error) {
	query := r.URL.Query()
	by, err := recurrence.ParseSortKey(query.Get("sort"))
	if err != nil {
		return recurrence.Filter{}, recurrence.SortOptions{}, err
	}
	excludeInactive, _ := strconv.ParseBool(query.Get("exclude_inactive"))
	desc, _ := strconv.ParseBool(query.Get("desc"))
	return recurrence.Filter{
			ClientID:        strings.TrimSpace(query.Get("client_id")),
			SiteID:          strings.TrimSpace(query.Get("site_id")),
			TypeID:          strings.TrimSpace(query.Get("type_id")),
			ExcludeInactive: excludeInactive,
		}, recurrence.SortOptions{
			By:         by,
			Descending: desc,
		}, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// respond writes out with status, or maps err to a status code.
func respond(w http.ResponseWriter, r *http.Request, status int, out any, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeAPIJSON(w, status, out)
}

// respondError maps err to its HTTP status. Only 500s are logged.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		logging.Error(r.Context(), "http handler failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("err", errs.Loggable(err)),
		)
	}
	writeAPIError(w, code, err.Error())
}

func statusForError(err error) int {
	switch {
	case tracker.IsValidation(err):
		return http.StatusBadRequest
	case tracker.IsNotFound(err):
		return http.StatusNotFound
	case tracker.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: message})
}
