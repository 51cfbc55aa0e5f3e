package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/importer"
	"transferdesk/internal/ranking"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	"transferdesk/pkg/platform/httputil"
	pstrings "transferdesk/pkg/platform/strings"
	"transferdesk/pkg/requestcontext"
)

// Service is the case operations surface used by the handler.
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req models.CreateRequest) (*models.Case, error)
	Get(ctx context.Context, actor domain.Actor, id domain.CaseID) (*models.Case, error)
	Update(ctx context.Context, actor domain.Actor, id domain.CaseID, patch models.UpdatePatch) (*models.Case, error)
	Delete(ctx context.Context, actor domain.Actor, id domain.CaseID) error
	ChangeRequestStatus(ctx context.Context, actor domain.Actor, id domain.CaseID, req models.StatusChangeRequest) (*models.Case, error)
	History(ctx context.Context, actor domain.Actor, id domain.CaseID) (models.History, error)
	List(ctx context.Context, actor domain.Actor, q models.ListQuery) (models.Page, error)
	Lookup(ctx context.Context, actor domain.Actor, q models.LookupQuery) ([]*models.Case, error)
}

type Ranker interface {
	Rank(ctx context.Context, actor domain.Actor, id domain.CaseID, statuses []models.RequestStatus) (ranking.Result, error)
}

type Importer interface {
	Import(ctx context.Context, actor domain.Actor, rows []models.CreateRequest) (importer.Report, error)
}

// Handler serves the /cases endpoints. Authentication happens upstream; every
// route expects an actor in the request context.
type Handler struct {
	cases    Service
	ranker   Ranker
	importer Importer
	logger   *slog.Logger
}

func New(cases Service, ranker Ranker, imp Importer, logger *slog.Logger) *Handler {
	return &Handler{
		cases:    cases,
		ranker:   ranker,
		importer: imp,
		logger:   logger,
	}
}

// Register mounts the case routes on r. /cases/lookup and /cases/import are
// registered ahead of the {id} routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/lookup", h.handleLookup)
		r.Post("/import", h.handleImport)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/status", h.handleChangeStatus)
			r.Get("/history", h.handleHistory)
			r.Get("/ranking", h.handleRanking)
		})
	})
}

type importRequest struct {
	Rows []models.CreateRequest `json:"rows"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		h.fail(w, r, "invalid list query", err)
		return
	}
	page, err := h.cases.List(r.Context(), actor, q)
	if err != nil {
		h.fail(w, r, "failed to list cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req models.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.cases.Create(r.Context(), actor, req)
	if err != nil {
		h.fail(w, r, "failed to create case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	c, err := h.cases.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "failed to get case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var patch models.UpdatePatch
	if !h.decode(w, r, &patch) {
		return
	}
	c, err := h.cases.Update(r.Context(), actor, id, patch)
	if err != nil {
		h.fail(w, r, "failed to update case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.cases.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "failed to delete case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var req models.StatusChangeRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.cases.ChangeRequestStatus(r.Context(), actor, id, req)
	if err != nil {
		h.fail(w, r, "failed to change request status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	history, err := h.cases.History(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "failed to load case history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	v := r.URL.Query()
	q := models.LookupQuery{
		PersonnelCode:        v.Get("personnelCode"),
		NationalID:           v.Get("nationalId"),
		FinalDestinationCode: v.Get("finalDestinationCode"),
		FinalReason:          v.Get("finalReason"),
	}
	if raw := v.Get("clauses"); raw != "" {
		q.Clauses = pstrings.SplitCodes(raw)
	}
	items, err := h.cases.Lookup(r.Context(), actor, q)
	if err != nil {
		h.fail(w, r, "failed to look up cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	statuses, err := ranking.ParseStatuses(r.URL.Query().Get("statuses"))
	if err != nil {
		h.fail(w, r, "invalid ranking statuses", err)
		return
	}
	result, err := h.ranker.Rank(r.Context(), actor, id, statuses)
	if err != nil {
		h.fail(w, r, "failed to rank case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req importRequest
	if !h.decode(w, r, &req) {
		return
	}
	report, err := h.importer.Import(r.Context(), actor, req.Rows)
	if err != nil {
		h.fail(w, r, "failed to import cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := requestcontext.Actor(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "actor missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Actor{}, false
	}
	return actor, true
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request) (domain.Actor, domain.CaseID, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return domain.Actor{}, domain.CaseID{}, false
	}
	id, err := domain.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.Actor{}, domain.CaseID{}, false
	}
	return actor, id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// fail logs at warn for client errors and at error for everything else, then
// writes the envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err.Error())
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err.Error())
	}
	httputil.WriteError(w, err)
}

func parseListQuery(r *http.Request) (models.ListQuery, error) {
	v := r.URL.Query()
	q := models.ListQuery{
		Q:              v.Get("q"),
		RequestStatus:  models.RequestStatus(v.Get("requestStatus")),
		EmploymentType: v.Get("employmentType"),
		Gender:         models.Gender(v.Get("gender")),
		LocationCode:   v.Get("locationCode"),
	}
	var err error
	if q.LegacyStatus, err = intParam(v.Get("legacyStatus"), "legacyStatus", func(n int) models.LegacyStatus { return models.LegacyStatus(n) }); err != nil {
		return q, err
	}
	if q.Page, err = intParam(v.Get("page"), "page", func(n int) int { return n }); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(v.Get("limit"), "limit", func(n int) int { return n }); err != nil {
		return q, err
	}
	return q, nil
}

func intParam[T any](raw, name string, conv func(int) T) (T, error) {
	var zero T
	if raw == "" {
		return zero, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return zero, dErrors.Newf(dErrors.CodeValidation, "%s must be a number", name)
	}
	return conv(n), nil
}
