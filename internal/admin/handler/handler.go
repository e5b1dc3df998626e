// Package handler exposes the staff admin endpoints. All routes except
// login sit behind the staff auth middleware; user management additionally
// requires the admin role.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"posintake/internal/admin/models"
	"posintake/internal/admin/service"
	"posintake/internal/admin/store/revocation"
	appmodels "posintake/internal/application/models"
	appservice "posintake/internal/application/service"
	appstore "posintake/internal/application/store"
	"posintake/internal/platform/middleware"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/httputil"
	"posintake/pkg/requestcontext"
)

// Service defines the admin operations the handler needs.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*service.LoginResult, error)
	Logout(ctx context.Context) error

	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.AdminUser, error)
	ListUsers(ctx context.Context) ([]models.AdminUser, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListApplications(ctx context.Context, f service.ListFilter) ([]appstore.Summary, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*service.ApplicationDetail, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, req *appmodels.ChangeStatusRequest) (*appmodels.Application, error)
	FlagDeficientDocuments(ctx context.Context, id uuid.UUID, req *appmodels.FlagDeficienciesRequest) (*appservice.DeficiencyResult, error)
	AddNote(ctx context.Context, id uuid.UUID, req *models.NoteRequest) (*appmodels.Note, error)
	DownloadDocument(ctx context.Context, id uuid.UUID, docType string) (*service.DocumentFile, error)
	Stats(ctx context.Context) (*service.Stats, error)
	ExportCSV(ctx context.Context, f service.ListFilter, w io.Writer) error
}

// Handler wires the admin endpoints.
type Handler struct {
	service   Service
	validator middleware.StaffValidator
	trl       revocation.TokenRevocationList
	logger    *slog.Logger
}

func New(service Service, validator middleware.StaffValidator, trl revocation.TokenRevocationList, logger *slog.Logger) *Handler {
	return &Handler{service: service, validator: validator, trl: trl, logger: logger}
}

// Register mounts the admin endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/admin/login", h.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireStaff(h.validator, h.trl, h.logger))

		r.Post("/api/admin/logout", h.HandleLogout)
		r.Get("/api/admin/applications", h.HandleList)
		r.Get("/api/admin/applications/{id}", h.HandleGet)
		r.Put("/api/admin/applications/{id}/status", h.HandleChangeStatus)
		r.Post("/api/admin/applications/{id}/deficiencies", h.HandleFlagDeficiencies)
		r.Post("/api/admin/applications/{id}/notes", h.HandleAddNote)
		r.Get("/api/admin/applications/{id}/files/{type}", h.HandleDownload)
		r.Get("/api/admin/export", h.HandleExport)
		r.Get("/api/admin/stats", h.HandleStats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, h.logger))
			r.Post("/api/admin/users", h.HandleCreateUser)
			r.Get("/api/admin/users", h.HandleListUsers)
			r.Delete("/api/admin/users/{id}", h.HandleDeleteUser)
		})
	})
}

// HandleLogin handles POST /api/admin/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.Login(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(result))
}

// HandleLogout handles POST /api/admin/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listFilterFromQuery(r *http.Request) service.ListFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return service.ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	}
}

// HandleList handles GET /api/admin/applications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListApplications(r.Context(), listFilterFromQuery(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(summaries))
}

func applicationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid application id")
	}
	return id, nil
}

// HandleGet handles GET /api/admin/applications/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.service.GetApplication(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(detail))
}

// HandleChangeStatus handles PUT /api/admin/applications/{id}/status.
func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[appmodels.ChangeStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	app, err := h.service.ChangeStatus(ctx, id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "status change rejected",
			"application_id", id,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// HandleFlagDeficiencies handles POST /api/admin/applications/{id}/deficiencies.
func (h *Handler) HandleFlagDeficiencies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[appmodels.FlagDeficienciesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.service.FlagDeficientDocuments(ctx, id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeficiencyResponse(result))
}

// HandleAddNote handles POST /api/admin/applications/{id}/notes.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.NoteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	note, err := h.service.AddNote(ctx, id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toNoteResponse(*note))
}

// HandleDownload handles GET /api/admin/applications/{id}/files/{type}.
// The stored bytes stream back with the original filename.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := applicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	file, err := h.service.DownloadDocument(r.Context(), id, chi.URLParam(r, "type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// HandleExport handles GET /api/admin/export. Same filters as the listing,
// streamed as CSV.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="applications.csv"`)
	if err := h.service.ExportCSV(r.Context(), listFilterFromQuery(r), w); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}

// HandleStats handles GET /api/admin/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		Total:    stats.Total,
		ByStatus: stats.ByStatus,
	})
}

// HandleCreateUser handles POST /api/admin/users.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	user, err := h.service.CreateUser(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(*user))
}

// HandleListUsers handles GET /api/admin/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleDeleteUser handles DELETE /api/admin/users/{id}.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
