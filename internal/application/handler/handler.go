// Package handler exposes the applicant-facing intake endpoints. Staff
// endpoints live in internal/admin.
package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"posintake/internal/application/models"
	"posintake/internal/application/service"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/httputil"
	"posintake/pkg/requestcontext"
)

// maxFormMemory bounds the in-memory part of multipart parsing; larger
// parts spill to temp files.
const maxFormMemory = 32 << 20

// Service defines the workflow operations the public surface needs.
type Service interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*service.SubmitResult, error)
	StatusByAccessToken(ctx context.Context, accessToken string) (*service.StatusView, error)
	Lookup(ctx context.Context, req *models.LookupRequest) (*service.LookupResult, error)
	DescribeToken(ctx context.Context, token string) (*service.TokenPreview, error)
	RedeemToken(ctx context.Context, token string, files []models.Upload) (*service.RedeemResult, error)
}

// Handler wires the public intake endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/pos/applications", h.HandleSubmit)
	r.Get("/api/pos/status/{accessToken}", h.HandleStatus)
	r.Post("/api/pos/lookup", h.HandleLookup)
	r.Get("/api/pos/resubmission", h.HandleDescribeToken)
	r.Post("/api/pos/resubmission", h.HandleRedeem)
}

// HandleSubmit handles POST /api/pos/applications. The body is multipart:
// text parts become application fields, file parts are keyed by document
// type.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := parseMultipartSubmission(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Submit(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "submission rejected", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		ReferenceNo: result.ReferenceNo,
		AccessToken: result.AccessToken,
		StatusURL:   result.StatusURL,
		Status:      result.Status.String(),
	})
}

// HandleStatus handles GET /api/pos/status/{accessToken}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accessToken := chi.URLParam(r, "accessToken")

	view, err := h.service.StatusByAccessToken(ctx, accessToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(view))
}

// HandleLookup handles POST /api/pos/lookup.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LookupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.Lookup(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lookupResponse{
		ReferenceNo: result.ReferenceNo,
		StatusURL:   result.StatusURL,
	})
}

// HandleDescribeToken handles GET /api/pos/resubmission?token=.
func (h *Handler) HandleDescribeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	preview, err := h.service.DescribeToken(ctx, r.URL.Query().Get("token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPreviewResponse(preview))
}

// HandleRedeem handles POST /api/pos/resubmission?token=. The body is
// multipart with file parts keyed by document type.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	files, err := parseMultipartFiles(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.RedeemToken(ctx, r.URL.Query().Get("token"), files)
	if err != nil {
		h.logger.WarnContext(ctx, "redemption rejected", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRedeemResponse(result))
}

func parseMultipartSubmission(r *http.Request) (*models.SubmitRequest, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "multipart form expected")
	}
	req := &models.SubmitRequest{Fields: make(map[string]string)}
	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		if key == "variant" {
			req.Variant = values[0]
			continue
		}
		req.Fields[key] = values[0]
	}
	files, err := readFileParts(r.MultipartForm)
	if err != nil {
		return nil, err
	}
	req.Files = files
	return req, nil
}

func parseMultipartFiles(r *http.Request) ([]models.Upload, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "multipart form expected")
	}
	return readFileParts(r.MultipartForm)
}

func readFileParts(form *multipart.Form) ([]models.Upload, error) {
	var files []models.Upload
	for docType, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		header := headers[0]
		// Per-file size is re-checked in validation; this guards memory.
		if header.Size > models.MaxUploadBytes {
			return nil, dErrors.New(dErrors.CodeValidation, "file "+header.Filename+" exceeds the 15 MB limit")
		}
		f, err := header.Open()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "read uploaded file")
		}
		data, err := io.ReadAll(io.LimitReader(f, models.MaxUploadBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "read uploaded file")
		}
		files = append(files, models.Upload{
			DocumentType: docType,
			Name:         header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			Data:         data,
		})
	}
	return files, nil
}
