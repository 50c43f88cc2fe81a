package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"helix/internal/console"
	"helix/internal/domain"
	"helix/internal/export"
	"helix/internal/middleware"
	"helix/internal/session"
	"helix/internal/staging"
)

// ConsoleHandler exposes the operator's upload console over HTTP.
type ConsoleHandler struct {
	sessions *session.Manager
	stager   *staging.Stager
	logger   *zap.Logger
}

// NewConsoleHandler creates a new ConsoleHandler.
func NewConsoleHandler(sessions *session.Manager, stager *staging.Stager, logger *zap.Logger) *ConsoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleHandler{sessions: sessions, stager: stager, logger: logger.Named("console_handler")}
}

func (h *ConsoleHandler) console(c *gin.Context) (*console.Controller, bool) {
	operatorID, err := middleware.GetOperatorID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing operator context")
		return nil, false
	}
	return h.sessions.Get(operatorID), true
}

// Get handles GET /api/v1/console
// @Summary Console state
// @Description Routing selection, selector options, queued files and button state
// @Tags console
// @Produce json
// @Success 200 {object} APIResponse{data=console.View}
// @Security BearerAuth
// @Router /console [get]
func (h *ConsoleHandler) Get(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	RespondOK(c, ctrl.Snapshot())
}

// SetRouting handles PUT /api/v1/console/routing
// @Summary Select routing
// @Description Set department, process and file type, or a full DEPT-PROCESS-TYPE code
// @Tags console
// @Accept json
// @Produce json
// @Param body body RoutingRequest true "Routing selection"
// @Success 200 {object} APIResponse{data=console.View}
// @Failure 400 {object} APIResponse "Illegal selection"
// @Failure 409 {object} APIResponse "Batch in progress"
// @Security BearerAuth
// @Router /console/routing [put]
func (h *ConsoleHandler) SetRouting(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	var req RoutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	var err error
	if req.RoutingCode != "" {
		var code domain.RoutingCode
		code, err = domain.ParseRoutingCode(req.RoutingCode)
		if err == nil {
			err = ctrl.SetRouting(code)
		}
	} else {
		err = applyLevels(ctrl, req)
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, ctrl.Snapshot())
}

// applyLevels sets each supplied level top-down, so a request naming only a
// file type keeps the current department and process.
func applyLevels(ctrl *console.Controller, req RoutingRequest) error {
	if req.Department == "" && req.Process == "" && req.FileType == "" {
		return domain.ErrRoutingIncomplete
	}
	if req.Department != "" {
		if err := ctrl.SetDepartment(req.Department); err != nil {
			return err
		}
	}
	if req.Process != "" {
		if err := ctrl.SetProcess(req.Process); err != nil {
			return err
		}
	}
	if req.FileType != "" {
		return ctrl.SetFileType(req.FileType)
	}
	return nil
}

// AddFiles handles POST /api/v1/console/files
// @Summary Queue files
// @Description Stage one or more files and add them to the queue; each is validated against the selected file type
// @Tags console
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Files to queue (repeatable)"
// @Success 201 {object} APIResponse{data=[]console.FileView}
// @Failure 400 {object} APIResponse "No files"
// @Failure 409 {object} APIResponse "Batch in progress"
// @Security BearerAuth
// @Router /console/files [post]
func (h *ConsoleHandler) AddFiles(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	if ctrl.Busy() {
		HandleError(c, domain.ErrBatchInProgress)
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "at least one file field is required")
		return
	}

	ctx := c.Request.Context()
	added := make([]console.FileView, 0, len(form.File["file"]))
	for _, fh := range form.File["file"] {
		f, err := fh.Open()
		if err != nil {
			h.rollback(ctx, ctrl, added)
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		p, err := h.stager.Stage(ctx, ctrl.Operator(), fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
		_ = f.Close()
		if err != nil {
			h.logger.Error("staging failed", zap.String("file", fh.Filename), zap.Error(err))
			h.rollback(ctx, ctrl, added)
			HandleError(c, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err))
			return
		}

		fv, err := ctrl.Add(p)
		if err != nil {
			_ = p.Release(ctx)
			h.rollback(ctx, ctrl, added)
			HandleError(c, err)
			return
		}
		added = append(added, fv)
	}
	RespondCreated(c, added)
}

// rollback drops entries queued earlier in a request that failed, so a
// multi-file add is all or nothing.
func (h *ConsoleHandler) rollback(ctx context.Context, ctrl *console.Controller, added []console.FileView) {
	for _, fv := range added {
		if err := ctrl.Remove(ctx, fv.ID); err != nil {
			h.logger.Warn("rolling back queued file", zap.String("entry_id", fv.ID), zap.Error(err))
		}
	}
}

// RemoveFile handles DELETE /api/v1/console/files/:id
// @Summary Remove a queued file
// @Tags console
// @Produce json
// @Param id path string true "Queue entry ID"
// @Success 200 {object} APIResponse{data=console.View}
// @Failure 409 {object} APIResponse "Batch in progress"
// @Security BearerAuth
// @Router /console/files/{id} [delete]
func (h *ConsoleHandler) RemoveFile(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	if err := ctrl.Remove(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, ctrl.Snapshot())
}

// ClearFiles handles DELETE /api/v1/console/files
// @Summary Clear the queue
// @Tags console
// @Produce json
// @Success 200 {object} APIResponse{data=console.View}
// @Failure 409 {object} APIResponse "Batch in progress"
// @Security BearerAuth
// @Router /console/files [delete]
func (h *ConsoleHandler) ClearFiles(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	if err := ctrl.Clear(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, ctrl.Snapshot())
}

// Validate handles POST /api/v1/console/validate
// @Summary Re-validate the queue
// @Tags console
// @Produce json
// @Success 200 {object} APIResponse{data=queue.Counts}
// @Failure 409 {object} APIResponse "Batch in progress"
// @Security BearerAuth
// @Router /console/validate [post]
func (h *ConsoleHandler) Validate(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	counts, err := ctrl.ValidateAll()
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, counts)
}

// Submit handles POST /api/v1/console/submit
// @Summary Upload ready files
// @Description Starts a batch that uploads every ready file in order; poll the batch for progress
// @Tags console
// @Accept json
// @Produce json
// @Param body body SubmitRequest false "Priority and notes"
// @Success 202 {object} APIResponse{data=domain.BatchResult}
// @Failure 400 {object} APIResponse "Routing incomplete or bad priority"
// @Failure 409 {object} APIResponse "Batch in progress"
// @Failure 422 {object} APIResponse "No valid files"
// @Security BearerAuth
// @Router /console/submit [post]
func (h *ConsoleHandler) Submit(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	var req SubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	batch, err := ctrl.Start(c.Request.Context(), console.SubmitInput{
		Priority: req.Priority,
		Notes:    req.Notes,
		Token:    middleware.GetToken(c),
		Email:    middleware.GetEmail(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Location", "/api/v1/console/batches/"+batch.ID)
	RespondAccepted(c, batch)
}

// Cancel handles POST /api/v1/console/cancel
// @Summary Cancel the running batch
// @Description Files not yet attempted stay queued
// @Tags console
// @Produce json
// @Success 200 {object} APIResponse{data=CancelResponse}
// @Security BearerAuth
// @Router /console/cancel [post]
func (h *ConsoleHandler) Cancel(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	RespondOK(c, CancelResponse{Cancelled: ctrl.Cancel()})
}

// ListBatches handles GET /api/v1/console/batches
// @Summary Recent batches
// @Tags console
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.BatchResult,meta=ListMeta}
// @Security BearerAuth
// @Router /console/batches [get]
func (h *ConsoleHandler) ListBatches(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	batches := ctrl.Batches()
	RespondList(c, batches, len(batches))
}

// GetBatch handles GET /api/v1/console/batches/:id
// @Summary Batch detail
// @Tags console
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} APIResponse{data=domain.BatchResult}
// @Failure 404 {object} APIResponse "Unknown batch"
// @Security BearerAuth
// @Router /console/batches/{id} [get]
func (h *ConsoleHandler) GetBatch(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	batch, err := ctrl.Batch(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, batch)
}

// ExportBatch handles GET /api/v1/console/batches/:id/export
// @Summary Download a batch report
// @Tags console
// @Produce text/csv
// @Param id path string true "Batch ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} APIResponse "Unknown format"
// @Failure 404 {object} APIResponse "Unknown batch"
// @Security BearerAuth
// @Router /console/batches/{id}/export [get]
func (h *ConsoleHandler) ExportBatch(c *gin.Context) {
	ctrl, ok := h.console(c)
	if !ok {
		return
	}
	batch, err := ctrl.Batch(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, batch)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, batch)
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.BuildFilename(batch, format)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
