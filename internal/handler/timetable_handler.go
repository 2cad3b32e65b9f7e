package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/middleware"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	"github.com/noah-isme/timetable-planner-api/internal/service"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
	"github.com/noah-isme/timetable-planner-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetablesRequest) (*dto.GenerateTimetablesResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SavedTimetableResponse, error)
	List(ctx context.Context) ([]models.SavedTimetable, error)
	Get(ctx context.Context, id string) (*dto.SavedTimetableResponse, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id, format string) (*service.ExportFile, error)
}

// TimetableHandler exposes generation and saved timetables.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service timetableService) *TimetableHandler {
	return &TimetableHandler{service: service}
}

// Generate godoc
// @Summary Generate conflict-free weekly timetables
// @Description Returns every found timetable in search order; the first one is the primary suggestion. An empty list means no timetable satisfies the courses under the given preferences.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetablesRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid generation payload"))
		return
	}
	start := time.Now()
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	meta["truncated"] = result.Truncated
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// Save godoc
// @Summary Save a timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Timetable payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid timetable payload"))
		return
	}
	saved, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// List godoc
// @Summary List saved timetables
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Get godoc
// @Summary Get a saved timetable with its sessions
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	tt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tt, nil)
}

// Delete godoc
// @Summary Delete a saved timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download a saved timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
