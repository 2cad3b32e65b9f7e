package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
	"github.com/noah-isme/timetable-planner-api/pkg/response"
)

type courseService interface {
	CreateOrReplace(ctx context.Context, id string, req dto.UpsertCourseRequest) (*models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, query dto.CourseQuery) (*dto.CourseList, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, courses, sessions io.Reader) (*dto.ImportResult, error)
}

// CourseHandler exposes the course catalog.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param search query string false "Substring of the course id or name"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var query dto.CourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	list, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &response.Pagination{
		Page:       list.Page,
		PageSize:   list.PageSize,
		TotalCount: list.Total,
	})
}

// Get godoc
// @Summary Get course with its sessions
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Put godoc
// @Summary Create or replace a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body dto.UpsertCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Put(c *gin.Context) {
	var req dto.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid course payload"))
		return
	}
	course, err := h.service.CreateOrReplace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a course and its sessions
// @Tags Catalog
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import the catalog from course and session CSV files
// @Tags Catalog
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param courses formData file true "Course CSV"
// @Param sessions formData file true "Session CSV"
// @Success 201 {object} response.Envelope
// @Router /courses/import [post]
func (h *CourseHandler) Import(c *gin.Context) {
	courses, err := formFile(c, "courses")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer courses.Close()
	sessions, err := formFile(c, "sessions")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer sessions.Close()

	result, err := h.service.Import(c.Request.Context(), courses, sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func formFile(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, appErrors.Validation(err, field+" file is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Validation(err, "cannot read "+field+" file")
	}
	return file, nil
}
