package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-planner-api/internal/dto"
	"github.com/noah-isme/timetable-planner-api/internal/models"
	appErrors "github.com/noah-isme/timetable-planner-api/pkg/errors"
	"github.com/noah-isme/timetable-planner-api/pkg/response"
)

type preferenceService interface {
	List(ctx context.Context) ([]models.Preference, error)
	Create(ctx context.Context, req dto.CreatePreferenceRequest) (*models.Preference, error)
	Update(ctx context.Context, id string, req dto.UpdatePreferenceRequest) (*models.Preference, error)
	Delete(ctx context.Context, id string) error
}

// PreferenceHandler manages stored free-day and avoid-window rules.
type PreferenceHandler struct {
	service preferenceService
}

// NewPreferenceHandler constructs the handler.
func NewPreferenceHandler(service preferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// List godoc
// @Summary List stored preferences
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /preferences [get]
func (h *PreferenceHandler) List(c *gin.Context) {
	prefs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Create godoc
// @Summary Add a preference
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.CreatePreferenceRequest true "Preference payload"
// @Success 201 {object} response.Envelope
// @Router /preferences [post]
func (h *PreferenceHandler) Create(c *gin.Context) {
	var req dto.CreatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid preference payload"))
		return
	}
	pref, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pref)
}

// Update godoc
// @Summary Toggle a preference or change its priority
// @Tags Preferences
// @Accept json
// @Produce json
// @Param id path string true "Preference ID"
// @Param payload body dto.UpdatePreferenceRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /preferences/{id} [patch]
func (h *PreferenceHandler) Update(c *gin.Context) {
	var req dto.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid preference payload"))
		return
	}
	pref, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Delete godoc
// @Summary Delete a preference
// @Tags Preferences
// @Param id path string true "Preference ID"
// @Success 204
// @Router /preferences/{id} [delete]
func (h *PreferenceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
