package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/internal/service"
	"github.com/noah-isme/turmas-api/pkg/response"
)

type sectionService interface {
	List(ctx context.Context) ([]models.ClassSection, error)
	Get(ctx context.Context, id string) (*models.ClassSection, error)
	CountAndCapacity(ctx context.Context, id string) (*models.SeatSummary, error)
	Create(ctx context.Context, req service.CreateSectionRequest) (*models.ClassSection, error)
	Update(ctx context.Context, id string, req service.UpdateSectionRequest) (*models.ClassSection, error)
	Delete(ctx context.Context, id string) error
	RemoveStudent(ctx context.Context, sectionID, userID string) (*models.ClassSection, error)
}

type rosterExporter interface {
	Export(ctx context.Context, sectionID, format string) (*service.RosterFile, error)
}

// SectionHandler manages class sections.
type SectionHandler struct {
	service sectionService
	roster  rosterExporter
}

// NewSectionHandler constructs a SectionHandler.
func NewSectionHandler(svc sectionService, roster rosterExporter) *SectionHandler {
	return &SectionHandler{service: svc, roster: roster}
}

// List godoc
// @Summary List sections
// @Description List every class section in storage order
// @Tags Sections
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, map[string]interface{}{"total": len(sections)})
}

// Get godoc
// @Summary Get section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

// Seats godoc
// @Summary Seat summary
// @Description Enrolled count, open vacancies and total capacity of a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/seats [get]
func (h *SectionHandler) Seats(c *gin.Context) {
	summary, err := h.service.CountAndCapacity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Create godoc
// @Summary Create section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Update godoc
// @Summary Update section
// @Description Merge the supplied fields into a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.UpdateSectionRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id} [put]
func (h *SectionHandler) Update(c *gin.Context) {
	var req service.UpdateSectionRequest
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

// Delete godoc
// @Summary Delete section
// @Description Deleting an unknown section succeeds
// @Tags Sections
// @Param id path string true "Section ID"
// @Success 204
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveStudent godoc
// @Summary Remove student
// @Description Take a student off the roster freeing a vacancy
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Param email path string true "Student email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/students/{email} [delete]
func (h *SectionHandler) RemoveStudent(c *gin.Context) {
	section, err := h.service.RemoveStudent(c.Request.Context(), c.Param("id"), models.NormalizeEmail(c.Param("email")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

// Roster godoc
// @Summary Export roster
// @Tags Sections
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Section ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/roster [get]
func (h *SectionHandler) Roster(c *gin.Context) {
	file, err := h.roster.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
