package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/taxonomy-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/taxonomy-service/internal/app"
	"github.com/jsamuelsen/taxonomy-service/internal/domain"
)

// VocabularyHandler handles vocabulary-level HTTP endpoints.
type VocabularyHandler struct {
	service *app.TaxonomyService
}

// NewVocabularyHandler creates a new vocabulary handler.
func NewVocabularyHandler(service *app.TaxonomyService) *VocabularyHandler {
	return &VocabularyHandler{
		service: service,
	}
}

// CreateVocabularyRequest is the request body for creating a vocabulary.
type CreateVocabularyRequest struct {
	Name string `json:"name" validate:"required,notempty"`
}

// VocabularyResponse is the HTTP response structure for a vocabulary.
type VocabularyResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	TermCount *int64 `json:"termCount,omitempty"`
}

func toVocabularyResponse(v *domain.Vocabulary) *VocabularyResponse {
	return &VocabularyResponse{
		ID:   v.ID,
		Name: v.Name,
	}
}

func toVocabularySummaryResponse(s app.VocabularySummary) VocabularyResponse {
	count := s.TermCount

	return VocabularyResponse{
		ID:        s.ID,
		Name:      s.Name,
		TermCount: &count,
	}
}

// CreateVocabulary handles POST /api/v1/vocabularies
// Creates a new vocabulary with a globally unique name.
//
// @Summary Create a vocabulary
// @Tags vocabularies
// @Accept json
// @Produce json
// @Success 201 {object} VocabularyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/vocabularies [post]
func (h *VocabularyHandler) CreateVocabulary(c *gin.Context) {
	var req CreateVocabularyRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrorCodeValidation,
			"request validation failed",
			dto.ValidationErrors(err),
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	vocab, err := h.service.CreateVocabulary(c.Request.Context(), req.Name)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toVocabularyResponse(vocab))
}

// ListVocabularies handles GET /api/v1/vocabularies
// Returns all vocabularies with their term counts.
//
// @Summary List vocabularies
// @Tags vocabularies
// @Produce json
// @Success 200 {array} VocabularyResponse
// @Router /api/v1/vocabularies [get]
func (h *VocabularyHandler) ListVocabularies(c *gin.Context) {
	summaries, err := h.service.ListVocabularies(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	responses := make([]VocabularyResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, toVocabularySummaryResponse(summary))
	}

	c.JSON(http.StatusOK, responses)
}

// DeleteVocabulary handles DELETE /api/v1/vocabularies/:name
// Deletes the named vocabulary and all its terms.
//
// @Summary Delete a vocabulary by name
// @Tags vocabularies
// @Param name path string true "Vocabulary name"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/vocabularies/{name} [delete]
func (h *VocabularyHandler) DeleteVocabulary(c *gin.Context) {
	name := c.Param("name")

	deleted, err := h.service.DeleteVocabulary(c.Request.Context(), name)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if !deleted {
		dto.HandleError(c, domain.NewNotFoundError("vocabulary", name))
		return
	}

	c.Status(http.StatusNoContent)
}

// TermOptionResponse is one entry of a flattened term tree.
type TermOptionResponse struct {
	TermID int64  `json:"termId"`
	Label  string `json:"label"`
}

// GetOptions handles GET /api/v1/vocabularies/:name/options
// Returns the vocabulary's term tree flattened into display order, with
// nested term labels prefixed by one dash per depth level. An unknown
// vocabulary name yields an empty list.
//
// @Summary Flatten a vocabulary's term tree into options
// @Tags vocabularies
// @Param name path string true "Vocabulary name"
// @Produce json
// @Success 200 {array} TermOptionResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/vocabularies/{name}/options [get]
func (h *VocabularyHandler) GetOptions(c *gin.Context) {
	options, err := h.service.OptionsByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	responses := make([]TermOptionResponse, 0, len(options))
	for _, option := range options {
		responses = append(responses, TermOptionResponse{
			TermID: option.TermID,
			Label:  option.Label,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// RegisterVocabularyRoutes registers vocabulary routes on the given router group.
func (h *VocabularyHandler) RegisterVocabularyRoutes(rg *gin.RouterGroup) {
	vocabularies := rg.Group("/vocabularies")
	vocabularies.POST("", h.CreateVocabulary)
	vocabularies.GET("", h.ListVocabularies)
	vocabularies.DELETE("/:name", h.DeleteVocabulary)
	vocabularies.GET("/:name/options", h.GetOptions)
}
