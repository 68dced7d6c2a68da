package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/taxonomy-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/taxonomy-service/internal/app"
	"github.com/jsamuelsen/taxonomy-service/internal/domain"
)

// TermHandler handles term-level HTTP endpoints.
type TermHandler struct {
	service *app.TaxonomyService
}

// NewTermHandler creates a new term handler.
func NewTermHandler(service *app.TaxonomyService) *TermHandler {
	return &TermHandler{
		service: service,
	}
}

// CreateTermRequest is the request body for creating a term.
// ParentID and Weight are optional; absent values default to a root term
// with weight zero.
type CreateTermRequest struct {
	Name     string `json:"name" validate:"required,notempty"`
	ParentID *int64 `json:"parentId" validate:"omitempty,gte=0"`
	Weight   *int   `json:"weight"`
}

// TermResponse is the HTTP response structure for a term.
type TermResponse struct {
	ID           int64  `json:"id"`
	VocabularyID int64  `json:"vocabularyId"`
	Name         string `json:"name"`
	ParentID     int64  `json:"parentId"`
	Weight       int    `json:"weight"`
}

func toTermResponse(t *domain.Term) *TermResponse {
	return &TermResponse{
		ID:           t.ID,
		VocabularyID: t.VocabularyID,
		Name:         t.Name,
		ParentID:     t.ParentID,
		Weight:       t.Weight,
	}
}

func toTermResponses(terms []domain.Term) []TermResponse {
	responses := make([]TermResponse, 0, len(terms))
	for i := range terms {
		responses = append(responses, *toTermResponse(&terms[i]))
	}

	return responses
}

// listTermsQuery binds the query string of the terms listing endpoint.
type listTermsQuery struct {
	dto.PaginationRequest
	Parent        string `form:"parent"`
	IncludeParent bool   `form:"includeParent"`
}

// CreateTerm handles POST /api/v1/vocabularies/:name/terms
// Creates a term in the named vocabulary. Parent and weight default to
// root and zero.
//
// @Summary Create a term
// @Tags terms
// @Accept json
// @Produce json
// @Param name path string true "Vocabulary name"
// @Success 201 {object} TermResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/vocabularies/{name}/terms [post]
func (h *TermHandler) CreateTerm(c *gin.Context) {
	var req CreateTermRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrorCodeValidation,
			"request validation failed",
			dto.ValidationErrors(err),
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	term, err := h.service.CreateTerm(
		c.Request.Context(),
		domain.VocabularyByName(c.Param("name")),
		domain.TermFields{Name: req.Name, ParentID: req.ParentID, Weight: req.Weight},
	)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTermResponse(term))
}

// ListTerms handles GET /api/v1/vocabularies/:name/terms
// Without a parent filter it pages through every term of the vocabulary in
// identifier order. With ?parent=NAME it returns the direct children of the
// named anchor term in weight order; ?includeParent=true appends the anchor
// itself after its children.
//
// @Summary List a vocabulary's terms
// @Tags terms
// @Produce json
// @Param name path string true "Vocabulary name"
// @Param parent query string false "Anchor term name"
// @Param includeParent query bool false "Append the anchor term"
// @Param cursor query string false "Pagination cursor"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[TermResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/vocabularies/{name}/terms [get]
func (h *TermHandler) ListTerms(c *gin.Context) {
	var query listTermsQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrorCodeValidation,
			"request validation failed",
			dto.ValidationErrors(err),
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	ref := domain.VocabularyByName(c.Param("name"))

	if query.Parent != "" {
		terms, err := h.service.Terms(c.Request.Context(), ref, app.TermsQuery{
			Parent:        query.Parent,
			IncludeParent: query.IncludeParent,
		})
		if err != nil {
			dto.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, toTermResponses(terms))

		return
	}

	afterID, err := decodeTermCursor(&query.PaginationRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrorCodeBadRequest,
			"invalid pagination cursor",
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	limit := query.GetLimit()

	// Fetch one extra row to detect whether another page exists.
	terms, err := h.service.TermsPage(c.Request.Context(), ref, afterID, limit+1)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(
		toTermResponses(terms),
		limit,
		func(t TermResponse) *dto.CursorData {
			id := strconv.FormatInt(t.ID, 10)
			return dto.NewCursor("id", id, id)
		},
	))
}

// decodeTermCursor extracts the exclusive lower-bound term ID from the
// request cursor. An absent cursor starts from the beginning.
func decodeTermCursor(p *dto.PaginationRequest) (int64, error) {
	cursor, err := p.DecodeCursor()
	if err != nil {
		if errors.Is(err, dto.ErrNoCursor) {
			return 0, nil
		}

		return 0, err
	}

	return strconv.ParseInt(cursor.Value, 10, 64)
}

// GetTermNames handles GET /api/v1/vocabularies/:name/terms/names
// Returns a mapping from term ID to term name for every term in the
// vocabulary. An unknown vocabulary yields an empty map.
//
// @Summary Map term identifiers to names
// @Tags terms
// @Produce json
// @Param name path string true "Vocabulary name"
// @Success 200 {object} map[int64]string
// @Router /api/v1/vocabularies/{name}/terms/names [get]
func (h *TermHandler) GetTermNames(c *gin.Context) {
	names, err := h.service.TermNamesByID(c.Request.Context(), domain.VocabularyByName(c.Param("name")))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, names)
}

// GetTermByName handles GET /api/v1/vocabularies/:name/terms/:termName
// Returns the first term in the vocabulary whose name matches exactly.
//
// @Summary Get a term by name
// @Tags terms
// @Produce json
// @Param name path string true "Vocabulary name"
// @Param termName path string true "Term name"
// @Success 200 {object} TermResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/vocabularies/{name}/terms/{termName} [get]
func (h *TermHandler) GetTermByName(c *gin.Context) {
	term, err := h.service.GetTerm(
		c.Request.Context(),
		domain.VocabularyByName(c.Param("name")),
		c.Param("termName"),
	)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTermResponse(term))
}

// GetTermRoot handles GET /api/v1/terms/:id/root
// Walks parent references upward and returns the tree root of the term.
//
// @Summary Get the tree root of a term
// @Tags terms
// @Produce json
// @Param id path int true "Term ID"
// @Success 200 {object} TermResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/terms/{id}/root [get]
func (h *TermHandler) GetTermRoot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrorCodeBadRequest,
			"term ID must be an integer",
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	root, err := h.service.RootOfID(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTermResponse(root))
}

// RegisterTermRoutes registers term routes on the given router group.
func (h *TermHandler) RegisterTermRoutes(rg *gin.RouterGroup) {
	terms := rg.Group("/vocabularies/:name/terms")
	terms.POST("", h.CreateTerm)
	terms.GET("", h.ListTerms)
	terms.GET("/names", h.GetTermNames)
	terms.GET("/:termName", h.GetTermByName)

	rg.GET("/terms/:id/root", h.GetTermRoot)
}
