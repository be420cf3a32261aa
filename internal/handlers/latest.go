package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buildgrid/catalog-backend/internal/pkg/apierr"
	"github.com/buildgrid/catalog-backend/internal/repos"
	"github.com/buildgrid/catalog-backend/internal/services"
	"github.com/buildgrid/catalog-backend/internal/types"
)

type LatestHandler struct {
	latestService services.LatestService
	taxonomyRepo  repos.TaxonomyRepo
}

func NewLatestHandler(latestService services.LatestService, taxonomyRepo repos.TaxonomyRepo) *LatestHandler {
	return &LatestHandler{latestService: latestService, taxonomyRepo: taxonomyRepo}
}

type latestQueryParams struct {
	ScopeType              string `form:"scope_type" json:"scope_type" binding:"required"`
	Ofuri                  string `form:"ofuri" json:"ofuri" binding:"required"`
	Type                   string `form:"type" json:"type" binding:"required"`
	Namespace              string `form:"namespace" json:"namespace" binding:"required"`
	Name                   string `form:"name" json:"name" binding:"required"`
	Arch                   string `form:"arch" json:"arch" binding:"required"`
	IncludeInactiveStreams bool   `form:"include_inactive_streams" json:"include_inactive_streams"`
}

func (p latestQueryParams) toQuery() services.LatestQuery {
	return services.LatestQuery{
		ScopeType:              types.ScopeType(p.ScopeType),
		ScopeOfuri:             p.Ofuri,
		ComponentType:          types.ComponentType(p.Type),
		Namespace:              types.Namespace(p.Namespace),
		Name:                   p.Name,
		Arch:                   p.Arch,
		IncludeInactiveStreams: p.IncludeInactiveStreams,
	}
}

type latestResultPayload struct {
	ID    string `json:"id,omitempty"`
	Found bool   `json:"found"`
}

func (lh *LatestHandler) GetLatest(c *gin.Context) {
	var params latestQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}

	id, found, err := lh.latestService.ResolveLatest(c.Request.Context(), params.toQuery())
	if err != nil {
		respondResolveError(c, err)
		return
	}
	if !found {
		lh.respondNotFound(c, params.toQuery())
		return
	}
	RespondOK(c, latestResultPayload{ID: id.String(), Found: true})
}

type latestBatchRequest struct {
	Queries []latestQueryParams `json:"queries" binding:"required,min=1,dive"`
}

type latestBatchResultPayload struct {
	Query latestQueryParams   `json:"query"`
	ID    string              `json:"id,omitempty"`
	Found bool                `json:"found"`
}

func (lh *LatestHandler) GetLatestBatch(c *gin.Context) {
	var req latestBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	queries := make([]services.LatestQuery, len(req.Queries))
	for i, p := range req.Queries {
		queries[i] = p.toQuery()
	}

	results, err := lh.latestService.ResolveLatestBatch(c.Request.Context(), queries)
	if err != nil {
		respondResolveError(c, err)
		return
	}

	payload := make([]latestBatchResultPayload, len(results))
	for i, r := range results {
		payload[i] = latestBatchResultPayload{Query: req.Queries[i], Found: r.Found}
		if r.Found {
			payload[i].ID = r.ID.String()
		}
	}
	RespondOK(c, gin.H{"results": payload})
}

// respondNotFound distinguishes an unknown scope from a component missing
// within a known scope.
func (lh *LatestHandler) respondNotFound(c *gin.Context, q services.LatestQuery) {
	exists, err := lh.taxonomyRepo.ScopeExists(c.Request.Context(), nil, q.Scope())
	if err == nil && !exists {
		RespondError(c, http.StatusNotFound, "scope_not_found", errors.New("no taxonomy node with that ofuri"))
		return
	}
	RespondError(c, http.StatusNotFound, "component_not_found", errors.New("component does not exist in this scope"))
}

// respondResolveError maps contract violations to client errors and
// everything else (storage failures included) to a server error.
func respondResolveError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		RespondError(c, ae.Status, ae.Code, err)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "storage_failure", err)
}
