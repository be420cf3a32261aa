package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildgrid/catalog-backend/internal/repos"
)

type ComponentHandler struct {
	componentRepo repos.ComponentRepo
}

func NewComponentHandler(componentRepo repos.ComponentRepo) *ComponentHandler {
	return &ComponentHandler{componentRepo: componentRepo}
}

func (ch *ComponentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	component, err := ch.componentRepo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "component_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "storage_failure", err)
		return
	}
	RespondOK(c, gin.H{"component": component, "nevra": component.NEVRA()})
}
