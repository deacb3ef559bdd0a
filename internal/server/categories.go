package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
)

type createCategoryRequest struct {
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Color     *string `json:"color"`
	SortOrder *int    `json:"sortOrder"`
}

type updateCategoryRequest struct {
	Name      *string `json:"name,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	Color     *string `json:"color,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

func (s *Server) ListCategories(c *gin.Context) {
	resp, err := s.categorySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCategoryByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.categorySvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.categorySvc.Create(c.Request.Context(), categorydomain.CreateRequest{
		Name:      strings.TrimSpace(req.Name),
		Icon:      strings.TrimSpace(req.Icon),
		Color:     trimStringPtr(req.Color),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionCategoryCreate, "category", resp.ID, map[string]any{
		"name": resp.Name,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateCategory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.categorySvc.Update(c.Request.Context(), categorydomain.UpdateRequest{
		ID:        id,
		Name:      trimStringPtr(req.Name),
		Icon:      trimStringPtr(req.Icon),
		Color:     trimStringPtr(req.Color),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionCategoryUpdate, "category", resp.ID, map[string]any{
		"name": resp.Name,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCategory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	deleted, err := s.categorySvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !deleted {
		AbortWithError(c, ErrNotFound)
		return
	}

	s.audit(c, auditdomain.ActionCategoryDelete, "category", id, nil)

	c.Status(http.StatusNoContent)
}
