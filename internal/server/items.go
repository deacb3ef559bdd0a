package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
)

type createRateItemRequest struct {
	CategoryID string           `json:"categoryId"`
	Name       string           `json:"name"`
	Rate       *decimal.Decimal `json:"rate"`
	Unit       string           `json:"unit"`
	Notes      *string          `json:"notes"`
}

type updateRateItemRequest struct {
	CategoryID string           `json:"categoryId"`
	Name       *string          `json:"name,omitempty"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
	Unit       *string          `json:"unit,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

func (s *Server) ListCategoryItems(c *gin.Context) {
	categoryID := strings.TrimSpace(c.Param("id"))
	resp, err := s.rateItemSvc.ListByCategory(c.Request.Context(), categoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetItemRate answers "what was the rate on this day"; without a date the
// current local day is used.
func (s *Server) GetItemRate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = ratehistory.Today(s.clock.Now(), s.cfg.Location()).String()
	}

	resp, err := s.rateItemSvc.RateForDate(c.Request.Context(), id, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateRateItem(c *gin.Context) {
	var req createRateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rateItemSvc.Create(c.Request.Context(), rateitemdomain.CreateRequest{
		CategoryID: strings.TrimSpace(req.CategoryID),
		Name:       strings.TrimSpace(req.Name),
		Rate:       req.Rate,
		Unit:       strings.TrimSpace(req.Unit),
		Notes:      req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionItemCreate, "rate_item", resp.ID, map[string]any{
		"category_id": resp.CategoryID,
		"rate":        resp.Rate.String(),
		"unit":        resp.Unit,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateRateItem(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req updateRateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rateItemSvc.Update(c.Request.Context(), rateitemdomain.UpdateRequest{
		ID:         id,
		CategoryID: strings.TrimSpace(req.CategoryID),
		Name:       trimStringPtr(req.Name),
		Rate:       req.Rate,
		Unit:       trimStringPtr(req.Unit),
		Notes:      req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	metadata := map[string]any{"category_id": resp.CategoryID}
	if req.Rate != nil {
		metadata["rate"] = resp.Rate.String()
	}
	s.audit(c, auditdomain.ActionItemUpdate, "rate_item", resp.ID, metadata)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRateItem(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	deleted, err := s.rateItemSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !deleted {
		AbortWithError(c, ErrNotFound)
		return
	}

	s.audit(c, auditdomain.ActionItemDelete, "rate_item", id, nil)

	c.Status(http.StatusNoContent)
}
