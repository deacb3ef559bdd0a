package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	notedomain "github.com/smallbiznis/scraprates/internal/note/domain"
)

type createNoteRequest struct {
	Content  string `json:"content"`
	IsActive *bool  `json:"isActive"`
}

type updateNoteRequest struct {
	Content  *string `json:"content,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (s *Server) ListActiveNotes(c *gin.Context) {
	resp, err := s.noteSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNotes(c *gin.Context) {
	resp, err := s.noteSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.noteSvc.Create(c.Request.Context(), notedomain.CreateRequest{
		Content:  strings.TrimSpace(req.Content),
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionNoteCreate, "note", resp.ID, map[string]any{
		"is_active": resp.IsActive,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.noteSvc.Update(c.Request.Context(), notedomain.UpdateRequest{
		ID:       id,
		Content:  trimStringPtr(req.Content),
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionNoteUpdate, "note", resp.ID, map[string]any{
		"is_active": resp.IsActive,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	deleted, err := s.noteSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !deleted {
		AbortWithError(c, ErrNotFound)
		return
	}

	s.audit(c, auditdomain.ActionNoteDelete, "note", id, nil)

	c.Status(http.StatusNoContent)
}
