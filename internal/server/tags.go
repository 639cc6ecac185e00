package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/models"
)

type tagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// handleListTags returns the caller's tags ordered by name.
func (s *Server) handleListTags(c *gin.Context) {
	tags, err := s.store.ListTags(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// handleCreateTag creates a label scoped to the caller.
func (s *Server) handleCreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if req.Name == nil || trimEmpty(*req.Name) {
		respondValidation(c, "tag name is required")
		return
	}

	tag := models.Tag{Name: *req.Name, UserID: auth.UserID(c)}
	if req.Color != nil {
		if _, ok := models.ValidTagColors[*req.Color]; !ok {
			respondValidation(c, "invalid tag color")
			return
		}
		tag.Color = *req.Color
	}

	created, err := s.store.CreateTag(c.Request.Context(), tag)
	if err != nil {
		s.respondStoreError(c, err, "tag")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tag": created})
}

// handleUpdateTag renames or recolors a tag after the not-found and
// ownership checks.
func (s *Server) handleUpdateTag(c *gin.Context) {
	existing, err := s.store.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "tag")
		return
	}
	if existing.UserID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own tags"})
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if req.Name != nil && trimEmpty(*req.Name) {
		respondValidation(c, "tag name is required")
		return
	}
	if req.Color != nil {
		if _, ok := models.ValidTagColors[*req.Color]; !ok {
			respondValidation(c, "invalid tag color")
			return
		}
	}

	tag, err := s.store.UpdateTag(c.Request.Context(), existing.ID, req.Name, req.Color)
	if err != nil {
		s.respondStoreError(c, err, "tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// handleDeleteTag removes a tag; the join-table cascade strips it from
// any task that carried it.
func (s *Server) handleDeleteTag(c *gin.Context) {
	existing, err := s.store.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "tag")
		return
	}
	if existing.UserID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own tags"})
		return
	}

	if err := s.store.DeleteTag(c.Request.Context(), existing.ID); err != nil {
		s.respondStoreError(c, err, "tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
