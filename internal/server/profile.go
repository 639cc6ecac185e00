package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/models"
)

type profileRequest struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Bio    *string `json:"bio"`
}

// handleGetProfile returns the caller's own projection. A missing row
// means the session outlived the user record.
func (s *Server) handleGetProfile(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.respondStoreError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

// handleUpdateProfile rewrites name, avatar and bio. Empty avatar or bio
// strings clear the stored values.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondValidation(c, "name is required")
		return
	}
	if req.Bio != nil && len(*req.Bio) > models.MaxBioLength {
		respondValidation(c, "bio must be 200 characters or fewer")
		return
	}

	avatar := normalizeOptional(req.Avatar)
	bio := normalizeOptional(req.Bio)

	user, err := s.store.UpdateProfile(c.Request.Context(), auth.UserID(c), req.Name, avatar, bio)
	if err != nil {
		s.respondStoreError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

// normalizeOptional folds empty strings into nil so the store clears the
// column instead of writing "".
func normalizeOptional(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
