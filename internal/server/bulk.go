package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

type bulkUpdateRequest struct {
	TaskIDs []string    `json:"taskIds"`
	Updates bulkUpdates `json:"updates"`
}

type bulkUpdates struct {
	Status    *string  `json:"status"`
	DueDate   *string  `json:"dueDate"`
	AddTagIDs []string `json:"addTagIds"`
}

func (u bulkUpdates) empty() bool {
	return u.Status == nil && u.DueDate == nil && len(u.AddTagIDs) == 0
}

type bulkDeleteRequest struct {
	TaskIDs []string `json:"taskIds"`
}

// verifyBulkOwnership refuses the whole batch unless every supplied id
// names a task owned by the caller. Nothing is mutated on failure.
func (s *Server) verifyBulkOwnership(c *gin.Context, ids []string, userID string) bool {
	owned, err := s.store.CountOwnedTasks(c.Request.Context(), ids, userID)
	if err != nil {
		s.respondInternal(c, err)
		return false
	}
	if owned != len(ids) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only modify your own tasks"})
		return false
	}
	return true
}

// handleBulkUpdateTasks mutates a batch of owned tasks. With addTagIds
// present the supplied tags are unioned into each task's set; otherwise
// status and due date are overwritten uniformly.
func (s *Server) handleBulkUpdateTasks(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if len(req.TaskIDs) == 0 {
		respondValidation(c, "taskIds are required")
		return
	}
	if req.Updates.empty() {
		respondValidation(c, "updates are required")
		return
	}

	userID := auth.UserID(c)
	if !s.verifyBulkOwnership(c, req.TaskIDs, userID) {
		return
	}

	if len(req.Updates.AddTagIDs) > 0 {
		if err := s.store.AddTagsToTasks(c.Request.Context(), req.TaskIDs, req.Updates.AddTagIDs, userID); err != nil {
			s.respondInternal(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(req.TaskIDs)})
		return
	}

	upd := sqlite.BulkUpdate{}
	if req.Updates.Status != nil {
		if _, ok := models.ValidTaskStatuses[*req.Updates.Status]; !ok {
			respondValidation(c, "invalid status")
			return
		}
		upd.Status = req.Updates.Status
	}
	if req.Updates.DueDate != nil {
		upd.SetDueDate = true
		if *req.Updates.DueDate != "" {
			due, err := parseOptionalDate(req.Updates.DueDate)
			if err != nil {
				respondValidation(c, "invalid due date")
				return
			}
			upd.DueDate = due
		}
	}

	count, err := s.store.UpdateTasks(c.Request.Context(), req.TaskIDs, userID, upd)
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// handleBulkDeleteTasks removes a batch of owned tasks in one statement.
func (s *Server) handleBulkDeleteTasks(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if len(req.TaskIDs) == 0 {
		respondValidation(c, "taskIds are required")
		return
	}

	userID := auth.UserID(c)
	if !s.verifyBulkOwnership(c, req.TaskIDs, userID) {
		return
	}

	count, err := s.store.DeleteTasks(c.Request.Context(), req.TaskIDs, userID)
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
