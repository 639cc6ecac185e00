package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/taskview"
)

type taskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
}

type taskUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	DueDate     *string  `json:"dueDate"`
	TagIDs      []string `json:"tagIds"`
}

// handleListTasks returns every task with its owner projection, newest
// first. The optional status, q and sort query parameters derive a
// filtered, searched and resorted view.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	tasks = taskview.Apply(tasks, c.Query("status"), c.Query("q"), taskview.SortKey(c.Query("sort")))
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task owned by the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if trimEmpty(req.Title) {
		respondValidation(c, "title is required")
		return
	}
	if req.Status != "" {
		if _, ok := models.ValidTaskStatuses[req.Status]; !ok {
			respondValidation(c, "invalid status")
			return
		}
	}
	due, err := parseOptionalDate(req.DueDate)
	if err != nil {
		respondValidation(c, "invalid due date")
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     due,
		UserID:      auth.UserID(c),
	})
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// handleGetTask returns one task with owner projection and resolved tags.
func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask applies a partial update after the not-found and
// ownership checks, in that order.
func (s *Server) handleUpdateTask(c *gin.Context) {
	existing, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "task")
		return
	}
	if existing.UserID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own tasks"})
		return
	}

	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	upd := sqlite.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		TagIDs:      req.TagIDs,
	}
	if req.Title != nil && trimEmpty(*req.Title) {
		respondValidation(c, "title is required")
		return
	}
	if req.Status != nil {
		if _, ok := models.ValidTaskStatuses[*req.Status]; !ok {
			respondValidation(c, "invalid status")
			return
		}
		upd.Status = req.Status
	}
	if req.DueDate != nil {
		upd.SetDueDate = true
		if *req.DueDate != "" {
			due, err := parseOptionalDate(req.DueDate)
			if err != nil {
				respondValidation(c, "invalid due date")
				return
			}
			upd.DueDate = due
		}
	}

	task, err := s.store.UpdateTask(c.Request.Context(), existing.ID, upd)
	if err != nil {
		s.respondStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task after the same check ladder as update.
func (s *Server) handleDeleteTask(c *gin.Context) {
	existing, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err, "task")
		return
	}
	if existing.UserID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own tasks"})
		return
	}

	if err := s.store.DeleteTask(c.Request.Context(), existing.ID); err != nil {
		s.respondStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func trimEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// parseOptionalDate accepts RFC3339 timestamps or bare dates. A nil or
// empty input means no date.
func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, *raw); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", *raw)
}
