package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const minPasswordLength = 8

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates an account and opens a session for it.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondValidation(c, "name, email and password are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondValidation(c, "password must be at least 8 characters")
		return
	}

	hash, err := s.sessions.HashPassword(req.Password)
	if err != nil {
		s.respondInternal(c, err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), req.Name, req.Email, hash)
	if err != nil {
		s.respondStoreError(c, err, "email")
		return
	}

	token, err := s.sessions.IssueToken(user.ID)
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user.Profile()})
}

// handleLogin verifies credentials and opens a session. Bad email and bad
// password produce the same response.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !s.sessions.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.sessions.IssueToken(user.ID)
	if err != nil {
		s.respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Profile()})
}
