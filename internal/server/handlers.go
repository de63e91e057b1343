package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/models"
	"github.com/lumenlabs/brandflow/internal/service"
	"github.com/lumenlabs/brandflow/internal/service/generate"
	"github.com/lumenlabs/brandflow/internal/store"
)

const maxGenerateCount = 4

func currentUser(c *gin.Context) models.User {
	return c.MustGet("user").(models.User)
}

// writeError maps the service error taxonomy onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, generate.ErrAPIKeyRequired), errors.Is(err, generate.ErrAPIKeyInvalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": generate.UserMessage(err),
			"code":  "api_key",
		})
	default:
		s.Logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := s.Auth.Login(req.Code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleLogout(c *gin.Context) {
	s.Auth.Logout(c.GetString("token"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListContent(c *gin.Context) {
	items, err := s.Lifecycle.ListItems(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleGenerateContent(c *gin.Context) {
	var req struct {
		Type         models.ContentType `json:"type"`
		Prompt       string             `json:"prompt"`
		Count        int                `json:"count"`
		StartImageID string             `json:"startImageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if req.Count < 1 {
		req.Count = 1
	}
	if req.Count > maxGenerateCount {
		req.Count = maxGenerateCount
	}

	user := currentUser(c)

	startImageURL := ""
	if req.StartImageID != "" {
		image, err := s.Images.Get(c.Request.Context(), user.ID, req.StartImageID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		startImageURL = image.URL
	}

	items := make([]models.ContentItem, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		item, err := s.Lifecycle.Generate(c.Request.Context(), user.ID, req.Type, req.Prompt, startImageURL)
		if err != nil {
			// Surface the failure; items generated so far are already
			// persisted and returned.
			if len(items) == 0 {
				s.writeError(c, err)
				return
			}
			s.Logger.Warn("Generation batch ended early", zap.Error(err))
			break
		}
		items = append(items, item)
	}

	c.JSON(http.StatusCreated, gin.H{"items": items})
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req struct {
		Status models.ContentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user := currentUser(c)
	id := c.Param("id")

	var (
		item models.ContentItem
		err  error
	)
	switch req.Status {
	case models.StatusApproved:
		item, err = s.Lifecycle.Approve(c.Request.Context(), user.ID, id)
	case models.StatusRejected:
		item, err = s.Lifecycle.Reject(c.Request.Context(), user.ID, id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be approved or rejected"})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) handleSetSchedule(c *gin.Context) {
	var req struct {
		Schedule string `json:"schedule"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	at, err := time.Parse(time.RFC3339, req.Schedule)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schedule must be an RFC3339 timestamp"})
		return
	}

	item, err := s.Lifecycle.SetSchedule(c.Request.Context(), currentUser(c).ID, c.Param("id"), at)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeleteContent(c *gin.Context) {
	if err := s.Lifecycle.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGetContext(c *gin.Context) {
	uc, err := s.Lifecycle.Context(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, uc)
}

func (s *Server) handleSaveContext(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
		Links string `json:"links"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := s.Lifecycle.SaveContext(c.Request.Context(), currentUser(c).ID, req.Notes, req.Links); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListImages(c *gin.Context) {
	images, err := s.Images.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (s *Server) handleAddImage(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	image, err := s.Images.Add(c.Request.Context(), currentUser(c).ID, req.Name, req.URL)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, image)
}

func (s *Server) handleDeleteImage(c *gin.Context) {
	if err := s.Images.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
