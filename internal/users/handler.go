package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"comichub/internal/auth"
	"comichub/pkg/httperr"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes expects a group that already requires authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me", h.updateMe)
}

func (h *Handler) me(c *gin.Context) {
	u := auth.CurrentUser(c)

	profile, err := h.Repo.GetByID(c.Request.Context(), u.ID)
	if err != nil || profile == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get profile failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateReq struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) updateMe(c *gin.Context) {
	u := auth.CurrentUser(c)

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must not be empty"})
		return
	}

	if err := h.Repo.Update(c.Request.Context(), u.ID, ProfileUpdate{Username: req.Username, Avatar: req.Avatar}); err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	updated, err := h.Repo.GetByID(c.Request.Context(), u.ID)
	if err != nil || updated == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
