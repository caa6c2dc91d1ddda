package categories

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"comichub/internal/auth"
	"comichub/pkg/httperr"
	"comichub/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Tokens auth.TokenService
	Users  *auth.Repo
}

func NewHandler(repo *Repo, tokens auth.TokenService, users *auth.Repo) *Handler {
	return &Handler{Repo: repo, Tokens: tokens, Users: users}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", auth.RequireAuth(h.Tokens, h.Users), auth.RequireAdmin(), h.create)
}

func (h *Handler) list(c *gin.Context) {
	cats, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, cats)
}

type createReq struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	cat, err := h.Repo.Create(c.Request.Context(), models.Category{ID: uuid.NewString(), Name: name})
	if err != nil {
		if errors.Is(err, httperr.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}
