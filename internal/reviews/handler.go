package reviews

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

// RegisterComicRoutes hangs listing/creation off the comics group.
func (h *Handler) RegisterComicRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/reviews", h.listByComic)
	rg.POST("/:id/reviews", auth.RequireAuth(h.Tokens, h.Users), h.create)
}

// RegisterRoutes covers the top-level review actions.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/:reviewId", auth.RequireAuth(h.Tokens, h.Users), h.delete)
}

func (h *Handler) listByComic(c *gin.Context) {
	reviews, err := h.Repo.ListByComic(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

type createReq struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) create(c *gin.Context) {
	u := auth.CurrentUser(c)
	comicID := c.Param("id")

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	// presence only; the 1-5 range is a client convention
	if req.Rating == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating required"})
		return
	}

	ok, err := h.Repo.ComicExists(c.Request.Context(), comicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	review := models.Review{
		ID:      uuid.NewString(),
		ComicID: comicID,
		UserID:  u.ID,
		Rating:  *req.Rating,
		Comment: strings.TrimSpace(req.Comment),
	}

	created, err := h.Repo.Create(c.Request.Context(), review)
	if err != nil || created == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) delete(c *gin.Context) {
	u := auth.CurrentUser(c)

	review, err := h.Repo.GetByID(c.Request.Context(), c.Param("reviewId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if review == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}
	if review.UserID != u.ID && u.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner of this review"})
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), review.ID); err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}
