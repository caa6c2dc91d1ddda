package comics

import (
	"errors"
	"math"
	"net/http"
	"strconv"
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
	optional := auth.OptionalAuth(h.Tokens, h.Users)
	required := auth.RequireAuth(h.Tokens, h.Users)

	rg.GET("", optional, h.list)
	rg.GET("/:id", optional, h.getByID)
	rg.POST("", required, h.create)
	rg.PUT("/:id", required, h.update)
	rg.DELETE("/:id", required, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Page:       parseInt(c.Query("page"), 1),
		Limit:      parseInt(c.Query("limit"), 10),
		SearchTerm: c.Query("searchTerm"),
		CategoryID: c.Query("categoryId"),
		Sort:       c.Query("sort"),
		AuthorID:   c.Query("authorId"),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 10
	}

	if s := c.Query("status"); s != "" {
		if !models.ValidComicStatus(s) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be ONGOING or COMPLETED"})
			return
		}
		q.Status = s
	}
	if v := c.Query("visibility"); v != "" {
		if !models.ValidVisibility(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "visibility must be PRIVATE or PUBLIC"})
			return
		}
		q.Visibility = v
	}
	if u := auth.CurrentUser(c); u != nil {
		q.CurrentUserID = u.ID
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": items,
		"pagination": models.Pagination{
			TotalComics: total,
			TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
			CurrentPage: q.Page,
			Limit:       q.Limit,
		},
	})
}

func (h *Handler) getByID(c *gin.Context) {
	m, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil || !canSeeComic(auth.CurrentUser(c), m) {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// canSeeComic hides private comics from everyone but the author and admins.
func canSeeComic(u *models.User, m *models.Comic) bool {
	if m.Visibility == models.VisibilityPublic {
		return true
	}
	return u != nil && (u.ID == m.AuthorID || u.Role == models.RoleAdmin)
}

type createReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CoverImage  string   `json:"coverImage"`
	Status      string   `json:"status"`
	Visibility  string   `json:"visibility"`
	CategoryIDs []string `json:"categoryIds"`
}

func (h *Handler) create(c *gin.Context) {
	u := auth.CurrentUser(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	if req.Status == "" {
		req.Status = models.ComicOngoing
	}
	if !models.ValidComicStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be ONGOING or COMPLETED"})
		return
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}
	if !models.ValidVisibility(req.Visibility) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visibility must be PRIVATE or PUBLIC"})
		return
	}

	m := models.Comic{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Status:      req.Status,
		Visibility:  req.Visibility,
		AuthorID:    u.ID,
	}

	if err := h.Repo.Create(c.Request.Context(), m, req.CategoryIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	created, err := h.Repo.GetByID(c.Request.Context(), m.ID)
	if err != nil || created == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type updateReq struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CoverImage  *string  `json:"coverImage"`
	Status      *string  `json:"status"`
	Visibility  *string  `json:"visibility"`
	CategoryIDs []string `json:"categoryIds"`
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	if !h.requireAuthor(c, id) {
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Status != nil && !models.ValidComicStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be ONGOING or COMPLETED"})
		return
	}
	if req.Visibility != nil && !models.ValidVisibility(*req.Visibility) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visibility must be PRIVATE or PUBLIC"})
		return
	}

	upd := ComicUpdate{
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Status:      req.Status,
		Visibility:  req.Visibility,
		CategoryIDs: req.CategoryIDs,
	}
	if err := h.Repo.Update(c.Request.Context(), id, upd); err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	updated, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil || updated == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if !h.requireAuthor(c, id) {
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comic deleted"})
}

// requireAuthor writes the error response itself and reports whether the
// caller may mutate the comic.
func (h *Handler) requireAuthor(c *gin.Context, comicID string) bool {
	u := auth.CurrentUser(c)

	authorID, err := h.Repo.GetAuthorID(c.Request.Context(), comicID)
	if err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "author check failed"})
		}
		return false
	}
	if u.ID != authorID && u.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author of this comic"})
		return false
	}
	return true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
