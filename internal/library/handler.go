package library

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"comichub/internal/auth"
	"comichub/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes expects a group that already requires authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.upsert)
	rg.PUT("/progress", h.updateProgress)
}

func (h *Handler) list(c *gin.Context) {
	u := auth.CurrentUser(c)

	status := strings.TrimSpace(c.Query("status"))
	if status != "" && !models.ValidReadingStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be NOT_STARTED, READING or FINISHED"})
		return
	}

	var isFavorited *bool
	switch c.Query("isFavorited") {
	case "":
	case "true":
		v := true
		isFavorited = &v
	case "false":
		v := false
		isFavorited = &v
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "isFavorited must be true or false"})
		return
	}

	entries, err := h.Repo.List(c.Request.Context(), u.ID, status, isFavorited)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

type upsertReq struct {
	ComicID     string  `json:"comicId"`
	IsFavorited *bool   `json:"isFavorited"`
	Status      *string `json:"status"`
}

func (h *Handler) upsert(c *gin.Context) {
	u := auth.CurrentUser(c)

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	comicID := strings.TrimSpace(req.ComicID)
	if comicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comicId required"})
		return
	}
	if req.Status != nil && !models.ValidReadingStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be NOT_STARTED, READING or FINISHED"})
		return
	}

	ok, err := h.Repo.ComicExists(c.Request.Context(), comicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	entry, err := h.Repo.Upsert(c.Request.Context(), u.ID, comicID, req.IsFavorited, req.Status)
	if err != nil || entry == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

type progressReq struct {
	ComicID           string `json:"comicId"`
	LastReadChapterID string `json:"lastReadChapterId"`
}

func (h *Handler) updateProgress(c *gin.Context) {
	u := auth.CurrentUser(c)

	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	comicID := strings.TrimSpace(req.ComicID)
	chapterID := strings.TrimSpace(req.LastReadChapterID)
	if comicID == "" || chapterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comicId and lastReadChapterId required"})
		return
	}

	ok, err := h.Repo.ChapterOfComic(c.Request.Context(), chapterID, comicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found for comic"})
		return
	}

	entry, err := h.Repo.UpdateProgress(c.Request.Context(), u.ID, comicID, chapterID)
	if err != nil || entry == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
