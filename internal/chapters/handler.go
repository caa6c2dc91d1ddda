package chapters

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"comichub/internal/auth"
	"comichub/internal/storage"
	"comichub/pkg/httperr"
	"comichub/pkg/models"
)

// 50 MB cap on chapter PDFs.
const maxPDFBytes = 50 << 20

type Handler struct {
	Repo   *Repo
	Store  storage.ObjectStore
	Tokens auth.TokenService
	Users  *auth.Repo
}

func NewHandler(repo *Repo, store storage.ObjectStore, tokens auth.TokenService, users *auth.Repo) *Handler {
	return &Handler{Repo: repo, Store: store, Tokens: tokens, Users: users}
}

// RegisterRoutes hangs the chapter routes off the comics group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	required := auth.RequireAuth(h.Tokens, h.Users)

	rg.POST("/:id/chapters", required, h.create)
	rg.PUT("/:id/chapters/:chapterId", required, h.update)
	rg.DELETE("/:id/chapters/:chapterId", required, h.delete)
}

func (h *Handler) create(c *gin.Context) {
	comicID := c.Param("id")
	if !h.requireAuthor(c, comicID) {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	numberStr := strings.TrimSpace(c.PostForm("chapterNumber"))
	if title == "" || numberStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and chapterNumber required"})
		return
	}
	number, err := strconv.ParseFloat(numberStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chapterNumber must be a number"})
		return
	}

	fh, err := c.FormFile("chapterPdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chapterPdf file required"})
		return
	}
	if fh.Size > maxPDFBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType != "application/pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF uploads are accepted"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read upload failed"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read upload failed"})
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
	if ext == "" {
		ext = "pdf"
	}
	key := fmt.Sprintf("%s/%s-%d.%s", comicID, comicID, time.Now().UnixMilli(), ext)

	// Upload first; a failure here leaves the database untouched.
	if err := h.Store.Upload(c.Request.Context(), key, data, contentType); err != nil {
		log.Printf("[chapters] upload %s failed: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	url := h.Store.PublicURL(key)
	if url == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no public url for upload"})
		return
	}

	ch := models.Chapter{
		ID:            uuid.NewString(),
		ComicID:       comicID,
		Title:         title,
		ChapterNumber: number,
		PDFURL:        url,
	}
	if err := h.Repo.Create(c.Request.Context(), ch); err != nil {
		// the record never landed, so take the orphaned object with us
		if delErr := h.Store.Delete(c.Request.Context(), key); delErr != nil {
			log.Printf("[chapters] orphan cleanup %s failed: %v", key, delErr)
		}
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create chapter failed"})
		return
	}

	created, err := h.Repo.GetByID(c.Request.Context(), ch.ID)
	if err != nil || created == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create chapter failed"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type updateReq struct {
	Title         *string  `json:"title"`
	ChapterNumber *float64 `json:"chapterNumber"`
}

func (h *Handler) update(c *gin.Context) {
	comicID := c.Param("id")
	if !h.requireAuthor(c, comicID) {
		return
	}

	ch, ok := h.chapterOfComic(c, comicID)
	if !ok {
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	upd := ChapterUpdate{Title: req.Title, ChapterNumber: req.ChapterNumber}
	if err := h.Repo.Update(c.Request.Context(), ch.ID, upd); err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	updated, err := h.Repo.GetByID(c.Request.Context(), ch.ID)
	if err != nil || updated == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c *gin.Context) {
	comicID := c.Param("id")
	if !h.requireAuthor(c, comicID) {
		return
	}

	ch, ok := h.chapterOfComic(c, comicID)
	if !ok {
		return
	}

	// Object deletion is best-effort; the row is the source of truth and
	// a stray object is logged, not fatal.
	if key, ok := h.Store.KeyFromPublicURL(ch.PDFURL); ok {
		if err := h.Store.Delete(c.Request.Context(), key); err != nil {
			log.Printf("[chapters] object delete %s failed: %v", key, err)
		}
	} else {
		log.Printf("[chapters] no storage key for url %s", ch.PDFURL)
	}

	if err := h.Repo.Delete(c.Request.Context(), ch.ID); err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "chapter deleted"})
}

// chapterOfComic loads the chapter and checks it belongs to the comic in
// the URL.
func (h *Handler) chapterOfComic(c *gin.Context, comicID string) (*models.Chapter, bool) {
	ch, err := h.Repo.GetByID(c.Request.Context(), c.Param("chapterId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get chapter failed"})
		return nil, false
	}
	if ch == nil || ch.ComicID != comicID {
		c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
		return nil, false
	}
	return ch, true
}

func (h *Handler) requireAuthor(c *gin.Context, comicID string) bool {
	u := auth.CurrentUser(c)

	authorID, err := h.Repo.ComicAuthor(c.Request.Context(), comicID)
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
