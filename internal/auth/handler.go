package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"comichub/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Tokens TokenService
	Google GoogleVerifier
}

func NewHandler(repo *Repo, tokens TokenService, google GoogleVerifier) *Handler {
	return &Handler{Repo: repo, Tokens: tokens, Google: google}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/google/login", h.googleLogin)
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Password == "" || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and username required"})
		return
	}
	if !strings.Contains(req.Email, "@") || len(req.Email) > 255 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}
	if len(req.Password) > 72 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too long"})
		return
	}

	if u, _ := h.Repo.GetByEmail(c.Request.Context(), req.Email); u != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}

	u := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Username:     req.Username,
		Role:         models.RoleReader,
	}

	if err := h.Repo.CreateUser(c.Request.Context(), u); err != nil {
		// unique constraint also fires here when two registers race
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	created, err := h.Repo.GetByID(c.Request.Context(), u.ID)
	if err != nil || created == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	u, err := h.Repo.GetByEmail(c.Request.Context(), email)
	if err != nil || u == nil || u.PasswordHash == "" {
		// covers unknown email and Google-only accounts alike
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.respondWithToken(c, u)
}

type googleLoginReq struct {
	IDToken string `json:"idToken"`
}

func (h *Handler) googleLogin(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google login not configured"})
		return
	}

	var req googleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken required"})
		return
	}

	payload, err := h.Google.Verify(c.Request.Context(), req.IDToken)
	if err != nil || payload.Subject == "" || payload.Email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid google token"})
		return
	}

	u, err := h.resolveGoogleUser(c, payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google login failed"})
		return
	}

	h.respondWithToken(c, u)
}

// resolveGoogleUser looks up by external id, then links by email, then
// creates a fresh account with a username derived from the email.
func (h *Handler) resolveGoogleUser(c *gin.Context, payload *GooglePayload) (*models.User, error) {
	ctx := c.Request.Context()

	u, err := h.Repo.GetByGoogleID(ctx, payload.Subject)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	email := strings.ToLower(payload.Email)
	u, err = h.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		if err := h.Repo.LinkGoogleAccount(ctx, u.ID, payload.Subject, payload.Picture); err != nil {
			return nil, err
		}
		return h.Repo.GetByID(ctx, u.ID)
	}

	username := payload.Name
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	created := models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Username: username,
		Avatar:   payload.Picture,
		Role:     models.RoleReader,
		GoogleID: payload.Subject,
	}
	if err := h.Repo.CreateUser(ctx, created); err != nil {
		return nil, err
	}
	return h.Repo.GetByID(ctx, created.ID)
}

func (h *Handler) respondWithToken(c *gin.Context, u *models.User) {
	token, exp, err := h.Tokens.Sign(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        u,
		"accessToken": token,
		"expiresAt":   exp.UTC(),
	})
}
