package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"comichub/internal/auth"
	"comichub/internal/categories"
	"comichub/internal/chapters"
	"comichub/internal/comics"
	"comichub/internal/library"
	"comichub/internal/reviews"
	"comichub/internal/storage"
	"comichub/internal/users"
	"comichub/pkg/database"
	"comichub/pkg/utils"
)

func main() {
	cfg := utils.LoadConfig()

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	store := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)

	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Duration: cfg.JWTDuration,
	}

	// Google login stays off until a client id is configured.
	var google auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		v, err := auth.NewGoogleVerifier(context.Background(), cfg.GoogleClientID)
		if err != nil {
			log.Fatalf("google oidc setup failed: %v", err)
		}
		google = v
	} else {
		log.Println("COMICHUB_GOOGLE_CLIENT_ID not set; google login disabled")
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(cors.Default())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "UP",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, google)
	authHandler.RegisterRoutes(router.Group("/api/auth"))

	comicsGroup := router.Group("/api/comics")

	comicRepo := comics.NewRepo(db)
	comics.NewHandler(comicRepo, tokenSvc, authRepo).RegisterRoutes(comicsGroup)

	chapterRepo := chapters.NewRepo(db)
	chapters.NewHandler(chapterRepo, store, tokenSvc, authRepo).RegisterRoutes(comicsGroup)

	reviewRepo := reviews.NewRepo(db)
	reviewHandler := reviews.NewHandler(reviewRepo, tokenSvc, authRepo)
	reviewHandler.RegisterComicRoutes(comicsGroup)
	reviewHandler.RegisterRoutes(router.Group("/api/reviews"))

	categoryRepo := categories.NewRepo(db)
	categories.NewHandler(categoryRepo, tokenSvc, authRepo).RegisterRoutes(router.Group("/api/categories"))

	libraryGroup := router.Group("/api/me/library", auth.RequireAuth(tokenSvc, authRepo))
	library.NewHandler(library.NewRepo(db)).RegisterRoutes(libraryGroup)

	usersGroup := router.Group("/api/users", auth.RequireAuth(tokenSvc, authRepo))
	users.NewHandler(users.NewRepo(db)).RegisterRoutes(usersGroup)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
