package users

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"comichub/internal/auth"
	"comichub/pkg/database"
	"comichub/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_fk=1")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testTokens() auth.TokenService {
	return auth.TokenService{Secret: []byte("test-secret"), Issuer: "comichub-test", Duration: time.Hour}
}

func newUserRouter(t *testing.T, db *sql.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	rg := r.Group("/api/users", auth.RequireAuth(testTokens(), auth.NewRepo(db)))
	NewHandler(NewRepo(db)).RegisterRoutes(rg)
	return r
}

func bearerFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := testTokens().Sign(&models.User{ID: userID, Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func seedUser(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, username, avatar_url, role)
		VALUES ('u1', 'alice@example.com', 'secret-hash', 'alice', 'http://img/alice.png', 'READER')
	`)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestMe_ReturnsProfileWithoutSecrets(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	r := newUserRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1", models.RoleReader))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked in profile response")
	}
	var u models.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", u)
	}
}

func TestUpdateMe_PartialKeepsAvatar(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	r := newUserRouter(t, db)

	req := httptest.NewRequest(http.MethodPut, "/api/users/me", bytes.NewBufferString(`{"username":"alice2"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, "u1", models.RoleReader))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var u models.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Username != "alice2" {
		t.Fatalf("username not updated, got %q", u.Username)
	}
	if u.Avatar != "http://img/alice.png" {
		t.Fatalf("avatar should survive a username-only update, got %q", u.Avatar)
	}
}

func TestUpdateMe_RejectsBlankUsername(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	r := newUserRouter(t, db)

	req := httptest.NewRequest(http.MethodPut, "/api/users/me", bytes.NewBufferString(`{"username":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, "u1", models.RoleReader))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMe_RequiresAuth(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db)
	r := newUserRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
