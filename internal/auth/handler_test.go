package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

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

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "comichub-test", Duration: time.Hour}
}

func newAuthRouter(t *testing.T, db *sql.DB, google GoogleVerifier) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewRepo(db)
	h := NewHandler(repo, testTokens(), google)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/auth"))
	return r, repo
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	r, _ := newAuthRouter(t, newTestDB(t), nil)

	body := map[string]string{"email": "ana@example.com", "password": "secret123", "username": "ana"}
	if w := postJSON(t, r, "/api/auth/register", body); w.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	// same email, different case: still a conflict
	body["email"] = "Ana@Example.com"
	if w := postJSON(t, r, "/api/auth/register", body); w.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d, body=%s", w.Code, w.Body.String())
	}

	// the first account is unaffected
	login := map[string]string{"email": "ana@example.com", "password": "secret123"}
	if w := postJSON(t, r, "/api/auth/login", login); w.Code != http.StatusOK {
		t.Fatalf("login after conflict: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestRegister_OmitsPasswordHash(t *testing.T) {
	r, _ := newAuthRouter(t, newTestDB(t), nil)

	body := map[string]string{"email": "bo@example.com", "password": "secret123", "username": "bo"}
	w := postJSON(t, r, "/api/auth/register", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"password", "passwordHash", "password_hash"} {
		if _, ok := resp[key]; ok {
			t.Fatalf("response leaks %q: %s", key, w.Body.String())
		}
	}
	if resp["role"] != models.RoleReader {
		t.Fatalf("expected role READER, got %v", resp["role"])
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	r, _ := newAuthRouter(t, newTestDB(t), nil)

	reg := map[string]string{"email": "cy@example.com", "password": "secret123", "username": "cy"}
	if w := postJSON(t, r, "/api/auth/register", reg); w.Code != http.StatusCreated {
		t.Fatalf("register: got %d", w.Code)
	}

	cases := []map[string]string{
		{"email": "cy@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "secret123"},
	}
	for _, body := range cases {
		if w := postJSON(t, r, "/api/auth/login", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("login %v: expected 401, got %d", body, w.Code)
		}
	}
}

func TestLogin_GoogleOnlyAccountRejected(t *testing.T) {
	db := newTestDB(t)
	r, repo := newAuthRouter(t, db, nil)

	// account created through Google has no local password
	u := models.User{ID: "u-google", Email: "g@example.com", Username: "g", Role: models.RoleReader, GoogleID: "google-sub-1"}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	body := map[string]string{"email": "g@example.com", "password": "anything"}
	if w := postJSON(t, r, "/api/auth/login", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for google-only account, got %d", w.Code)
	}
}

func TestLogin_TokenRoundTrip(t *testing.T) {
	db := newTestDB(t)
	r, repo := newAuthRouter(t, db, nil)

	reg := map[string]string{"email": "dee@example.com", "password": "secret123", "username": "dee"}
	if w := postJSON(t, r, "/api/auth/register", reg); w.Code != http.StatusCreated {
		t.Fatalf("register: got %d", w.Code)
	}

	w := postJSON(t, r, "/api/auth/login", map[string]string{"email": "dee@example.com", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d", w.Code)
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.AccessToken == "" {
		t.Fatalf("no access token in %s", w.Body.String())
	}

	// the token must pass the middleware and resolve back to the user
	protected := gin.New()
	protected.GET("/whoami", RequireAuth(testTokens(), repo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("whoami: expected 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}
}

type fakeGoogle struct {
	payload *GooglePayload
	err     error
}

func (f fakeGoogle) Verify(ctx context.Context, idToken string) (*GooglePayload, error) {
	return f.payload, f.err
}

func TestGoogleLogin_CreatesAccount(t *testing.T) {
	db := newTestDB(t)
	verifier := fakeGoogle{payload: &GooglePayload{Subject: "sub-1", Email: "eve@example.com", Name: "", Picture: "http://img/eve.png"}}
	r, repo := newAuthRouter(t, db, verifier)

	w := postJSON(t, r, "/api/auth/google/login", map[string]string{"idToken": "whatever"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	u, err := repo.GetByGoogleID(context.Background(), "sub-1")
	if err != nil || u == nil {
		t.Fatalf("created user not found: %v", err)
	}
	// username falls back to the email local-part when the token has no name
	if u.Username != "eve" {
		t.Fatalf("expected username eve, got %q", u.Username)
	}
	if u.PasswordHash != "" {
		t.Fatalf("google account should have no password hash")
	}
}

func TestGoogleLogin_LinksExistingEmailKeepingAvatar(t *testing.T) {
	db := newTestDB(t)
	verifier := fakeGoogle{payload: &GooglePayload{Subject: "sub-2", Email: "fay@example.com", Picture: "http://img/google.png"}}
	r, repo := newAuthRouter(t, db, verifier)

	u := models.User{ID: "u-fay", Email: "fay@example.com", PasswordHash: "x", Username: "fay", Avatar: "http://img/original.png", Role: models.RoleReader}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	w := postJSON(t, r, "/api/auth/google/login", map[string]string{"idToken": "whatever"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	linked, err := repo.GetByID(context.Background(), "u-fay")
	if err != nil || linked == nil {
		t.Fatalf("linked user not found: %v", err)
	}
	if linked.GoogleID != "sub-2" {
		t.Fatalf("google id not linked, got %q", linked.GoogleID)
	}
	if linked.Avatar != "http://img/original.png" {
		t.Fatalf("existing avatar should be preserved, got %q", linked.Avatar)
	}
}

func TestGoogleLogin_VerificationFailure(t *testing.T) {
	db := newTestDB(t)

	// missing subject/email counts as a failed verification
	verifier := fakeGoogle{payload: &GooglePayload{Subject: "", Email: ""}}
	r, _ := newAuthRouter(t, db, verifier)

	w := postJSON(t, r, "/api/auth/google/login", map[string]string{"idToken": "whatever"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
