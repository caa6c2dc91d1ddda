package library

import (
	"context"
	"database/sql"
	"testing"

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

func seedFixtures(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO users (id, email, password_hash, username, role)
		 VALUES ('reader', 'reader@example.com', 'x', 'reader', 'READER')`,
		`INSERT INTO users (id, email, password_hash, username, role)
		 VALUES ('author', 'author@example.com', 'x', 'author', 'CREATOR')`,
		`INSERT INTO comics (id, title, status, visibility, author_id)
		 VALUES ('c1', 'First', 'ONGOING', 'PUBLIC', 'author')`,
		`INSERT INTO comics (id, title, status, visibility, author_id)
		 VALUES ('c2', 'Second', 'ONGOING', 'PUBLIC', 'author')`,
		`INSERT INTO chapters (id, comic_id, title, chapter_number, pdf_url)
		 VALUES ('ch1', 'c1', 'One', 1, 'http://x/1.pdf')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func countEntries(t *testing.T, db *sql.DB, userID, comicID string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM library_entries WHERE user_id = ? AND comic_id = ?
	`, userID, comicID).Scan(&n); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return n
}

func TestUpsert_CreateUsesDefaults(t *testing.T) {
	db := newTestDB(t)
	seedFixtures(t, db)
	repo := NewRepo(db)

	entry, err := repo.Upsert(context.Background(), "reader", "c1", boolPtr(true), nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !entry.IsFavorited {
		t.Fatalf("expected favorited entry")
	}
	if entry.Status != models.ReadingNotStarted {
		t.Fatalf("omitted status should default to NOT_STARTED, got %s", entry.Status)
	}
}

func TestUpsert_PartialUpdateKeepsOtherFields(t *testing.T) {
	db := newTestDB(t)
	seedFixtures(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, "reader", "c1", boolPtr(true), strPtr(models.ReadingActive)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// only the status changes; the favorite flag must survive
	entry, err := repo.Upsert(ctx, "reader", "c1", nil, strPtr(models.ReadingFinished))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if !entry.IsFavorited {
		t.Fatalf("favorite flag lost on partial update")
	}
	if entry.Status != models.ReadingFinished {
		t.Fatalf("status not applied, got %s", entry.Status)
	}

	if n := countEntries(t, db, "reader", "c1"); n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestUpsert_ConvergesToSingleRow(t *testing.T) {
	db := newTestDB(t)
	seedFixtures(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		fav := i%2 == 0
		if _, err := repo.Upsert(ctx, "reader", "c1", boolPtr(fav), nil); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	if n := countEntries(t, db, "reader", "c1"); n != 1 {
		t.Fatalf("expected one row after repeated upserts, got %d", n)
	}
	entry, err := repo.Get(ctx, "reader", "c1")
	if err != nil || entry == nil {
		t.Fatalf("get: %v", err)
	}
	// last applied value wins
	if entry.IsFavorited {
		t.Fatalf("expected final isFavorited=false, got true")
	}
}

func TestUpdateProgress_ForcesReading(t *testing.T) {
	db := newTestDB(t)
	seedFixtures(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	// create path
	entry, err := repo.UpdateProgress(ctx, "reader", "c1", "ch1")
	if err != nil {
		t.Fatalf("progress create: %v", err)
	}
	if entry.Status != models.ReadingActive {
		t.Fatalf("create: expected READING, got %s", entry.Status)
	}
	if entry.LastReadChapterID != "ch1" {
		t.Fatalf("create: chapter pointer missing, got %q", entry.LastReadChapterID)
	}

	// update path, over a FINISHED entry
	if _, err := repo.Upsert(ctx, "reader", "c1", nil, strPtr(models.ReadingFinished)); err != nil {
		t.Fatalf("set finished: %v", err)
	}
	entry, err = repo.UpdateProgress(ctx, "reader", "c1", "ch1")
	if err != nil {
		t.Fatalf("progress update: %v", err)
	}
	if entry.Status != models.ReadingActive {
		t.Fatalf("update: expected READING regardless of prior status, got %s", entry.Status)
	}
	if n := countEntries(t, db, "reader", "c1"); n != 1 {
		t.Fatalf("expected one row, got %d", n)
	}
}

func TestList_FiltersAndComicJoin(t *testing.T) {
	db := newTestDB(t)
	seedFixtures(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, "reader", "c1", boolPtr(true), strPtr(models.ReadingActive)); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	if _, err := repo.Upsert(ctx, "reader", "c2", boolPtr(false), strPtr(models.ReadingFinished)); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	all, err := repo.List(ctx, "reader", "", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	for _, e := range all {
		if e.Comic == nil || e.Comic.Title == "" {
			t.Fatalf("entry missing joined comic: %+v", e)
		}
	}

	reading, err := repo.List(ctx, "reader", models.ReadingActive, nil)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(reading) != 1 || reading[0].ComicID != "c1" {
		t.Fatalf("status filter wrong: %+v", reading)
	}

	favs, err := repo.List(ctx, "reader", "", boolPtr(true))
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favs) != 1 || favs[0].ComicID != "c1" {
		t.Fatalf("favorite filter wrong: %+v", favs)
	}

	other, err := repo.List(ctx, "author", "", nil)
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("entries leaked across users: %+v", other)
	}
}
