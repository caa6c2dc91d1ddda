package library

import (
	"context"
	"database/sql"
	"fmt"

	"comichub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const entryCols = `le.user_id, le.comic_id, le.is_favorited, le.status, le.last_read_chapter_id, le.updated_at`

func scanEntry(row interface{ Scan(...any) error }, withComic bool) (*models.LibraryEntry, error) {
	var (
		e           models.LibraryEntry
		lastChapter sql.NullString
	)

	dest := []any{&e.UserID, &e.ComicID, &e.IsFavorited, &e.Status, &lastChapter, &e.UpdatedAt}

	var m models.Comic
	if withComic {
		dest = append(dest,
			&m.ID, &m.Title, &m.Description, &m.CoverImage, &m.Status,
			&m.Visibility, &m.AuthorID, &m.CreatedAt, &m.UpdatedAt,
		)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.LastReadChapterID = lastChapter.String
	if withComic {
		e.Comic = &m
	}
	return &e, nil
}

// List returns the user's entries newest-updated first, each joined with
// the full comic row.
func (r *Repo) List(ctx context.Context, userID string, status string, isFavorited *bool) ([]models.LibraryEntry, error) {
	sqlStr := `
		SELECT ` + entryCols + `,
		       c.id, c.title, c.description, c.cover_image_url, c.status,
		       c.visibility, c.author_id, c.created_at, c.updated_at
		FROM library_entries le
		JOIN comics c ON c.id = le.comic_id
		WHERE le.user_id = ?`
	args := []any{userID}

	if status != "" {
		sqlStr += ` AND le.status = ?`
		args = append(args, status)
	}
	if isFavorited != nil {
		sqlStr += ` AND le.is_favorited = ?`
		args = append(args, *isFavorited)
	}
	sqlStr += ` ORDER BY le.updated_at DESC`

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	defer rows.Close()

	out := []models.LibraryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan library row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, userID, comicID string) (*models.LibraryEntry, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+entryCols+`
		FROM library_entries le
		WHERE le.user_id = ? AND le.comic_id = ?
	`, userID, comicID)

	e, err := scanEntry(row, false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get library entry: %w", err)
	}
	return e, nil
}

// Upsert keeps exactly one row per (user, comic). Only the supplied fields
// are applied on update; omitted ones keep their stored values, and the
// create path falls back to column defaults. The single INSERT ... ON
// CONFLICT statement is what makes two concurrent upserts safe.
func (r *Repo) Upsert(ctx context.Context, userID, comicID string, isFavorited *bool, status *string) (*models.LibraryEntry, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO library_entries (user_id, comic_id, is_favorited, status, updated_at)
		VALUES (?, ?, COALESCE(?, 0), COALESCE(?, 'NOT_STARTED'), CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, comic_id) DO UPDATE SET
			is_favorited = COALESCE(?, is_favorited),
			status = COALESCE(?, status),
			updated_at = CURRENT_TIMESTAMP
	`, userID, comicID,
		optBool(isFavorited), optString(status),
		optBool(isFavorited), optString(status))
	if err != nil {
		return nil, fmt.Errorf("upsert library entry: %w", err)
	}

	return r.Get(ctx, userID, comicID)
}

// UpdateProgress records the last-read chapter and forces READING on both
// the create and the update path.
func (r *Repo) UpdateProgress(ctx context.Context, userID, comicID, chapterID string) (*models.LibraryEntry, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO library_entries (user_id, comic_id, status, last_read_chapter_id, updated_at)
		VALUES (?, ?, 'READING', ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, comic_id) DO UPDATE SET
			status = 'READING',
			last_read_chapter_id = excluded.last_read_chapter_id,
			updated_at = CURRENT_TIMESTAMP
	`, userID, comicID, chapterID)
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	return r.Get(ctx, userID, comicID)
}

// ComicExists backs the 404 check before an upsert touches the row.
func (r *Repo) ComicExists(ctx context.Context, comicID string) (bool, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT 1 FROM comics WHERE id = ?`, comicID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("comic exists: %w", err)
	}
	return true, nil
}

// ChapterOfComic verifies the progress pointer actually names a chapter of
// the given comic.
func (r *Repo) ChapterOfComic(ctx context.Context, chapterID, comicID string) (bool, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT 1 FROM chapters WHERE id = ? AND comic_id = ?
	`, chapterID, comicID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("chapter of comic: %w", err)
	}
	return true, nil
}

func optBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
