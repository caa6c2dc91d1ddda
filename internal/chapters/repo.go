package chapters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"comichub/pkg/httperr"
	"comichub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ComicAuthor resolves the owning author for the ownership gate.
func (r *Repo) ComicAuthor(ctx context.Context, comicID string) (string, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT author_id FROM comics WHERE id = ?`, comicID)

	var authorID string
	if err := row.Scan(&authorID); err != nil {
		if err == sql.ErrNoRows {
			return "", httperr.ErrNotFound
		}
		return "", fmt.Errorf("comic author: %w", err)
	}
	return authorID, nil
}

// Create inserts the chapter and touches the parent comic's updated_at in
// one transaction. Either both land or neither does.
func (r *Repo) Create(ctx context.Context, ch models.Chapter) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create chapter: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE comics SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, ch.ComicID)
	if err != nil {
		return fmt.Errorf("touch comic: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch comic rows: %w", err)
	}
	if affected == 0 {
		err = httperr.ErrNotFound
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chapters (id, comic_id, title, chapter_number, pdf_url)
		VALUES (?, ?, ?, ?, ?)
	`, ch.ID, ch.ComicID, ch.Title, ch.ChapterNumber, ch.PDFURL)
	if err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create chapter: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Chapter, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, comic_id, title, chapter_number, pdf_url, created_at, updated_at
		FROM chapters
		WHERE id = ?
	`, id)

	var ch models.Chapter
	if err := row.Scan(&ch.ID, &ch.ComicID, &ch.Title, &ch.ChapterNumber, &ch.PDFURL, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return &ch, nil
}

// ChapterUpdate carries the partial-update fields; nil means leave alone.
type ChapterUpdate struct {
	Title         *string
	ChapterNumber *float64
}

func (r *Repo) Update(ctx context.Context, id string, upd ChapterUpdate) error {
	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.ChapterNumber != nil {
		set = append(set, "chapter_number = ?")
		args = append(args, *upd.ChapterNumber)
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, `
		UPDATE chapters SET `+strings.Join(set, ", ")+` WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chapter rows: %w", err)
	}
	if n == 0 {
		return httperr.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete chapter rows: %w", err)
	}
	if n == 0 {
		return httperr.ErrNotFound
	}
	return nil
}
