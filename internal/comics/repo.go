package comics

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

const comicCols = `c.id, c.title, c.description, c.cover_image_url, c.status, c.visibility, c.author_id, c.created_at, c.updated_at`

func scanComic(row interface{ Scan(...any) error }, withAuthor bool) (*models.Comic, error) {
	var (
		m      models.Comic
		uname  sql.NullString
		avatar sql.NullString
	)

	dest := []any{
		&m.ID, &m.Title, &m.Description, &m.CoverImage, &m.Status,
		&m.Visibility, &m.AuthorID, &m.CreatedAt, &m.UpdatedAt,
	}
	if withAuthor {
		dest = append(dest, &uname, &avatar)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if withAuthor {
		m.Author = &models.UserSummary{ID: m.AuthorID, Username: uname.String, Avatar: avatar.String}
	}
	return &m, nil
}

// Count runs the same predicate as List so totals always match the page.
func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	where, args := whereSQL(buildFilter(q))
	row := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comics c`+where, args...)

	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count comics: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Comic, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	where, args := whereSQL(buildFilter(q))
	sqlStr := `
		SELECT ` + comicCols + `, u.username, u.avatar_url
		FROM comics c
		JOIN users u ON u.id = c.author_id` +
		where + orderSQL(q.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list comics: %w", err)
	}
	defer rows.Close()

	out := make([]models.Comic, 0, limit)
	for rows.Next() {
		m, err := scanComic(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan comic row: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	if err := r.loadCategories(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadCategories fills Categories for the whole page in one query.
func (r *Repo) loadCategories(ctx context.Context, comics []models.Comic) error {
	if len(comics) == 0 {
		return nil
	}

	idx := make(map[string]int, len(comics))
	placeholders := make([]string, 0, len(comics))
	args := make([]any, 0, len(comics))
	for i := range comics {
		comics[i].Categories = []models.Category{}
		idx[comics[i].ID] = i
		placeholders = append(placeholders, "?")
		args = append(args, comics[i].ID)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT cc.comic_id, cat.id, cat.name
		FROM comic_categories cc
		JOIN categories cat ON cat.id = cc.category_id
		WHERE cc.comic_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY cat.name
	`, args...)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var comicID string
		var cat models.Category
		if err := rows.Scan(&comicID, &cat.ID, &cat.Name); err != nil {
			return fmt.Errorf("scan category row: %w", err)
		}
		if i, ok := idx[comicID]; ok {
			comics[i].Categories = append(comics[i].Categories, cat)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows err: %w", err)
	}
	return nil
}

// GetByID loads the full detail graph: author summary, categories, and
// chapters ordered by chapter number.
func (r *Repo) GetByID(ctx context.Context, id string) (*models.Comic, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+comicCols+`, u.username, u.avatar_url
		FROM comics c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = ?
	`, id)

	m, err := scanComic(row, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get comic: %w", err)
	}

	page := []models.Comic{*m}
	if err := r.loadCategories(ctx, page); err != nil {
		return nil, err
	}
	*m = page[0]

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, comic_id, title, chapter_number, pdf_url, created_at, updated_at
		FROM chapters
		WHERE comic_id = ?
		ORDER BY chapter_number ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	defer rows.Close()

	m.Chapters = []models.Chapter{}
	for rows.Next() {
		var ch models.Chapter
		if err := rows.Scan(&ch.ID, &ch.ComicID, &ch.Title, &ch.ChapterNumber, &ch.PDFURL, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter row: %w", err)
		}
		m.Chapters = append(m.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	return m, nil
}

// GetAuthorID is the cheap lookup ownership checks use.
func (r *Repo) GetAuthorID(ctx context.Context, comicID string) (string, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT author_id FROM comics WHERE id = ?`, comicID)

	var authorID string
	if err := row.Scan(&authorID); err != nil {
		if err == sql.ErrNoRows {
			return "", httperr.ErrNotFound
		}
		return "", fmt.Errorf("get comic author: %w", err)
	}
	return authorID, nil
}

func (r *Repo) Create(ctx context.Context, m models.Comic, categoryIDs []string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create comic: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comics (id, title, description, cover_image_url, status, visibility, author_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Title, m.Description, m.CoverImage, m.Status, m.Visibility, m.AuthorID)
	if err != nil {
		return fmt.Errorf("insert comic: %w", err)
	}

	for _, catID := range categoryIDs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO comic_categories (comic_id, category_id) VALUES (?, ?)
		`, m.ID, catID); err != nil {
			return fmt.Errorf("attach category %s: %w", catID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create comic: %w", err)
	}
	return nil
}

// ComicUpdate carries the partial-update fields; nil means leave alone.
type ComicUpdate struct {
	Title       *string
	Description *string
	CoverImage  *string
	Status      *string
	Visibility  *string
	CategoryIDs []string // nil keeps the set, non-nil replaces it
}

func (r *Repo) Update(ctx context.Context, id string, upd ComicUpdate) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update comic: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.CoverImage != nil {
		set = append(set, "cover_image_url = ?")
		args = append(args, *upd.CoverImage)
	}
	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.Visibility != nil {
		set = append(set, "visibility = ?")
		args = append(args, *upd.Visibility)
	}
	args = append(args, id)

	res, err := tx.ExecContext(ctx, `
		UPDATE comics SET `+strings.Join(set, ", ")+` WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("update comic: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comic rows: %w", err)
	}
	if affected == 0 {
		err = httperr.ErrNotFound
		return err
	}

	if upd.CategoryIDs != nil {
		if _, err = tx.ExecContext(ctx, `
			DELETE FROM comic_categories WHERE comic_id = ?
		`, id); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for _, catID := range upd.CategoryIDs {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO comic_categories (comic_id, category_id) VALUES (?, ?)
			`, id, catID); err != nil {
				return fmt.Errorf("attach category %s: %w", catID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update comic: %w", err)
	}
	return nil
}

// Delete removes the comic; chapters, reviews and library entries go with
// it via foreign-key cascade.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comic rows: %w", err)
	}
	if n == 0 {
		return httperr.ErrNotFound
	}
	return nil
}
