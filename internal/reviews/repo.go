package reviews

import (
	"context"
	"database/sql"
	"fmt"

	"comichub/pkg/httperr"
	"comichub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, review models.Review) (*models.Review, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (id, comic_id, user_id, rating, comment)
		VALUES (?, ?, ?, ?, ?)
	`, review.ID, review.ComicID, review.UserID, review.Rating, review.Comment)
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	return r.GetByID(ctx, review.ID)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT r.id, r.comic_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at,
		       u.username, u.avatar_url
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = ?
	`, id)

	review, err := scanReview(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// ListByComic returns a comic's reviews newest first, each with the
// reviewer summary.
func (r *Repo) ListByComic(ctx context.Context, comicID string) ([]models.Review, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.comic_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at,
		       u.username, u.avatar_url
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.comic_id = ?
		ORDER BY r.created_at DESC
	`, comicID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		out = append(out, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review rows: %w", err)
	}
	if n == 0 {
		return httperr.ErrNotFound
	}
	return nil
}

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

func scanReview(row interface{ Scan(...any) error }) (*models.Review, error) {
	var (
		review models.Review
		uname  sql.NullString
		avatar sql.NullString
	)
	if err := row.Scan(
		&review.ID, &review.ComicID, &review.UserID, &review.Rating, &review.Comment,
		&review.CreatedAt, &review.UpdatedAt, &uname, &avatar,
	); err != nil {
		return nil, err
	}
	review.User = &models.UserSummary{ID: review.UserID, Username: uname.String, Avatar: avatar.String}
	return &review, nil
}
