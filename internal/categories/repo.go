package categories

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

func (r *Repo) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Create rejects names that collide case-insensitively. The NOCASE unique
// index backs this up if two creates race.
func (r *Repo) Create(ctx context.Context, cat models.Category) (*models.Category, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT 1 FROM categories WHERE name = ? COLLATE NOCASE
	`, cat.Name)
	var one int
	if err := row.Scan(&one); err == nil {
		return nil, httperr.ErrConflict
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check category: %w", err)
	}

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES (?, ?)
	`, cat.ID, cat.Name); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, httperr.ErrConflict
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &cat, nil
}
