package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"comichub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const userCols = `id, email, password_hash, username, avatar_url, role, google_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u        models.User
		hash     sql.NullString
		avatar   sql.NullString
		googleID sql.NullString
	)
	if err := row.Scan(
		&u.ID, &u.Email, &hash, &u.Username, &avatar, &u.Role, &googleID,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Avatar = avatar.String
	u.GoogleID = googleID.String
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, username, avatar_url, role, google_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, nullable(u.PasswordHash), u.Username, nullable(u.Avatar), u.Role, nullable(u.GoogleID))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE email = ?
	`, email)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get by email: %w", err)
	}
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE id = ?
	`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return u, nil
}

func (r *Repo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE google_id = ?
	`, googleID)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get by google id: %w", err)
	}
	return u, nil
}

// LinkGoogleAccount attaches the external identity to an existing account.
// An already-set avatar is kept; the Google picture only fills a blank one.
func (r *Repo) LinkGoogleAccount(ctx context.Context, userID, googleID, avatar string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET google_id = ?,
		    avatar_url = COALESCE(avatar_url, ?),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, googleID, nullable(avatar), userID)
	if err != nil {
		return fmt.Errorf("link google account: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
