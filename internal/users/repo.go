package users

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

func (r *Repo) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, email, username, avatar_url, role, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id)

	var (
		u      models.User
		avatar sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Avatar = avatar.String
	return &u, nil
}

// ProfileUpdate carries the self-service fields; nil means leave alone.
type ProfileUpdate struct {
	Username *string
	Avatar   *string
}

func (r *Repo) Update(ctx context.Context, id string, upd ProfileUpdate) error {
	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if upd.Username != nil {
		set = append(set, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.Avatar != nil {
		set = append(set, "avatar_url = ?")
		args = append(args, *upd.Avatar)
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if n == 0 {
		return httperr.ErrNotFound
	}
	return nil
}
