package sqlite

import (
	"context"
	"database/sql"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/util"
)

const userColumns = `id, email, name, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u                    domain.User
		name                 sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &name, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err)
	}
	u.Name = name.String

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. Returns store.ErrAlreadyExists on a duplicate
// id or email.
func (t *txn) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := t.exec(ctx, `
		INSERT INTO users (id, email, email_key, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, domain.NormalizeEmail(u.Email), nullString(util.CleanName(u.Name)),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	return err
}

// GetUser returns a user by id.
func (t *txn) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(t.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by case-insensitive email.
func (t *txn) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(t.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_key = ?`, domain.NormalizeEmail(email)))
}
