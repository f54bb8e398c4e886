package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const userSelect = `
	SELECT id, email, password_hash, first_name, last_name, phone, address, city, country, zip_code,
		role, is_active, created_at, updated_at
	FROM users`

func (s *SQLStore) oneUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Address, &u.City, &u.Country, &u.ZipCode,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, port.ErrNotFound
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "query user")
	}
	return u, nil
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.oneUser(s.db.QueryRowContext(ctx, userSelect+` WHERE email = ?`, email))
}

func (s *SQLStore) FindByID(ctx context.Context, id int64) (domain.User, error) {
	return s.oneUser(s.db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id))
}

// Create inserts the user and its empty cart in one transaction.
func (s *SQLStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	now := s.now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, address, city, country, zip_code,
			role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.Address, user.City,
		user.Country, user.ZipCode, user.Role, user.IsActive, now, now,
	)
	if isUniqueViolation(err) {
		return domain.User{}, port.ErrDuplicate
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "insert user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.User{}, errors.Wrap(err, "user id")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
		id, now, now,
	)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "insert cart")
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, errors.Wrap(err, "commit")
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (s *SQLStore) Update(ctx context.Context, user domain.User) (domain.User, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, password_hash = ?, first_name = ?, last_name = ?, phone = ?, address = ?, city = ?,
			country = ?, zip_code = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.Address, user.City,
		user.Country, user.ZipCode, user.Role, user.IsActive, s.now(), user.ID,
	)
	if isUniqueViolation(err) {
		return domain.User{}, port.ErrDuplicate
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "update user")
	}
	// MySQL reports zero affected rows for a no-op update, so re-read instead
	return s.FindByID(ctx, user.ID)
}
