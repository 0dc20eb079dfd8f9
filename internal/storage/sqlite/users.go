package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avdeyev/authsvc/internal/domain/models"
	"github.com/avdeyev/authsvc/internal/storage"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const userColumns = "id, email, name, phone, pass_hash, reset_token, reset_token_expiry, created_at, updated_at"

// SaveUser inserts a new user and returns its id. Email uniqueness is
// case-insensitive (COLLATE NOCASE on the column).
func (s *Storage) SaveUser(ctx context.Context, email, name, phone string, passHash []byte) (int64, error) {
	const op = "storage.sqlite.SaveUser"

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, phone, pass_hash) VALUES (?, ?, ?, ?)",
		email, name, nullString(phone), passHash,
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UserByEmail retrieves a user by email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.sqlite.UserByEmail"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID retrieves a user by ID.
func (s *Storage) UserByID(ctx context.Context, userID int64) (models.User, error) {
	const op = "storage.sqlite.UserByID"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", userID,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByResetToken retrieves the user holding the given reset token,
// regardless of expiry. Expiry is the caller's concern.
func (s *Storage) UserByResetToken(ctx context.Context, token string) (models.User, error) {
	const op = "storage.sqlite.UserByResetToken"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token = ?", token,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdatePassword replaces the stored password hash for a user.
func (s *Storage) UpdatePassword(ctx context.Context, userID int64, passHash []byte) error {
	const op = "storage.sqlite.UpdatePassword"

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET pass_hash = ?, updated_at = unixepoch() WHERE id = ?",
		passHash, userID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRows(op, res, storage.ErrUserNotFound)
}

// SetResetToken overwrites the user's reset token and expiry. Any token
// previously stored for the user stops matching from this point on.
func (s *Storage) SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error {
	const op = "storage.sqlite.SetResetToken"

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = ?, reset_token_expiry = ? WHERE id = ?",
		token, expiry.Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRows(op, res, storage.ErrUserNotFound)
}

// ClearResetToken drops the user's reset token and expiry.
func (s *Storage) ClearResetToken(ctx context.Context, userID int64) error {
	const op = "storage.sqlite.ClearResetToken"

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE id = ?",
		userID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRows(op, res, storage.ErrUserNotFound)
}

// CompleteReset installs the new password hash and clears the reset token
// in one conditional statement. The row is touched only if the stored
// token still equals the presented one and has not expired, so of two
// concurrent attempts with the same token at most one succeeds; the loser
// gets storage.ErrNotFound.
func (s *Storage) CompleteReset(ctx context.Context, token string, passHash []byte, now time.Time) error {
	const op = "storage.sqlite.CompleteReset"

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET pass_hash = ?, reset_token = NULL, reset_token_expiry = NULL, updated_at = unixepoch()
		WHERE reset_token = ? AND reset_token_expiry > ?`,
		passHash, token, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRows(op, res, storage.ErrNotFound)
}

// TouchLastLogin bumps updated_at after a successful login.
func (s *Storage) TouchLastLogin(ctx context.Context, userID int64) error {
	const op = "storage.sqlite.TouchLastLogin"

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET updated_at = unixepoch() WHERE id = ?", userID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRows(op, res, storage.ErrUserNotFound)
}

func requireRows(op string, res sql.Result, notFound error) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user        models.User
		phone       sql.NullString
		resetToken  sql.NullString
		resetExpiry sql.NullInt64
		createdAt   int64
		updatedAt   int64
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &phone, &user.PassHash,
		&resetToken, &resetExpiry, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	user.Phone = phone.String
	user.ResetToken = resetToken.String
	if resetExpiry.Valid {
		user.ResetTokenExpiry = time.Unix(resetExpiry.Int64, 0)
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return user, nil
}
