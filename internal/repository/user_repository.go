package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/happycoon/coffee-table-reservation/internal/database"
	"github.com/happycoon/coffee-table-reservation/internal/model"
	"github.com/happycoon/coffee-table-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, email, password_hash, is_admin, disabled, created_at, updated_at"

// Create hashes the password, inserts the user and returns its ID.  A
// duplicate username or email yields ErrUsernameExists / ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, isAdmin bool, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_admin) VALUES (?,?,?,?)",
		username, email, hash, isAdmin)
	if err != nil {
		if database.IsDuplicate(err) {
			if strings.Contains(strings.ToLower(err.Error()), "email") {
				return 0, ErrEmailExists
			}
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// GetByLogin accepts either a username or an email address.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (model.User, error) {
	if strings.Contains(login, "@") {
		return r.GetByEmail(ctx, login)
	}
	return r.GetByUsername(ctx, login)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// SetAdmin grants or revokes the admin flag.
func (r *UserRepo) SetAdmin(ctx context.Context, id uint64, isAdmin bool) error {
	return r.update(ctx, "UPDATE users SET is_admin=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", isAdmin, id)
}

// SetDisabled enables or disables an account.
func (r *UserRepo) SetDisabled(ctx context.Context, id uint64, disabled bool) error {
	return r.update(ctx, "UPDATE users SET disabled=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", disabled, id)
}

func (r *UserRepo) update(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.Disabled, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}
