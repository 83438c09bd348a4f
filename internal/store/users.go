package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecommerce-service/internal/models"

	"github.com/google/uuid"
)

type userRow struct {
	ID                  uuid.UUID  `db:"id"`
	Name                string     `db:"name"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	AvatarPublicID      string     `db:"avatar_public_id"`
	AvatarURL           string     `db:"avatar_url"`
	Role                string     `db:"role"`
	CreatedAt           time.Time  `db:"created_at"`
	ResetPasswordToken  *string    `db:"reset_password_token"`
	ResetPasswordExpire *time.Time `db:"reset_password_expire"`
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		Avatar:              models.Image{PublicID: r.AvatarPublicID, URL: r.AvatarURL},
		Role:                models.Role(r.Role),
		CreatedAt:           r.CreatedAt,
		ResetPasswordToken:  r.ResetPasswordToken,
		ResetPasswordExpire: r.ResetPasswordExpire,
	}
}

const userColumns = `id, name, email, password_hash, avatar_public_id, avatar_url, role,
	created_at, reset_password_token, reset_password_expire`

// CreateUser inserts a new user; the id is assigned when empty
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, avatar_public_id, avatar_url, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := s.db.GetContext(ctx, &user.CreatedAt, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Avatar.PublicID, user.Avatar.URL, string(user.Role))
	return translateError(err)
}

func (s *Store) getUser(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

// GetUserByResetToken retrieves the user holding an unexpired reset token digest
func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.getUser(ctx, "reset_password_token = $1 AND reset_password_expire > $2", tokenHash, now)
}

// ListUsers retrieves all users, newest first
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC"); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, *r.toModel())
	}
	return users, nil
}

// UpdateUser writes every mutable field of the user
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, avatar_public_id = $4, avatar_url = $5,
			role = $6, reset_password_token = $7, reset_password_expire = $8
		WHERE id = $9`,
		user.Name, user.Email, user.PasswordHash, user.Avatar.PublicID, user.Avatar.URL,
		string(user.Role), user.ResetPasswordToken, user.ResetPasswordExpire, user.ID)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res)
}

// DeleteUser removes a user
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
