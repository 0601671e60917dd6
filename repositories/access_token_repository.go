package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/team-roster/models"
)

var ErrTokenNotFound = errors.New("access token not found")

type AccessTokenRepository interface {
	Create(ctx context.Context, token *models.AccessToken) error
	GetByID(ctx context.Context, id string) (*models.AccessToken, error)
	Touch(ctx context.Context, id string, usedAt time.Time) error
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresAccessTokenRepository struct {
	db *sql.DB
}

func NewPostgresAccessTokenRepository(db *sql.DB) AccessTokenRepository {
	return &postgresAccessTokenRepository{db: db}
}

func (r *postgresAccessTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, user_id, name, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, token.ID, token.UserID, token.Name, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		return mapConstraintError(err, ErrUserNotFound)
	}
	return nil
}

func (r *postgresAccessTokenRepository) GetByID(ctx context.Context, id string) (*models.AccessToken, error) {
	query := `
		SELECT id, user_id, name, expires_at, last_used_at, created_at
		FROM access_tokens
		WHERE id = $1`

	token := &models.AccessToken{}
	var lastUsed sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&token.ID, &token.UserID, &token.Name, &token.ExpiresAt, &lastUsed, &token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if lastUsed.Valid {
		token.LastUsedAt = &lastUsed.Time
	}
	return token, nil
}

func (r *postgresAccessTokenRepository) Touch(ctx context.Context, id string, usedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE access_tokens SET last_used_at = $1 WHERE id = $2`, usedAt, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *postgresAccessTokenRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *postgresAccessTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired access tokens: %w", err)
	}
	return checkRowsAffected(result)
}
