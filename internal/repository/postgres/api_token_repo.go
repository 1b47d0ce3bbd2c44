package postgres

import (
	"context"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// APITokenRepository implements domain.APITokenRepository using PostgreSQL
type APITokenRepository struct {
	pool *pgxpool.Pool
}

// NewAPITokenRepository creates a new APITokenRepository
func NewAPITokenRepository(pool *pgxpool.Pool) *APITokenRepository {
	return &APITokenRepository{pool: pool}
}

const apiTokenColumns = `id, user_id, description, token_hash, token_prefix,
	last_used_at, created_at, revoked_at`

// Create creates a new API token
func (r *APITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO api_tokens (user_id, description, token_hash, token_prefix)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		pgUUID(token.UserID),
		token.Description,
		token.TokenHash,
		token.TokenPrefix,
	)

	var id pgtype.UUID
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&id, &createdAt); err != nil {
		return err
	}
	token.ID = uuid.UUID(id.Bytes)
	token.CreatedAt = createdAt.Time
	return nil
}

// GetByUser retrieves all active API tokens for a user
func (r *APITokenRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apiTokenColumns+`
		FROM api_tokens
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC`,
		pgUUID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*domain.APIToken
	for rows.Next() {
		token, err := scanAPIToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// GetByHash retrieves an active API token by its hash (for authentication)
func (r *APITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apiTokenColumns+`
		FROM api_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`,
		hash)
	token, err := scanAPIToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, err
	}
	return token, nil
}

// Revoke marks an API token as revoked
func (r *APITokenRepository) Revoke(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE api_tokens
		SET revoked_at = now()
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL`,
		pgUUID(id), pgUUID(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAPITokenNotFound
	}
	return nil
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func (r *APITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_tokens SET last_used_at = now() WHERE id = $1`,
		pgUUID(id))
	return err
}

func scanAPIToken(row pgx.Row) (*domain.APIToken, error) {
	var (
		id         pgtype.UUID
		userID     pgtype.UUID
		lastUsedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		revokedAt  pgtype.Timestamptz
		token      domain.APIToken
	)
	err := row.Scan(&id, &userID, &token.Description, &token.TokenHash,
		&token.TokenPrefix, &lastUsedAt, &createdAt, &revokedAt)
	if err != nil {
		return nil, err
	}

	token.ID = uuid.UUID(id.Bytes)
	token.UserID = uuid.UUID(userID.Bytes)
	token.CreatedAt = createdAt.Time
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}

	return &token, nil
}
