package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/util"
)

const shareColumns = `token, document_uuid, signer_email, created_at, expires_at, consumed_at`

type ShareRepository struct {
	database *config.Database
}

func NewShareRepository(database *config.Database) *ShareRepository {
	return &ShareRepository{database: database}
}

func (r *ShareRepository) NewToken(ctx context.Context, exec sqlx.ExtContext) (string, error) {
	return util.GenerateUniqueShareToken(ctx, exec)
}

// Create : сохраняет токен, created_at выставляет БД
func (r *ShareRepository) Create(ctx context.Context, exec sqlx.ExtContext, token *model.ShareToken) error {
	query := `
		INSERT INTO share_tokens (token, document_uuid, signer_email, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := exec.QueryRowxContext(ctx, query, token.Token, token.DocumentUUID, token.SignerEmail, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		return mapError("[ShareRepo] не удалось сохранить токен", err)
	}
	return nil
}

func (r *ShareRepository) GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.ShareToken, error) {
	var shareToken model.ShareToken
	err := sqlx.GetContext(ctx, exec, &shareToken, `SELECT `+shareColumns+` FROM share_tokens WHERE token = $1`, token)
	if err != nil {
		return nil, mapError("[ShareRepo] токен не найден", err)
	}
	return &shareToken, nil
}

func (r *ShareRepository) ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.ShareToken, error) {
	tokens := []model.ShareToken{}
	err := sqlx.SelectContext(ctx, exec, &tokens, `
		SELECT `+shareColumns+`
		FROM share_tokens
		WHERE document_uuid = $1
		ORDER BY created_at DESC
	`, documentUUID)
	if err != nil {
		return nil, util.LogError("[ShareRepo] не удалось получить список токенов", err)
	}
	return tokens, nil
}

// Consume : помечает токен использованным, false если его уже использовали
func (r *ShareRepository) Consume(ctx context.Context, exec sqlx.ExtContext, token string, at time.Time) (bool, error) {
	result, err := exec.ExecContext(ctx, `
		UPDATE share_tokens
		SET consumed_at = $2
		WHERE token = $1 AND consumed_at IS NULL
	`, token, at)
	if err != nil {
		return false, util.LogError("[ShareRepo] не удалось использовать токен", err)
	}
	return affectedOne(result)
}
