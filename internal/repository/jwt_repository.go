package repository

import (
	"context"
	"fmt"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/util"
)

type JWTRepository struct {
	*config.Database
}

func NewJWTRepository(database *config.Database) *JWTRepository {
	return &JWTRepository{database}
}

// SaveRefreshToken сохраняет refresh-токен в базе данных
func (r *JWTRepository) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (uuid, user_uuid, token_hash, expire_at, used, user_agent, ip_address)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		refreshToken.UUID,
		refreshToken.UserUUID,
		refreshToken.TokenHash,
		refreshToken.ExpireAt,
		refreshToken.Used,
		refreshToken.UserAgent,
		refreshToken.IpAddress,
	)
	if err != nil {
		return util.LogError("[JWTRepo] ошибка вставки refresh токена", err)
	}

	return nil
}

// MarkRefreshTokenUsedByUUID : used = true, ErrNotFound если токен уже использован или не существует
func (r *JWTRepository) MarkRefreshTokenUsedByUUID(ctx context.Context, refreshTokenUUID string) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE refresh_tokens SET used = TRUE WHERE uuid = $1 AND used = FALSE`, refreshTokenUUID)
	if err != nil {
		return util.LogError("[JWTRepo] не удалось обновить рефреш токен", err)
	}

	updated, err := affectedOne(result)
	if err != nil {
		return util.LogError("[JWTRepo] не удалось проверить, обновлен ли токен", err)
	}
	if !updated {
		return fmt.Errorf("[JWTRepo] активный токен %s не найден: %w", refreshTokenUUID, model.ErrNotFound)
	}

	return nil
}

// FindByUUID ищет refresh-токен в базе данных
func (r *JWTRepository) FindByUUID(ctx context.Context, refreshTokenUUID string) (*model.RefreshToken, error) {
	query := `SELECT uuid, user_uuid, token_hash, expire_at, used, user_agent, ip_address, created_at
		FROM refresh_tokens WHERE uuid = $1`

	refreshToken := &model.RefreshToken{}
	if err := r.DB.GetContext(ctx, refreshToken, query, refreshTokenUUID); err != nil {
		return nil, mapError("[JWTRepo] токен не был найден", err)
	}

	return refreshToken, nil
}
