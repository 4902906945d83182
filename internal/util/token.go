package util

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/jmoiron/sqlx"
)

const ShareTokenLength = 64

// generateRandomToken : генерирует случайный токен длиной length символов
func generateRandomToken(length int) (string, error) {
	byteLength := (length + 1) / 2 // hex кодирует 1 байт = 2 символа
	bytes := make([]byte, byteLength)

	if _, err := rand.Read(bytes); err != nil {
		return "", LogError("[util] ошибка генерации токена", err)
	}

	return hex.EncodeToString(bytes)[:length], nil
}

// GenerateUniqueShareToken : генерирует токен, которого ещё нет в share_tokens
func GenerateUniqueShareToken(ctx context.Context, exec sqlx.QueryerContext) (string, error) {
	for {
		token, err := generateRandomToken(ShareTokenLength)
		if err != nil {
			return "", err
		}

		var exists bool
		err = sqlx.GetContext(ctx, exec, &exists, `SELECT EXISTS (SELECT 1 FROM share_tokens WHERE token = $1)`, token)
		if err != nil {
			return "", LogError("[util] ошибка проверки токена", err)
		}

		if !exists {
			return token, nil
		}
	}
}
