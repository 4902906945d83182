package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/util"
)

type SignatureRepository struct {
	database *config.Database
}

func NewSignatureRepository(database *config.Database) *SignatureRepository {
	return &SignatureRepository{database: database}
}

func (r *SignatureRepository) ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.Signature, error) {
	signatures := []model.Signature{}
	err := sqlx.SelectContext(ctx, exec, &signatures, `
		SELECT uuid, document_uuid, x, y, page, status, created_at
		FROM signatures
		WHERE document_uuid = $1
		ORDER BY page, created_at
	`, documentUUID)
	if err != nil {
		return nil, util.LogError("[SignatureRepo] не удалось получить места подписей", err)
	}
	return signatures, nil
}
