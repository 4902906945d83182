package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/util"
)

const documentColumns = `uuid, owner_uuid, filename, original_name, mime_type, size_bytes, sha256, status,
		signer_name, signer_email, reject_reason, completed_at, created_at, updated_at, deleted_at`

type DocumentRepository struct {
	*config.Database
}

func NewDocumentRepository(database *config.Database) *DocumentRepository {
	return &DocumentRepository{database}
}

// Create : сохраняем новый документ, created_at/updated_at выставляет БД
func (r *DocumentRepository) Create(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error {
	query := `
		INSERT INTO documents (uuid, owner_uuid, filename, original_name, mime_type, size_bytes, sha256, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := exec.QueryRowxContext(
		ctx,
		query,
		document.UUID,
		document.OwnerUUID,
		document.Filename,
		document.OriginalName,
		document.MimeType,
		document.SizeBytes,
		document.Sha256,
		document.Status,
	).Scan(&document.CreatedAt, &document.UpdatedAt)
	if err != nil {
		return mapError("[DocumentRepo] не удалось сохранить документ", err)
	}

	return nil
}

// GetByUUID : документ без учёта владельца, удалённые не возвращаются
func (r *DocumentRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE uuid = $1 AND deleted_at IS NULL`

	var document model.Document
	if err := sqlx.GetContext(ctx, exec, &document, query, documentUUID); err != nil {
		return nil, mapError("[DocumentRepo] документ не найден", err)
	}
	return &document, nil
}

// GetByUUIDForUpdate : то же, но с блокировкой строки до конца транзакции
func (r *DocumentRepository) GetByUUIDForUpdate(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE uuid = $1 AND deleted_at IS NULL FOR UPDATE`

	var document model.Document
	if err := sqlx.GetContext(ctx, exec, &document, query, documentUUID); err != nil {
		return nil, mapError("[DocumentRepo] документ не найден", err)
	}
	return &document, nil
}

// ListByOwner : документы владельца, новые сверху
func (r *DocumentRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_uuid = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	docs := []model.Document{}
	if err := sqlx.SelectContext(ctx, exec, &docs, query, ownerUUID); err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось получить список документов", err)
	}
	return docs, nil
}

// TransitionStatus : compare-and-swap статуса, false если документ уже не в статусе from
func (r *DocumentRepository) TransitionStatus(ctx context.Context, exec sqlx.ExtContext, documentUUID string, from, to model.DocumentStatus) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("[DocumentRepo] переход %s -> %s запрещён: %w", from, to, model.ErrConflict)
	}

	result, err := exec.ExecContext(ctx, `
		UPDATE documents
		SET status = $3, updated_at = NOW()
		WHERE uuid = $1 AND status = $2 AND deleted_at IS NULL
	`, documentUUID, from, to)
	if err != nil {
		return false, util.LogError("[DocumentRepo] не удалось изменить статус документа", err)
	}

	return affectedOne(result)
}

// Complete : pending -> signed|rejected вместе с данными подписанта, false если статус уже не pending
func (r *DocumentRepository) Complete(ctx context.Context, exec sqlx.ExtContext, documentUUID string, completion model.Completion) (bool, error) {
	if !model.StatusPending.CanTransition(completion.Status) {
		return false, fmt.Errorf("[DocumentRepo] статус %s не является завершающим: %w", completion.Status, model.ErrConflict)
	}

	result, err := exec.ExecContext(ctx, `
		UPDATE documents
		SET status = $2,
		    signer_name = NULLIF($3, ''),
		    signer_email = NULLIF($4, ''),
		    reject_reason = NULLIF($5, ''),
		    completed_at = $6,
		    updated_at = $6
		WHERE uuid = $1 AND status = 'pending' AND deleted_at IS NULL
	`, documentUUID, completion.Status, completion.SignerName, completion.SignerEmail, completion.RejectReason, completion.CompletedAt)
	if err != nil {
		return false, util.LogError("[DocumentRepo] не удалось завершить документ", err)
	}

	return affectedOne(result)
}

// Delete : только владелец может удалить документ, возвращает ключ файла в S3
func (r *DocumentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, documentUUID string, ownerUUID string) (string, error) {
	query := `
		UPDATE documents
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE uuid = $1 AND owner_uuid = $2 AND deleted_at IS NULL
		RETURNING filename
	`

	var filename string
	if err := sqlx.GetContext(ctx, exec, &filename, query, documentUUID, ownerUUID); err != nil {
		return "", mapError("[DocumentRepo] не удалось удалить документ", err)
	}

	return filename, nil
}

func (r *DocumentRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, tx.Rollback, tx.Commit, nil
}
