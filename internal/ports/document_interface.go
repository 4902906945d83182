package ports

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"

	"signvault/internal/model"
)

// DocumentRepository : SQL слой
type DocumentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error)
	GetByUUIDForUpdate(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error)
	ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.Document, error)
	TransitionStatus(ctx context.Context, exec sqlx.ExtContext, documentUUID string, from, to model.DocumentStatus) (bool, error)
	Complete(ctx context.Context, exec sqlx.ExtContext, documentUUID string, completion model.Completion) (bool, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, documentUUID string, ownerUUID string) (string, error)
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

type SignatureRepository interface {
	ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.Signature, error)
}

// UploadedFile : файл из multipart запроса
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

type DocumentService interface {
	Upload(ctx context.Context, ownerUUID string, file UploadedFile) (*model.GetDocumentResult, error)
	ListDocuments(ctx context.Context, ownerUUID string) ([]model.GetDocumentResult, error)
	GetDocument(ctx context.Context, documentUUID, ownerUUID string) (*model.GetDocumentResult, error)
	DeleteDocument(ctx context.Context, documentUUID, ownerUUID string) error
	ListSignatures(ctx context.Context, documentUUID, ownerUUID string) ([]model.Signature, error)
}
