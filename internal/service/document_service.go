package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"signvault/internal/model"
	"signvault/internal/ports"
	"signvault/internal/util"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

type DocumentService struct {
	documentRepository  ports.DocumentRepository
	signatureRepository ports.SignatureRepository
	cacheRepository     ports.CacheRepository
	storageInterface    ports.S3Storage
	maxSize             int64
	ttl                 time.Duration
}

func NewDocumentService(
	documentRepository ports.DocumentRepository,
	signatureRepository ports.SignatureRepository,
	cacheRepository ports.CacheRepository,
	storageInterface ports.S3Storage,
	maxSize int64,
	ttl time.Duration,
) *DocumentService {
	return &DocumentService{
		documentRepository:  documentRepository,
		signatureRepository: signatureRepository,
		cacheRepository:     cacheRepository,
		storageInterface:    storageInterface,
		maxSize:             maxSize,
		ttl:                 ttl,
	}
}

// Upload : проверяет PDF, кладёт файл в S3 и сохраняет метаданные со статусом uploaded
func (s *DocumentService) Upload(ctx context.Context, ownerUUID string, file ports.UploadedFile) (*model.GetDocumentResult, error) {
	db, err := databaseFromContext(ctx, "DocumentService")
	if err != nil {
		return nil, err
	}

	if file.Size > s.maxSize {
		return nil, s.tooLarge()
	}

	content, err := io.ReadAll(io.LimitReader(file.Content, s.maxSize+1))
	if err != nil {
		return nil, util.LogError("[DocumentService] не удалось прочитать файл", err)
	}
	if int64(len(content)) > s.maxSize {
		return nil, s.tooLarge()
	}

	if !util.IsPDF(file.ContentType, content) {
		return nil, model.NewValidationError("file", "Only PDF files allowed!")
	}

	sum := sha256.Sum256(content)
	documentUUID := uuid.New().String()
	document := &model.Document{
		UUID:         documentUUID,
		OwnerUUID:    ownerUUID,
		Filename:     storageKey(ownerUUID, file.Name, documentUUID),
		OriginalName: file.Name,
		MimeType:     util.PDFMimeType,
		SizeBytes:    int64(len(content)),
		Sha256:       hex.EncodeToString(sum[:]),
		Status:       model.StatusUploaded,
	}

	if err := s.storageInterface.PutObject(ctx, document.Filename, bytes.NewReader(content), document.SizeBytes, util.PDFMimeType); err != nil {
		return nil, fmt.Errorf("[DocumentService] не удалось загрузить файл в S3: %w", err)
	}

	if err := s.documentRepository.Create(ctx, db, document); err != nil {
		if delErr := s.storageInterface.DeleteObject(ctx, document.Filename); delErr != nil {
			slog.Warn("[DocumentService] не удалось удалить осиротевший объект", "key", document.Filename, "error", delErr)
		}
		return nil, fmt.Errorf("[DocumentService] не удалось сохранить документ в БД: %w", err)
	}

	slog.Info("[DocumentService] документ загружен", "document", document.UUID, "size", humanize.IBytes(uint64(document.SizeBytes)))

	return &model.GetDocumentResult{Document: document, GetURL: s.presign(ctx, document)}, nil
}

func (s *DocumentService) tooLarge() error {
	return fmt.Errorf("[DocumentService] файл больше %s: %w", humanize.IBytes(uint64(s.maxSize)), model.ErrTooLarge)
}

// ListDocuments : документы владельца, новые сверху, с pre-signed URL
func (s *DocumentService) ListDocuments(ctx context.Context, ownerUUID string) ([]model.GetDocumentResult, error) {
	db, err := databaseFromContext(ctx, "DocumentService")
	if err != nil {
		return nil, err
	}

	docs, err := s.documentRepository.ListByOwner(ctx, db, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("[DocumentService] не удалось получить список документов: %w", err)
	}

	results := make([]model.GetDocumentResult, 0, len(docs))
	for i := range docs {
		results = append(results, model.GetDocumentResult{Document: &docs[i], GetURL: s.presign(ctx, &docs[i])})
	}
	return results, nil
}

// GetDocument : документ владельца, метаданные берутся из кэша Redis если есть
func (s *DocumentService) GetDocument(ctx context.Context, documentUUID, ownerUUID string) (*model.GetDocumentResult, error) {
	document, err := s.ownedDocument(ctx, documentUUID, ownerUUID)
	if err != nil {
		return nil, err
	}
	return &model.GetDocumentResult{Document: document, GetURL: s.presign(ctx, document)}, nil
}

// DeleteDocument помечает документ удалённым, инвалидирует кэш и удаляет файл из S3
func (s *DocumentService) DeleteDocument(ctx context.Context, documentUUID, ownerUUID string) error {
	exec, rollback, commit, err := s.documentRepository.BeginTX(ctx)
	if err != nil {
		return util.LogError("[DocumentService] ошибка начала транзакции", err)
	}
	defer rollback()

	document, err := s.documentRepository.GetByUUIDForUpdate(ctx, exec, documentUUID)
	if err != nil {
		return fmt.Errorf("[DocumentService] документ не найден: %w", err)
	}
	if document.OwnerUUID != ownerUUID {
		return fmt.Errorf("[DocumentService] только владелец может удалить документ: %w", model.ErrForbidden)
	}

	key, err := s.documentRepository.Delete(ctx, exec, documentUUID, ownerUUID)
	if err != nil {
		return fmt.Errorf("[DocumentService] ошибка удаления документа из БД: %w", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[DocumentService] ошибка коммита транзакции", err)
	}

	s.invalidate(ctx, documentUUID)

	// запись уже удалена, поэтому ошибка S3 только логируется
	if err := s.storageInterface.DeleteObject(ctx, key); err != nil {
		slog.Warn("[DocumentService] файл не удалён из S3", "key", key, "error", err)
	}

	slog.Info("[DocumentService] документ удалён", "document", documentUUID)
	return nil
}

func (s *DocumentService) ListSignatures(ctx context.Context, documentUUID, ownerUUID string) ([]model.Signature, error) {
	if _, err := s.ownedDocument(ctx, documentUUID, ownerUUID); err != nil {
		return nil, err
	}

	db, err := databaseFromContext(ctx, "DocumentService")
	if err != nil {
		return nil, err
	}

	signatures, err := s.signatureRepository.ListByDocument(ctx, db, documentUUID)
	if err != nil {
		return nil, fmt.Errorf("[DocumentService] не удалось получить подписи: %w", err)
	}
	return signatures, nil
}

func (s *DocumentService) ownedDocument(ctx context.Context, documentUUID, ownerUUID string) (*model.Document, error) {
	// версия читается до похода в БД, иначе инвалидация между чтением и записью потеряется
	document, version, err := s.cacheRepository.GetDocument(ctx, documentUUID)
	cacheable := err == nil
	if err != nil {
		slog.Warn("[DocumentService] ошибка чтения кэша", "document", documentUUID, "error", err)
		document = nil
	}

	if document == nil {
		db, err := databaseFromContext(ctx, "DocumentService")
		if err != nil {
			return nil, err
		}

		document, err = s.documentRepository.GetByUUID(ctx, db, documentUUID)
		if err != nil {
			return nil, fmt.Errorf("[DocumentService] документ не найден: %w", err)
		}

		if cacheable {
			stored, err := s.cacheRepository.SetDocument(ctx, document, version)
			if err != nil {
				slog.Warn("[DocumentService] ошибка кэширования документа", "document", documentUUID, "error", err)
			} else if !stored {
				slog.Debug("[DocumentService] документ изменился во время чтения, кэш не заполнен", "document", documentUUID)
			}
		}
	}

	if document.OwnerUUID != ownerUUID {
		return nil, fmt.Errorf("[DocumentService] доступ запрещён: %w", model.ErrForbidden)
	}
	return document, nil
}

func (s *DocumentService) presign(ctx context.Context, document *model.Document) string {
	url, err := s.storageInterface.GeneratePresignedGetURL(ctx, document.Filename, s.ttl)
	if err != nil {
		slog.Warn("[DocumentService] ошибка генерации pre-signed URL", "document", document.UUID, "error", err)
		return ""
	}
	return url
}

func (s *DocumentService) invalidate(ctx context.Context, documentUUID string) {
	if err := s.cacheRepository.DeleteDocument(ctx, documentUUID); err != nil {
		slog.Warn("[DocumentService] ошибка удаления документа из кэша", "document", documentUUID, "error", err)
	}
}

// storageKey : users/{owner}/documents/{имя}-{8 символов uuid}.pdf
func storageKey(ownerUUID, originalName, documentUUID string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	base = strings.Trim(unsafeKeyChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("users/%s/documents/%s-%s.pdf", ownerUUID, base, documentUUID[:8])
}
