package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/ports"
	"signvault/internal/util"
)

const maxRejectReasonLength = 1000

type ShareService struct {
	documentRepository ports.DocumentRepository
	shareRepository    ports.ShareRepository
	cacheRepository    ports.CacheRepository
	storageInterface   ports.S3Storage
	notifier           ports.Notifier
	baseURL            string
	tokenTTL           time.Duration
	urlTTL             time.Duration
	now                func() time.Time
}

type ShareOption func(*ShareService)

// WithClock : подмена времени, используется в тестах истечения токенов
func WithClock(now func() time.Time) ShareOption {
	return func(s *ShareService) {
		s.now = now
	}
}

func NewShareService(
	documentRepository ports.DocumentRepository,
	shareRepository ports.ShareRepository,
	cacheRepository ports.CacheRepository,
	storageInterface ports.S3Storage,
	notifier ports.Notifier,
	cfg *config.ShareConfig,
	urlTTL time.Duration,
	opts ...ShareOption,
) *ShareService {
	s := &ShareService{
		documentRepository: documentRepository,
		shareRepository:    shareRepository,
		cacheRepository:    cacheRepository,
		storageInterface:   storageInterface,
		notifier:           notifier,
		baseURL:            strings.TrimRight(cfg.PublicBaseURL, "/"),
		tokenTTL:           cfg.TokenLifetime(),
		urlTTL:             urlTTL,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShareLink : выпускает токен для подписанта и переводит документ uploaded -> pending
func (s *ShareService) CreateShareLink(ctx context.Context, documentUUID, ownerUUID, signerEmail string) (*model.ShareLink, error) {
	signerEmail = strings.TrimSpace(signerEmail)
	if signerEmail != "" && !util.IsValidEmail(signerEmail) {
		return nil, model.NewValidationError("signerEmail", "Enter a valid email address")
	}

	exec, rollback, commit, err := s.documentRepository.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[ShareService] ошибка начала транзакции", err)
	}
	defer rollback()

	document, err := s.documentRepository.GetByUUIDForUpdate(ctx, exec, documentUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] документ не найден: %w", err)
	}
	if document.OwnerUUID != ownerUUID {
		return nil, fmt.Errorf("[ShareService] только владелец может делиться документом: %w", model.ErrForbidden)
	}
	if document.Status.Terminal() {
		return nil, fmt.Errorf("[ShareService] документ уже %s: %w", document.Status, model.ErrConflict)
	}

	token, err := s.shareRepository.NewToken(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось сгенерировать токен: %w", err)
	}

	shareToken := &model.ShareToken{
		Token:        token,
		DocumentUUID: documentUUID,
	}
	if signerEmail != "" {
		shareToken.SignerEmail = &signerEmail
	}
	if s.tokenTTL > 0 {
		expiresAt := s.now().Add(s.tokenTTL).UTC()
		shareToken.ExpiresAt = &expiresAt
	}

	if err := s.shareRepository.Create(ctx, exec, shareToken); err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось сохранить токен: %w", err)
	}

	if document.Status == model.StatusUploaded {
		moved, err := s.documentRepository.TransitionStatus(ctx, exec, documentUUID, model.StatusUploaded, model.StatusPending)
		if err != nil {
			return nil, fmt.Errorf("[ShareService] не удалось изменить статус: %w", err)
		}
		if !moved {
			return nil, fmt.Errorf("[ShareService] статус документа изменился: %w", model.ErrConflict)
		}
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[ShareService] ошибка коммита транзакции", err)
	}

	s.invalidate(ctx, documentUUID)

	slog.Info("[ShareService] выпущена ссылка на подпись", "document", documentUUID)
	return &model.ShareLink{Token: token, URL: s.baseURL + "/sign/" + token}, nil
}

// ListShares : все выпущенные токены документа, только для владельца
func (s *ShareService) ListShares(ctx context.Context, documentUUID, ownerUUID string) ([]model.ShareToken, error) {
	db, err := databaseFromContext(ctx, "ShareService")
	if err != nil {
		return nil, err
	}

	document, err := s.documentRepository.GetByUUID(ctx, db, documentUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] документ не найден: %w", err)
	}
	if document.OwnerUUID != ownerUUID {
		return nil, fmt.Errorf("[ShareService] доступ запрещён: %w", model.ErrForbidden)
	}

	tokens, err := s.shareRepository.ListByDocument(ctx, db, documentUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось получить токены: %w", err)
	}
	return tokens, nil
}

// ResolveShare : документ по токену. Завершённые документы отдаются всегда,
// ожидающие подписи только пока токен не истёк.
func (s *ShareService) ResolveShare(ctx context.Context, token string) (*model.ShareView, error) {
	db, err := databaseFromContext(ctx, "ShareService")
	if err != nil {
		return nil, err
	}

	shareToken, err := s.shareRepository.GetByToken(ctx, db, token)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] ссылка не найдена: %w", err)
	}

	document, err := s.documentRepository.GetByUUID(ctx, db, shareToken.DocumentUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] документ не найден: %w", err)
	}

	if document.Status == model.StatusPending && shareToken.Expired(s.now()) {
		return nil, fmt.Errorf("[ShareService] срок действия ссылки истёк: %w", model.ErrGone)
	}

	view := &model.ShareView{Document: document}
	if shareToken.SignerEmail != nil {
		view.SignerEmail = *shareToken.SignerEmail
	}

	url, err := s.storageInterface.GeneratePresignedGetURL(ctx, document.Filename, s.urlTTL)
	if err != nil {
		slog.Warn("[ShareService] ошибка генерации pre-signed URL", "document", document.UUID, "error", err)
	}
	view.GetURL = url

	return view, nil
}

// Sign : pending -> signed, токен расходуется
func (s *ShareService) Sign(ctx context.Context, token, signerName, signerEmail string) (*model.Document, error) {
	signerName = strings.TrimSpace(signerName)
	signerEmail = strings.TrimSpace(signerEmail)
	if signerName == "" {
		return nil, model.NewValidationError("signerName", "Signer name is required")
	}
	if !util.IsValidEmail(signerEmail) {
		return nil, model.NewValidationError("signerEmail", "Enter a valid email address")
	}

	return s.complete(ctx, token, model.Completion{
		Status:      model.StatusSigned,
		SignerName:  signerName,
		SignerEmail: signerEmail,
	})
}

// Reject : pending -> rejected, причина необязательна
func (s *ShareService) Reject(ctx context.Context, token, reason string) (*model.Document, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxRejectReasonLength {
		return nil, model.NewValidationError("reason", fmt.Sprintf("Reason must be at most %d characters", maxRejectReasonLength))
	}

	return s.complete(ctx, token, model.Completion{
		Status:       model.StatusRejected,
		RejectReason: reason,
	})
}

// complete : в одной транзакции расходует токен и меняет статус документа.
// Любой промах compare-and-swap означает, что кто-то успел раньше.
func (s *ShareService) complete(ctx context.Context, token string, completion model.Completion) (*model.Document, error) {
	exec, rollback, commit, err := s.documentRepository.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[ShareService] ошибка начала транзакции", err)
	}
	defer rollback()

	shareToken, err := s.shareRepository.GetByToken(ctx, exec, token)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] ссылка не найдена: %w", err)
	}

	document, err := s.documentRepository.GetByUUIDForUpdate(ctx, exec, shareToken.DocumentUUID)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] документ не найден: %w", err)
	}

	if document.Status != model.StatusPending || shareToken.Consumed() {
		return nil, fmt.Errorf("[ShareService] документ уже %s: %w", document.Status, model.ErrConflict)
	}

	now := s.now().UTC()
	if shareToken.Expired(now) {
		return nil, fmt.Errorf("[ShareService] срок действия ссылки истёк: %w", model.ErrGone)
	}

	consumed, err := s.shareRepository.Consume(ctx, exec, token, now)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось использовать токен: %w", err)
	}
	if !consumed {
		return nil, fmt.Errorf("[ShareService] ссылка уже использована: %w", model.ErrConflict)
	}

	completion.CompletedAt = now
	completed, err := s.documentRepository.Complete(ctx, exec, document.UUID, completion)
	if err != nil {
		return nil, fmt.Errorf("[ShareService] не удалось завершить документ: %w", err)
	}
	if !completed {
		return nil, fmt.Errorf("[ShareService] документ уже завершён: %w", model.ErrConflict)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[ShareService] ошибка коммита транзакции", err)
	}

	applyCompletion(document, completion)
	s.invalidate(ctx, document.UUID)

	slog.Info("[ShareService] документ завершён", "document", document.UUID, "status", document.Status)

	notified := *document
	go func() {
		if err := s.notifier.DocumentCompleted(context.WithoutCancel(ctx), &notified); err != nil {
			slog.Warn("[ShareService] ошибка отправки webhook", "document", notified.UUID, "error", err)
		}
	}()

	return document, nil
}

func applyCompletion(document *model.Document, completion model.Completion) {
	document.Status = completion.Status
	document.SignerName = optional(completion.SignerName)
	document.SignerEmail = optional(completion.SignerEmail)
	document.RejectReason = optional(completion.RejectReason)
	completedAt := completion.CompletedAt
	document.CompletedAt = &completedAt
	document.UpdatedAt = completedAt
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *ShareService) invalidate(ctx context.Context, documentUUID string) {
	if err := s.cacheRepository.DeleteDocument(ctx, documentUUID); err != nil {
		slog.Warn("[ShareService] ошибка удаления документа из кэша", "document", documentUUID, "error", err)
	}
}
