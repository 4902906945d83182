package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"signvault/config"
	"signvault/internal/model"
)

const (
	EventDocumentSigned   = "document.signed"
	EventDocumentRejected = "document.rejected"
	EventNewIPLogin       = "auth.new_ip"
)

// WebhookNotifier : POST JSON на webhook из конфигурации. Пустой URL отключает отправку.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type documentEvent struct {
	Event        string     `json:"event"`
	DocumentID   string     `json:"document_id"`
	OwnerID      string     `json:"owner_id"`
	Filename     string     `json:"filename"`
	Status       string     `json:"status"`
	SignerName   *string    `json:"signer_name,omitempty"`
	SignerEmail  *string    `json:"signer_email,omitempty"`
	RejectReason *string    `json:"reject_reason,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type loginEvent struct {
	Event  string    `json:"event"`
	UserID string    `json:"user_id"`
	NewIP  string    `json:"new_ip"`
	OldIP  string    `json:"old_ip"`
	Time   time.Time `json:"time"`
}

func NewWebhookNotifier(cfg *config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url: cfg.URL,
		client: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

// DocumentCompleted : владелец узнаёт о подписании или отклонении документа
func (n *WebhookNotifier) DocumentCompleted(ctx context.Context, document *model.Document) error {
	event := EventDocumentSigned
	if document.Status == model.StatusRejected {
		event = EventDocumentRejected
	}

	return n.post(ctx, documentEvent{
		Event:        event,
		DocumentID:   document.UUID,
		OwnerID:      document.OwnerUUID,
		Filename:     document.OriginalName,
		Status:       string(document.Status),
		SignerName:   document.SignerName,
		SignerEmail:  document.SignerEmail,
		RejectReason: document.RejectReason,
		CompletedAt:  document.CompletedAt,
	})
}

// NewIPLogin : обновление токенов с нового IP
func (n *WebhookNotifier) NewIPLogin(ctx context.Context, userUUID, newIP, oldIP string) error {
	return n.post(ctx, loginEvent{
		Event:  EventNewIPLogin,
		UserID: userUUID,
		NewIP:  newIP,
		OldIP:  oldIP,
		Time:   time.Now().UTC(),
	})
}

func (n *WebhookNotifier) post(ctx context.Context, payload any) error {
	if n.url == "" {
		slog.Debug("[Notifier] webhook не настроен, событие пропущено")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("[Notifier] ошибка сериализации события: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[Notifier] ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("[Notifier] ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("[Notifier] webhook ответил статусом %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
