package ports

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"signvault/internal/model"
)

type ShareRepository interface {
	NewToken(ctx context.Context, exec sqlx.ExtContext) (string, error)
	Create(ctx context.Context, exec sqlx.ExtContext, token *model.ShareToken) error
	GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.ShareToken, error)
	ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.ShareToken, error)
	Consume(ctx context.Context, exec sqlx.ExtContext, token string, at time.Time) (bool, error)
}

type ShareService interface {
	CreateShareLink(ctx context.Context, documentUUID, ownerUUID, signerEmail string) (*model.ShareLink, error)
	ListShares(ctx context.Context, documentUUID, ownerUUID string) ([]model.ShareToken, error)
	ResolveShare(ctx context.Context, token string) (*model.ShareView, error)
	Sign(ctx context.Context, token, signerName, signerEmail string) (*model.Document, error)
	Reject(ctx context.Context, token, reason string) (*model.Document, error)
}

// Notifier : уведомление владельца о подписании или отклонении
type Notifier interface {
	DocumentCompleted(ctx context.Context, document *model.Document) error
	NewIPLogin(ctx context.Context, userUUID, newIP, oldIP string) error
}
