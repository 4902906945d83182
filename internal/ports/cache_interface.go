package ports

import (
	"context"

	"signvault/internal/model"
)

// CacheRepository : Redis слой. Каждая инвалидация увеличивает версию ключа документа,
// запись в кэш проходит только при той версии, что была прочитана до похода в БД.
type CacheRepository interface {
	// GetDocument : документ (nil при промахе) и текущая версия ключа
	GetDocument(ctx context.Context, uuid string) (*model.Document, int64, error)
	// SetDocument : false, если документ инвалидировали после чтения версии
	SetDocument(ctx context.Context, document *model.Document, version int64) (bool, error)
	DeleteDocument(ctx context.Context, uuid string) error
}
