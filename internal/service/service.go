package service

import (
	"context"
	"fmt"

	"signvault/config"
	"signvault/internal/model"
)

// databaseFromContext : соединение кладёт config.DBMiddleware
func databaseFromContext(ctx context.Context, component string) (*config.Database, error) {
	db, ok := config.DatabaseFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("[%s] database connection не найден в context: %w", component, model.ErrInternal)
	}
	return db, nil
}
