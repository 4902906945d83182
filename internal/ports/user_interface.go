package ports

import (
	"context"

	"github.com/jmoiron/sqlx"

	"signvault/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error)
	FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
}

type UserService interface {
	Register(ctx context.Context, name, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error)
	GetUser(ctx context.Context, uuid string) (*model.User, error)
}
