package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"signvault/config"
	"signvault/internal/model"
)

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя, занятый email -> model.ErrConflict
func (r *UserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, name, email, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING uuid, name, email, created_at
	`

	createdUser := &model.User{}
	err := exec.QueryRowxContext(ctx, query, user.UUID, user.Name, user.Email, user.PasswordHash).
		Scan(&createdUser.UUID, &createdUser.Name, &createdUser.Email, &createdUser.CreatedAt)
	if err != nil {
		return nil, mapError("[UserRepo] ошибка вставки пользователя", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	query := `SELECT uuid, name, email, password_hash, created_at FROM users WHERE uuid = $1`
	var user model.User
	if err := sqlx.GetContext(ctx, exec, &user, query, uuid); err != nil {
		return nil, mapError("[UserRepo] не удалось найти пользователя", err)
	}
	return &user, nil
}

// FindByEmail : email сравнивается без учёта регистра
func (r *UserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	query := `SELECT uuid, name, email, password_hash, created_at FROM users WHERE LOWER(email) = LOWER($1)`
	var user model.User
	if err := sqlx.GetContext(ctx, exec, &user, query, email); err != nil {
		return nil, mapError("[UserRepo] не удалось найти пользователя по email", err)
	}
	return &user, nil
}
