package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"signvault/internal/model"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

// bcrypt учитывает только первые 72 байта пароля
const maxPasswordBytes = 72

type UserService struct {
	userRepository ports.UserRepository
	jwtService     ports.JWTServiceInterface
	jwtRepository  ports.JWTRepositoryInterface
}

func NewUserService(
	userRepository ports.UserRepository,
	jwtService ports.JWTServiceInterface,
	jwtRepository ports.JWTRepositoryInterface,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		jwtService:     jwtService,
		jwtRepository:  jwtRepository,
	}
}

// Register : создаёт пользователя и сразу выдаёт пару токенов
func (s *UserService) Register(ctx context.Context, name, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateRegistration(name, email, password); err != nil {
		return nil, nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	db, err := databaseFromContext(ctx, "UserService")
	if err != nil {
		return nil, nil, err
	}

	created, err := s.userRepository.CreateUser(ctx, db, &model.User{
		UUID:         uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	tokens, refreshToken, err := s.jwtService.GenerateAccessRefreshTokens(created.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] ошибка генерации токенов: %w", err)
	}

	refreshToken.UserAgent = userAgent
	refreshToken.IpAddress = ipAddress
	if err := s.jwtRepository.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("[UserService] не удалось сохранить refresh токен: %w", err)
	}

	return created, tokens, nil
}

func validateRegistration(name, email, password string) error {
	if utf8.RuneCountInString(name) < 2 {
		return model.NewValidationError("name", "Name must be at least 2 characters")
	}
	if !util.IsValidEmail(email) {
		return model.NewValidationError("email", "Enter a valid email address")
	}
	if len(password) < 8 {
		return model.NewValidationError("password", "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return model.NewValidationError("password", "Password must be at most 72 characters")
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	db, err := databaseFromContext(ctx, "UserService")
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.FindByUUID(ctx, db, uuid)
	if err != nil {
		return nil, fmt.Errorf("[UserService] пользователь не найден: %w", err)
	}
	return user, nil
}
