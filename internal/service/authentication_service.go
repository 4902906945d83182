package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"signvault/internal/model"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

var errInvalidCredentials = fmt.Errorf("[AuthenticationService] неверный email или пароль: %w", model.ErrUnauthorized)

type AuthenticationService struct {
	jwtRepoInterface    ports.JWTRepositoryInterface
	jwtServiceInterface ports.JWTServiceInterface
	userRepository      ports.UserRepository
	notifier            ports.Notifier
	now                 func() time.Time
}

func NewAuthenticationService(
	repo ports.JWTRepositoryInterface,
	service ports.JWTServiceInterface,
	userInterface ports.UserRepository,
	notifier ports.Notifier,
) *AuthenticationService {
	return &AuthenticationService{
		jwtRepoInterface:    repo,
		jwtServiceInterface: service,
		userRepository:      userInterface,
		notifier:            notifier,
		now:                 time.Now,
	}
}

func (s *AuthenticationService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error) {
	db, err := databaseFromContext(ctx, "AuthenticationService")
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepository.FindByEmail(ctx, db, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, errInvalidCredentials
	} else if err != nil {
		return nil, nil, fmt.Errorf("[AuthenticationService] ошибка поиска пользователя: %w", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, errInvalidCredentials
	}

	tokens, refreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(user.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("[AuthenticationService] ошибка генерации токенов: %w", err)
	}

	refreshToken.UserAgent = userAgent
	refreshToken.IpAddress = ipAddress

	if err := s.jwtRepoInterface.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("[AuthenticationService] ошибка сохранения refresh токена: %w", err)
	}

	return user, tokens, nil
}

// RefreshToken обновляет пару токенов.
//  1. Обновить можно только той парой, которая была выдана вместе.
//  2. При смене User-Agent операция запрещается, а сессия завершается.
//  3. При обновлении с нового IP отправляется webhook, операция не запрещается.
//
// Access токен может быть просрочен, проверяется только подпись.
func (s *AuthenticationService) RefreshToken(ctx context.Context, userAgent string, ipAddress string, accessToken string, refreshToken string) (*model.TokensPair, error) {
	claims, err := s.jwtServiceInterface.ValidateJWTIgnoringExpiry(accessToken)
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService] не удалось провалидировать токен: %w", err)
	}

	refreshTokenUUID := claims.RefreshTokenUUID
	userUUID := claims.UserUUID

	storedRefreshToken, err := s.jwtRepoInterface.FindByUUID(ctx, refreshTokenUUID)
	if err != nil {
		return nil, fmt.Errorf("[AuthenticationService] рефреш токен не найден: %w", model.ErrUnauthorized)
	}
	if storedRefreshToken.Used {
		slog.Warn("[AuthenticationService] refresh token уже был использован", "token", refreshTokenUUID)
		return nil, fmt.Errorf("[AuthenticationService] невалидный токен: %w", model.ErrUnauthorized)
	}

	if s.now().UTC().After(storedRefreshToken.ExpireAt) {
		slog.Warn("[AuthenticationService] refresh token просрочен", "token", refreshTokenUUID)
		return nil, fmt.Errorf("[AuthenticationService] невалидный токен: %w", model.ErrUnauthorized)
	}

	if storedRefreshToken.UserAgent != userAgent {
		if err := s.jwtRepoInterface.MarkRefreshTokenUsedByUUID(ctx, refreshTokenUUID); err != nil {
			slog.Warn("[AuthenticationService] не удалось пометить токен использованным", "error", err)
		}
		slog.Warn("[AuthenticationService] попытка обновления с другого User-Agent", "token", refreshTokenUUID)
		return nil, fmt.Errorf("[AuthenticationService] невалидный токен: %w", model.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedRefreshToken.TokenHash), []byte(refreshToken)); err != nil {
		return nil, fmt.Errorf("[AuthenticationService] невалидный токен: %w", model.ErrUnauthorized)
	}

	if storedRefreshToken.IpAddress != ipAddress {
		slog.Info("[AuthenticationService] обнаружен вход с нового ip адреса, отправка webhook", "user", userUUID)
		oldIP := storedRefreshToken.IpAddress
		go func() {
			if err := s.notifier.NewIPLogin(context.WithoutCancel(ctx), userUUID, ipAddress, oldIP); err != nil {
				slog.Warn("[AuthenticationService] ошибка отправки webhook", "error", err)
			}
		}()
	}

	if err := s.jwtRepoInterface.MarkRefreshTokenUsedByUUID(ctx, refreshTokenUUID); err != nil {
		return nil, fmt.Errorf("[AuthenticationService] не удалось использовать токен: %w", model.ErrUnauthorized)
	}

	tokensPair, newRefreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(userUUID)
	if err != nil {
		return nil, util.LogError("[AuthenticationService] ошибка генерации токенов", err)
	}

	newRefreshToken.UserAgent = userAgent
	newRefreshToken.IpAddress = ipAddress
	if err := s.jwtRepoInterface.SaveRefreshToken(ctx, newRefreshToken); err != nil {
		return nil, util.LogError("[AuthenticationService] не удалось сохранить рефреш токен", err)
	}

	return tokensPair, nil
}

// Logout помечает refresh-токен использованным, access токены этой сессии перестают работать
func (s *AuthenticationService) Logout(ctx context.Context, refreshTokenUUID string) error {
	if err := s.jwtRepoInterface.MarkRefreshTokenUsedByUUID(ctx, refreshTokenUUID); err != nil {
		return fmt.Errorf("[AuthenticationService] не удалось завершить сессию: %w", err)
	}
	return nil
}
