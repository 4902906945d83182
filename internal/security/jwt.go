package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/util"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
	issuer                    = "signvault"
)

type Claims struct {
	UserUUID         string `json:"user_uuid"`
	RefreshTokenUUID string `json:"refresh_token_id"`
	jwt.RegisteredClaims
}

// RefreshTokenFinder : нужен middleware, чтобы не пускать с токенами завершённой сессии
type RefreshTokenFinder interface {
	FindByUUID(ctx context.Context, uuid string) (*model.RefreshToken, error)
}

type JWTService struct {
	*config.JWTConfig
	now func() time.Time
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{JWTConfig: cfg, now: time.Now}
}

func (service *JWTService) GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error) {
	refreshToken, refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, nil, util.LogError("[JWTService] ошибка генерации рефреш токена", err)
	}

	now := service.now()
	refreshToken.UserUUID = userUUID
	refreshTTL, err := time.ParseDuration(service.RefreshTokenTTL)
	if err != nil {
		return nil, nil, util.LogError("[JWTService] ошибка парсинга refresh_token_ttl", err)
	}
	refreshToken.ExpireAt = now.Add(refreshTTL).UTC()

	accessTTL, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return nil, nil, util.LogError("[JWTService] ошибка парсинга access_token_ttl", err)
	}
	claims := Claims{
		UserUUID:         userUUID,
		RefreshTokenUUID: refreshToken.UUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	accessToken, err := jwtToken.SignedString([]byte(service.SecretKey))
	if err != nil {
		return nil, nil, util.LogError("[JWTService] ошибка подписи токена", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenStr,
	}, refreshToken, nil
}

func GenerateRefreshToken() (*model.RefreshToken, string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, "", util.LogError("[JWTService] ошибка генерации", err)
	}
	refreshTokenStr := base64.StdEncoding.EncodeToString(tokenBytes)

	hashedToken, err := bcrypt.GenerateFromPassword([]byte(refreshTokenStr), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", util.LogError("[JWTService] ошибка хэширования", err)
	}

	// refreshTokenStr отдается клиенту
	// hashedToken сохраняется в БД
	return &model.RefreshToken{
		UUID:      uuid.New().String(),
		TokenHash: string(hashedToken),
		Used:      false,
	}, refreshTokenStr, nil
}

// ValidateJWT : проверяет подпись и срок действия access токена
func (service *JWTService) ValidateJWT(jwtTokenStr string) (*Claims, error) {
	claims := &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return []byte(service.SecretKey), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(service.now))

	if err != nil || !jwtToken.Valid {
		return nil, fmt.Errorf("[JWTService] невалидный токен: %w", model.ErrUnauthorized)
	}

	return claims, nil
}

// ValidateJWTIgnoringExpiry : для refresh, где access токен уже мог истечь
func (service *JWTService) ValidateJWTIgnoringExpiry(jwtTokenStr string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return []byte(service.SecretKey), nil
	}, jwt.WithIssuer(issuer), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("[JWTService] невалидный токен: %w", model.ErrUnauthorized)
	}

	return claims, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BearerToken : достаёт токен из заголовка Authorization
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func JWTMiddleware(jwtService *JWTService, refreshTokens RefreshTokenFinder) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				util.HandleError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateJWT(token)
			if err != nil {
				slog.Debug("невалидный токен", "error", err)
				util.HandleError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			refreshToken, err := refreshTokens.FindByUUID(r.Context(), claims.RefreshTokenUUID)
			if err != nil {
				slog.Debug("рефреш токен не найден", "error", err)
				util.HandleError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if refreshToken.Used || refreshToken.UserUUID != claims.UserUUID {
				slog.Debug("сессия завершена", "refresh_token_uuid", claims.RefreshTokenUUID)
				util.HandleError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован: %w", model.ErrUnauthorized)
	}
	return claims, nil
}
