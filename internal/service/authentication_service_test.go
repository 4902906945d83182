package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signvault/internal/model"
	"signvault/internal/security"
	"signvault/internal/service"
)

func newTestAuthService() (*service.AuthenticationService, *MockJWTRepo, *MockJWTService, *MockUserRepository, *MockNotifier) {
	jwtRepo := new(MockJWTRepo)
	jwtService := new(MockJWTService)
	userRepo := new(MockUserRepository)
	notifier := newMockNotifier()
	return service.NewAuthenticationService(jwtRepo, jwtService, userRepo, notifier), jwtRepo, jwtService, userRepo, notifier
}

func hashedRefresh(t *testing.T, raw string) string {
	t.Helper()
	hash, err := security.HashPassword(raw)
	require.NoError(t, err)
	return hash
}

// ===== Login =====

func TestLogin_Success(t *testing.T) {
	svc, jwtRepo, jwtService, userRepo, _ := newTestAuthService()
	ctx := dbContext()

	hash, err := security.HashPassword("password123")
	require.NoError(t, err)
	user := &model.User{UUID: "u-1", Name: "Alice", Email: "a@x.com", PasswordHash: hash}
	refresh := &model.RefreshToken{UUID: "rt-1"}

	userRepo.On("FindByEmail", ctx, mock.Anything, "a@x.com").Return(user, nil)
	jwtService.On("GenerateAccessRefreshTokens", "u-1").Return(&model.TokensPair{AccessToken: "access", RefreshToken: "refresh"}, refresh, nil)
	jwtRepo.On("SaveRefreshToken", ctx, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UserAgent == "agent" && rt.IpAddress == "10.0.0.1"
	})).Return(nil)

	gotUser, tokens, err := svc.Login(ctx, "a@x.com", "password123", "agent", "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "Alice", gotUser.Name)
	assert.Equal(t, "access", tokens.AccessToken)
	jwtRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		svc, _, _, userRepo, _ := newTestAuthService()
		ctx := dbContext()
		userRepo.On("FindByEmail", ctx, mock.Anything, "ghost@x.com").Return(nil, model.ErrNotFound)

		_, _, err := svc.Login(ctx, "ghost@x.com", "password123", "agent", "ip")
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, jwtService, userRepo, _ := newTestAuthService()
		ctx := dbContext()
		hash, err := security.HashPassword("password123")
		require.NoError(t, err)
		userRepo.On("FindByEmail", ctx, mock.Anything, "a@x.com").Return(&model.User{UUID: "u-1", PasswordHash: hash}, nil)

		_, _, err = svc.Login(ctx, "a@x.com", "wrong-password", "agent", "ip")
		assert.ErrorIs(t, err, model.ErrUnauthorized)
		jwtService.AssertNotCalled(t, "GenerateAccessRefreshTokens", mock.Anything)
	})

	t.Run("database error is not unauthorized", func(t *testing.T) {
		svc, _, _, userRepo, _ := newTestAuthService()
		ctx := dbContext()
		userRepo.On("FindByEmail", ctx, mock.Anything, "a@x.com").Return(nil, errors.New("db down"))

		_, _, err := svc.Login(ctx, "a@x.com", "password123", "agent", "ip")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrUnauthorized)
	})
}

// ===== RefreshToken =====

func TestRefreshToken_Success(t *testing.T) {
	svc, jwtRepo, jwtService, _, _ := newTestAuthService()
	ctx := context.Background()

	jwtService.On("ValidateJWTIgnoringExpiry", "access").Return(&security.Claims{UserUUID: "u-1", RefreshTokenUUID: "rt-1"}, nil)
	jwtRepo.On("FindByUUID", ctx, "rt-1").Return(&model.RefreshToken{
		UUID:      "rt-1",
		TokenHash: hashedRefresh(t, "raw-refresh"),
		ExpireAt:  time.Now().Add(time.Hour).UTC(),
		UserAgent: "agent",
		IpAddress: "10.0.0.1",
	}, nil)
	jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)
	jwtService.On("GenerateAccessRefreshTokens", "u-1").Return(&model.TokensPair{AccessToken: "new-access"}, &model.RefreshToken{UUID: "rt-2"}, nil)
	jwtRepo.On("SaveRefreshToken", ctx, mock.Anything).Return(nil)

	tokens, err := svc.RefreshToken(ctx, "agent", "10.0.0.1", "access", "raw-refresh")

	require.NoError(t, err)
	assert.Equal(t, "new-access", tokens.AccessToken)
	jwtRepo.AssertExpectations(t)
}

func TestRefreshToken_NewIPSendsWebhook(t *testing.T) {
	svc, jwtRepo, jwtService, _, notifier := newTestAuthService()
	ctx := context.Background()

	jwtService.On("ValidateJWTIgnoringExpiry", "access").Return(&security.Claims{UserUUID: "u-1", RefreshTokenUUID: "rt-1"}, nil)
	jwtRepo.On("FindByUUID", ctx, "rt-1").Return(&model.RefreshToken{
		UUID:      "rt-1",
		TokenHash: hashedRefresh(t, "raw-refresh"),
		ExpireAt:  time.Now().Add(time.Hour).UTC(),
		UserAgent: "agent",
		IpAddress: "10.0.0.1",
	}, nil)
	jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)
	jwtService.On("GenerateAccessRefreshTokens", "u-1").Return(&model.TokensPair{AccessToken: "new-access"}, &model.RefreshToken{UUID: "rt-2"}, nil)
	jwtRepo.On("SaveRefreshToken", ctx, mock.Anything).Return(nil)

	_, err := svc.RefreshToken(ctx, "agent", "10.0.0.2", "access", "raw-refresh")
	require.NoError(t, err)

	select {
	case login := <-notifier.logins:
		assert.Equal(t, []string{"u-1", "10.0.0.2", "10.0.0.1"}, login)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook не был отправлен")
	}
}

func TestRefreshToken_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		stored      *model.RefreshToken
		userAgent   string
		refresh     string
		expectRevok bool
	}{
		{
			name:      "used",
			stored:    &model.RefreshToken{UUID: "rt-1", Used: true, ExpireAt: time.Now().Add(time.Hour), UserAgent: "agent"},
			userAgent: "agent",
			refresh:   "raw-refresh",
		},
		{
			name:      "expired",
			stored:    &model.RefreshToken{UUID: "rt-1", ExpireAt: time.Now().Add(-time.Hour), UserAgent: "agent"},
			userAgent: "agent",
			refresh:   "raw-refresh",
		},
		{
			name:        "user agent changed",
			stored:      &model.RefreshToken{UUID: "rt-1", ExpireAt: time.Now().Add(time.Hour), UserAgent: "agent"},
			userAgent:   "other-agent",
			refresh:     "raw-refresh",
			expectRevok: true,
		},
		{
			name:      "wrong refresh token",
			stored:    &model.RefreshToken{UUID: "rt-1", ExpireAt: time.Now().Add(time.Hour), UserAgent: "agent"},
			userAgent: "agent",
			refresh:   "another-refresh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, jwtRepo, jwtService, _, _ := newTestAuthService()
			ctx := context.Background()
			tt.stored.TokenHash = hashedRefresh(t, "raw-refresh")

			jwtService.On("ValidateJWTIgnoringExpiry", "access").Return(&security.Claims{UserUUID: "u-1", RefreshTokenUUID: "rt-1"}, nil)
			jwtRepo.On("FindByUUID", ctx, "rt-1").Return(tt.stored, nil)
			jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil).Maybe()

			_, err := svc.RefreshToken(ctx, tt.userAgent, "", "access", tt.refresh)

			assert.ErrorIs(t, err, model.ErrUnauthorized)
			if tt.expectRevok {
				jwtRepo.AssertCalled(t, "MarkRefreshTokenUsedByUUID", ctx, "rt-1")
			} else {
				jwtRepo.AssertNotCalled(t, "MarkRefreshTokenUsedByUUID", ctx, "rt-1")
			}
			jwtService.AssertNotCalled(t, "GenerateAccessRefreshTokens", mock.Anything)
		})
	}
}

func TestRefreshToken_InvalidAccessToken(t *testing.T) {
	svc, jwtRepo, jwtService, _, _ := newTestAuthService()

	jwtService.On("ValidateJWTIgnoringExpiry", "bad").Return(nil, model.ErrUnauthorized)

	_, err := svc.RefreshToken(context.Background(), "agent", "ip", "bad", "raw")

	assert.ErrorIs(t, err, model.ErrUnauthorized)
	jwtRepo.AssertNotCalled(t, "FindByUUID", mock.Anything, mock.Anything)
}

// ===== Logout =====

func TestLogout(t *testing.T) {
	svc, jwtRepo, _, _, _ := newTestAuthService()
	ctx := context.Background()

	jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-1").Return(nil)
	assert.NoError(t, svc.Logout(ctx, "rt-1"))

	jwtRepo.On("MarkRefreshTokenUsedByUUID", ctx, "rt-2").Return(model.ErrNotFound)
	assert.ErrorIs(t, svc.Logout(ctx, "rt-2"), model.ErrNotFound)
}
