package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"signvault/internal/handler"
	"signvault/internal/model"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

const (
	ownerUUID        = "owner-1"
	refreshTokenUUID = "rt-1"
)

type MockAuthenticationService struct{ mock.Mock }

func (m *MockAuthenticationService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error) {
	args := m.Called(ctx, email, password, userAgent, ipAddress)
	user, _ := args.Get(0).(*model.User)
	tokens, _ := args.Get(1).(*model.TokensPair)
	return user, tokens, args.Error(2)
}

func (m *MockAuthenticationService) RefreshToken(ctx context.Context, userAgent, ipAddress, accessToken, refreshToken string) (*model.TokensPair, error) {
	args := m.Called(ctx, userAgent, ipAddress, accessToken, refreshToken)
	tokens, _ := args.Get(0).(*model.TokensPair)
	return tokens, args.Error(1)
}

func (m *MockAuthenticationService) Logout(ctx context.Context, refreshTokenUUID string) error {
	return m.Called(ctx, refreshTokenUUID).Error(0)
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Register(ctx context.Context, name, email, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error) {
	args := m.Called(ctx, name, email, password, userAgent, ipAddress)
	user, _ := args.Get(0).(*model.User)
	tokens, _ := args.Get(1).(*model.TokensPair)
	return user, tokens, args.Error(2)
}

func (m *MockUserService) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	args := m.Called(ctx, uuid)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type MockDocumentService struct{ mock.Mock }

func (m *MockDocumentService) Upload(ctx context.Context, ownerUUID string, file ports.UploadedFile) (*model.GetDocumentResult, error) {
	args := m.Called(ctx, ownerUUID, file)
	result, _ := args.Get(0).(*model.GetDocumentResult)
	return result, args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context, ownerUUID string) ([]model.GetDocumentResult, error) {
	args := m.Called(ctx, ownerUUID)
	results, _ := args.Get(0).([]model.GetDocumentResult)
	return results, args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, documentUUID, ownerUUID string) (*model.GetDocumentResult, error) {
	args := m.Called(ctx, documentUUID, ownerUUID)
	result, _ := args.Get(0).(*model.GetDocumentResult)
	return result, args.Error(1)
}

func (m *MockDocumentService) DeleteDocument(ctx context.Context, documentUUID, ownerUUID string) error {
	return m.Called(ctx, documentUUID, ownerUUID).Error(0)
}

func (m *MockDocumentService) ListSignatures(ctx context.Context, documentUUID, ownerUUID string) ([]model.Signature, error) {
	args := m.Called(ctx, documentUUID, ownerUUID)
	signatures, _ := args.Get(0).([]model.Signature)
	return signatures, args.Error(1)
}

type MockShareService struct{ mock.Mock }

func (m *MockShareService) CreateShareLink(ctx context.Context, documentUUID, ownerUUID, signerEmail string) (*model.ShareLink, error) {
	args := m.Called(ctx, documentUUID, ownerUUID, signerEmail)
	link, _ := args.Get(0).(*model.ShareLink)
	return link, args.Error(1)
}

func (m *MockShareService) ListShares(ctx context.Context, documentUUID, ownerUUID string) ([]model.ShareToken, error) {
	args := m.Called(ctx, documentUUID, ownerUUID)
	tokens, _ := args.Get(0).([]model.ShareToken)
	return tokens, args.Error(1)
}

func (m *MockShareService) ResolveShare(ctx context.Context, token string) (*model.ShareView, error) {
	args := m.Called(ctx, token)
	view, _ := args.Get(0).(*model.ShareView)
	return view, args.Error(1)
}

func (m *MockShareService) Sign(ctx context.Context, token, signerName, signerEmail string) (*model.Document, error) {
	args := m.Called(ctx, token, signerName, signerEmail)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockShareService) Reject(ctx context.Context, token, reason string) (*model.Document, error) {
	args := m.Called(ctx, token, reason)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

type testServer struct {
	router *chi.Mux
	auth   *MockAuthenticationService
	users  *MockUserService
	docs   *MockDocumentService
	shares *MockShareService
}

// fakeAuth : любой Bearer токен считается валидной сессией ownerUUID
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := security.BearerToken(r); !ok {
			util.HandleError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		claims := &security.Claims{UserUUID: ownerUUID, RefreshTokenUUID: refreshTokenUUID}
		next.ServeHTTP(w, r.WithContext(security.WithClaims(r.Context(), claims)))
	})
}

func newTestServer(t *testing.T, maxUploadSize int64, checks map[string]handler.HealthCheck) *testServer {
	t.Helper()
	s := &testServer{
		router: chi.NewRouter(),
		auth:   new(MockAuthenticationService),
		users:  new(MockUserService),
		docs:   new(MockDocumentService),
		shares: new(MockShareService),
	}
	handler.RegisterRoutes(s.router, handler.Handlers{
		Auth:     handler.NewAuthenticationHandler(s.auth),
		User:     handler.NewUserHandler(s.users),
		Document: handler.NewDocumentHandler(s.docs, maxUploadSize),
		Share:    handler.NewShareHandler(s.shares),
		Health:   handler.NewHealthHandler(checks),
	}, fakeAuth)

	t.Cleanup(func() {
		s.auth.AssertExpectations(t)
		s.users.AssertExpectations(t)
		s.docs.AssertExpectations(t)
		s.shares.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, target, body string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	if authorized {
		req.Header.Set("Authorization", "Bearer access-token")
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}
