package service_test

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"signvault/config"
	"signvault/internal/model"
	"signvault/internal/security"
)

func dbContext() context.Context {
	return config.WithDatabase(context.Background(), &config.Database{})
}

// ===== DocumentRepository =====

type MockDocumentRepository struct{ mock.Mock }

func (m *MockDocumentRepository) Create(ctx context.Context, exec sqlx.ExtContext, doc *model.Document) error {
	return m.Called(ctx, exec, doc).Error(0)
}

func (m *MockDocumentRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error) {
	args := m.Called(ctx, exec, documentUUID)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) GetByUUIDForUpdate(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error) {
	args := m.Called(ctx, exec, documentUUID)
	if doc, ok := args.Get(0).(*model.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.Document, error) {
	args := m.Called(ctx, exec, ownerUUID)
	if docs, ok := args.Get(0).([]model.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) TransitionStatus(ctx context.Context, exec sqlx.ExtContext, documentUUID string, from, to model.DocumentStatus) (bool, error) {
	args := m.Called(ctx, exec, documentUUID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) Complete(ctx context.Context, exec sqlx.ExtContext, documentUUID string, completion model.Completion) (bool, error) {
	args := m.Called(ctx, exec, documentUUID, completion)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, docID string, ownerUUID string) (string, error) {
	args := m.Called(ctx, exec, docID, ownerUUID)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(sqlx.ExtContext), args.Get(1).(func() error), args.Get(2).(func() error), args.Error(3)
}

// expectTx : BeginTX с фиксацией вызовов commit/rollback
func (m *MockDocumentRepository) expectTx() *txState {
	state := &txState{}
	m.On("BeginTX", mock.Anything).Return(
		sqlx.ExtContext(&fakeTx{}),
		func() error { state.rolledBack = true; return nil },
		func() error { state.committed = true; return nil },
		nil,
	)
	return state
}

type txState struct {
	committed  bool
	rolledBack bool
}

// ===== SignatureRepository =====

type MockSignatureRepository struct{ mock.Mock }

func (m *MockSignatureRepository) ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.Signature, error) {
	args := m.Called(ctx, exec, documentUUID)
	if s, ok := args.Get(0).([]model.Signature); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== ShareRepository =====

type MockShareRepository struct{ mock.Mock }

func (m *MockShareRepository) NewToken(ctx context.Context, exec sqlx.ExtContext) (string, error) {
	args := m.Called(ctx, exec)
	return args.String(0), args.Error(1)
}

func (m *MockShareRepository) Create(ctx context.Context, exec sqlx.ExtContext, token *model.ShareToken) error {
	return m.Called(ctx, exec, token).Error(0)
}

func (m *MockShareRepository) GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.ShareToken, error) {
	args := m.Called(ctx, exec, token)
	if t, ok := args.Get(0).(*model.ShareToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockShareRepository) ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.ShareToken, error) {
	args := m.Called(ctx, exec, documentUUID)
	if t, ok := args.Get(0).([]model.ShareToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockShareRepository) Consume(ctx context.Context, exec sqlx.ExtContext, token string, at time.Time) (bool, error) {
	args := m.Called(ctx, exec, token, at)
	return args.Bool(0), args.Error(1)
}

// ===== CacheRepository =====

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) SetDocument(ctx context.Context, doc *model.Document, version int64) (bool, error) {
	args := m.Called(ctx, doc, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetDocument(ctx context.Context, uuid string) (*model.Document, int64, error) {
	args := m.Called(ctx, uuid)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Get(1).(int64), args.Error(2)
}

func (m *MockCacheRepository) DeleteDocument(ctx context.Context, uuid string) error {
	return m.Called(ctx, uuid).Error(0)
}

// ===== S3Storage =====

type MockS3Storage struct{ mock.Mock }

func (m *MockS3Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, body, size, contentType).Error(0)
}

func (m *MockS3Storage) GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	args := m.Called(ctx, key, expire)
	return args.String(0), args.Error(1)
}

func (m *MockS3Storage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// ===== Notifier =====

// MockNotifier : вызовы идут из горутин, поэтому складываются в каналы
type MockNotifier struct {
	completed chan *model.Document
	logins    chan []string
}

func newMockNotifier() *MockNotifier {
	return &MockNotifier{
		completed: make(chan *model.Document, 16),
		logins:    make(chan []string, 16),
	}
}

func (m *MockNotifier) DocumentCompleted(ctx context.Context, document *model.Document) error {
	m.completed <- document
	return nil
}

func (m *MockNotifier) NewIPLogin(ctx context.Context, userUUID, newIP, oldIP string) error {
	m.logins <- []string{userUUID, newIP, oldIP}
	return nil
}

// ===== UserRepository =====

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	args := m.Called(ctx, exec, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	args := m.Called(ctx, exec, uuid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	args := m.Called(ctx, exec, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== JWT =====

type MockJWTService struct{ mock.Mock }

func (m *MockJWTService) GenerateAccessRefreshTokens(userUUID string) (*model.TokensPair, *model.RefreshToken, error) {
	args := m.Called(userUUID)

	var tokens *model.TokensPair
	if t := args.Get(0); t != nil {
		tokens = t.(*model.TokensPair)
	}

	var refresh *model.RefreshToken
	if r := args.Get(1); r != nil {
		refresh = r.(*model.RefreshToken)
	}

	return tokens, refresh, args.Error(2)
}

func (m *MockJWTService) ValidateJWT(tokenString string) (*security.Claims, error) {
	args := m.Called(tokenString)
	if c, ok := args.Get(0).(*security.Claims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJWTService) ValidateJWTIgnoringExpiry(tokenString string) (*security.Claims, error) {
	args := m.Called(tokenString)
	if c, ok := args.Get(0).(*security.Claims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockJWTRepo struct{ mock.Mock }

func (m *MockJWTRepo) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockJWTRepo) FindByUUID(ctx context.Context, uuid string) (*model.RefreshToken, error) {
	args := m.Called(ctx, uuid)
	if token, ok := args.Get(0).(*model.RefreshToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJWTRepo) MarkRefreshTokenUsedByUUID(ctx context.Context, uuid string) error {
	return m.Called(ctx, uuid).Error(0)
}

// ===== fakeTx =====

type fakeTx struct{}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (f *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return &sqlx.Row{}
}
func (f *fakeTx) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	return "", nil, nil
}
func (f *fakeTx) DriverName() string         { return "fake" }
func (f *fakeTx) Rebind(query string) string { return query }
