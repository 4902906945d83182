package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signvault/config"
	"signvault/internal/model"
)

func newMockDatabase(t *testing.T) (*config.Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &config.Database{DB: sqlx.NewDb(db, "postgres")}, mock
}

var documentRowColumns = []string{
	"uuid", "owner_uuid", "filename", "original_name", "mime_type", "size_bytes", "sha256", "status",
	"signer_name", "signer_email", "reject_reason", "completed_at", "created_at", "updated_at", "deleted_at",
}

func TestDocumentRepository_Create(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs("doc-1", "owner-1", "users/owner-1/documents/contract-1.pdf", "contract.pdf", "application/pdf", int64(10), "abc", "uploaded").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	doc := &model.Document{
		UUID:         "doc-1",
		OwnerUUID:    "owner-1",
		Filename:     "users/owner-1/documents/contract-1.pdf",
		OriginalName: "contract.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    10,
		Sha256:       "abc",
		Status:       model.StatusUploaded,
	}
	require.NoError(t, repo.Create(context.Background(), database.DB, doc))
	assert.Equal(t, now, doc.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetByUUID(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents WHERE uuid = \$1 AND deleted_at IS NULL`).
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows(documentRowColumns).AddRow(
				"doc-1", "owner-1", "key", "contract.pdf", "application/pdf", int64(10), "abc", "signed",
				"Alice", "a@x.com", nil, now, now, now, nil,
			))

		doc, err := repo.GetByUUID(context.Background(), database.DB, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusSigned, doc.Status)
		require.NotNil(t, doc.SignerName)
		assert.Equal(t, "Alice", *doc.SignerName)
		assert.Nil(t, doc.RejectReason)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents WHERE uuid = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUUID(context.Background(), database.DB, "ghost")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents WHERE uuid = \$1`).
			WithArgs("not-a-uuid").
			WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`})

		_, err := repo.GetByUUID(context.Background(), database.DB, "not-a-uuid")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetByUUIDForUpdate(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)
	now := time.Now().UTC()

	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).AddRow(
			"doc-1", "owner-1", "key", "contract.pdf", "application/pdf", int64(10), "abc", "pending",
			nil, nil, nil, nil, now, now, nil,
		))

	doc, err := repo.GetByUUIDForUpdate(context.Background(), database.DB, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, doc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ListByOwner(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE owner_uuid = \$1 AND deleted_at IS NULL\s+ORDER BY created_at DESC`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("doc-2", "owner-1", "k2", "b.pdf", "application/pdf", int64(1), "h2", "pending", nil, nil, nil, nil, now, now, nil).
			AddRow("doc-1", "owner-1", "k1", "a.pdf", "application/pdf", int64(1), "h1", "uploaded", nil, nil, nil, nil, now, now, nil))

	docs, err := repo.ListByOwner(context.Background(), database.DB, "owner-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-2", docs[0].UUID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_TransitionStatus(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE documents\s+SET status = \$3`).
		WithArgs("doc-1", "uploaded", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.TransitionStatus(ctx, database.DB, "doc-1", model.StatusUploaded, model.StatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE documents\s+SET status = \$3`).
		WithArgs("doc-1", "uploaded", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.TransitionStatus(ctx, database.DB, "doc-1", model.StatusUploaded, model.StatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	// запрещённый переход не доходит до БД
	_, err = repo.TransitionStatus(ctx, database.DB, "doc-1", model.StatusSigned, model.StatusPending)
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Complete(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	completion := model.Completion{
		Status:      model.StatusSigned,
		SignerName:  "Alice",
		SignerEmail: "a@x.com",
		CompletedAt: at,
	}

	mock.ExpectExec(`WHERE uuid = \$1 AND status = 'pending'`).
		WithArgs("doc-1", "signed", "Alice", "a@x.com", "", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Complete(ctx, database.DB, "doc-1", completion)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`WHERE uuid = \$1 AND status = 'pending'`).
		WithArgs("doc-1", "signed", "Alice", "a@x.com", "", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Complete(ctx, database.DB, "doc-1", completion)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Complete(ctx, database.DB, "doc-1", model.Completion{Status: model.StatusUploaded})
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Delete(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)

	mock.ExpectQuery(`SET deleted_at = NOW\(\)`).
		WithArgs("doc-1", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).AddRow("users/owner-1/documents/a.pdf"))
	key, err := repo.Delete(context.Background(), database.DB, "doc-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "users/owner-1/documents/a.pdf", key)

	mock.ExpectQuery(`SET deleted_at = NOW\(\)`).
		WithArgs("doc-1", "stranger").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Delete(context.Background(), database.DB, "doc-1", "stranger")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_BeginTX(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewDocumentRepository(database)

	mock.ExpectBegin()
	mock.ExpectRollback()

	exec, rollback, commit, err := repo.BeginTX(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, exec)
	assert.NotNil(t, commit)
	assert.NoError(t, rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepository_CreateAndGet(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewShareRepository(database)
	ctx := context.Background()
	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	email := "signer@x.com"

	mock.ExpectQuery(`INSERT INTO share_tokens`).
		WithArgs("tok", "doc-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	token := &model.ShareToken{Token: "tok", DocumentUUID: "doc-1", SignerEmail: &email, ExpiresAt: &expires}
	require.NoError(t, repo.Create(ctx, database.DB, token))
	assert.Equal(t, now, token.CreatedAt)

	mock.ExpectQuery(`FROM share_tokens WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "document_uuid", "signer_email", "created_at", "expires_at", "consumed_at"}).
			AddRow("tok", "doc-1", email, now, expires, nil))

	got, err := repo.GetByToken(ctx, database.DB, "tok")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.DocumentUUID)
	assert.False(t, got.Consumed())

	mock.ExpectQuery(`FROM share_tokens WHERE token = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByToken(ctx, database.DB, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepository_CreateDuplicate(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewShareRepository(database)

	mock.ExpectQuery(`INSERT INTO share_tokens`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), database.DB, &model.ShareToken{Token: "tok", DocumentUUID: "doc-1"})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestShareRepository_NewToken(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewShareRepository(database)

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	token, err := repo.NewToken(context.Background(), database.DB)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepository_Consume(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewShareRepository(database)
	at := time.Now().UTC()

	mock.ExpectExec(`WHERE token = \$1 AND consumed_at IS NULL`).
		WithArgs("tok", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Consume(context.Background(), database.DB, "tok", at)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`WHERE token = \$1 AND consumed_at IS NULL`).
		WithArgs("tok", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Consume(context.Background(), database.DB, "tok", at)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepository_ListByDocument(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewShareRepository(database)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM share_tokens\s+WHERE document_uuid = \$1`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"token", "document_uuid", "signer_email", "created_at", "expires_at", "consumed_at"}).
			AddRow("t2", "doc-1", nil, now, nil, now).
			AddRow("t1", "doc-1", nil, now, nil, nil))

	tokens, err := repo.ListByDocument(context.Background(), database.DB, "doc-1")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.True(t, tokens[0].Consumed())
	assert.False(t, tokens[1].Consumed())
}

func TestSignatureRepository_ListByDocument(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewSignatureRepository(database)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM signatures`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "document_uuid", "x", "y", "page", "status", "created_at"}).
			AddRow("sig-1", "doc-1", 10.5, 20.25, 1, "pending", now))

	signatures, err := repo.ListByDocument(context.Background(), database.DB, "doc-1")
	require.NoError(t, err)
	require.Len(t, signatures, 1)
	assert.Equal(t, 1, signatures[0].Page)
	assert.Equal(t, model.SignatureStatusPending, signatures[0].Status)
}

func TestUserRepository_CreateUser(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewUserRepository(database)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("u-1", "Alice", "a@x.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "name", "email", "created_at"}).AddRow("u-1", "Alice", "a@x.com", now))

	user, err := repo.CreateUser(context.Background(), database.DB, &model.User{UUID: "u-1", Name: "Alice", Email: "a@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_lower_idx"})
	_, err = repo.CreateUser(context.Background(), database.DB, &model.User{UUID: "u-2", Name: "Alice", Email: "A@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Find(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewUserRepository(database)
	now := time.Now().UTC()
	columns := []string{"uuid", "name", "email", "password_hash", "created_at"}

	mock.ExpectQuery(`WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("A@X.com").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("u-1", "Alice", "a@x.com", "hash", now))
	user, err := repo.FindByEmail(context.Background(), database.DB, "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UUID)

	mock.ExpectQuery(`FROM users WHERE uuid = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByUUID(context.Background(), database.DB, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE uuid = \$1`).
		WithArgs("u-1").
		WillReturnError(errors.New("connection reset"))
	_, err = repo.FindByUUID(context.Background(), database.DB, "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestJWTRepository(t *testing.T) {
	database, mock := newMockDatabase(t)
	repo := NewJWTRepository(database)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("rt-1", "u-1", "hash", now, false, "agent", "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveRefreshToken(ctx, &model.RefreshToken{
		UUID: "rt-1", UserUUID: "u-1", TokenHash: "hash", ExpireAt: now, UserAgent: "agent", IpAddress: "10.0.0.1",
	}))

	mock.ExpectQuery(`FROM refresh_tokens WHERE uuid = \$1`).
		WithArgs("rt-1").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "user_uuid", "token_hash", "expire_at", "used", "user_agent", "ip_address", "created_at"}).
			AddRow("rt-1", "u-1", "hash", now, false, "agent", "10.0.0.1", now))
	token, err := repo.FindByUUID(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", token.UserUUID)

	mock.ExpectExec(`UPDATE refresh_tokens SET used = TRUE`).
		WithArgs("rt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRefreshTokenUsedByUUID(ctx, "rt-1"))

	mock.ExpectExec(`UPDATE refresh_tokens SET used = TRUE`).
		WithArgs("rt-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkRefreshTokenUsedByUUID(ctx, "rt-1"), model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
