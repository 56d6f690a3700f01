package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounts-backend/internal/features/user/models"
	"accounts-backend/internal/features/user/repository"
)

const testUserID = "7d4aa0c2-6f1e-4c92-9a0e-2f8f6f3f9f11"

func newMockRepo(t *testing.T) (repository.UserRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func userColumns() []string {
	return []string{"id", "first_name", "last_name", "email", "age", "password_hash", "role", "last_connection", "created_at", "updated_at"}
}

func userRow(role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns()).
		AddRow(testUserID, "John", "Doe", "john@example.com", 30, "$2a$10$hash", role, now, now, now)
}

func expectDocuments(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, reference, created_at")).
		WithArgs(testUserID).
		WillReturnRows(rows)
}

func TestGetByIDLoadsLedgerInOrder(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnRows(userRow("user"))

	docRows := sqlmock.NewRows([]string{"id", "name", "reference", "created_at"}).
		AddRow(int64(1), "Identificación", "uploads/documents/a.pdf", time.Now()).
		AddRow(int64(2), "Comprobante de domicilio", "uploads/documents/b.pdf", time.Now())
	expectDocuments(mock, docRows)

	user, err := repo.GetByID(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, testUserID, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	require.Len(t, user.Documents, 2)
	assert.Equal(t, "Identificación", user.Documents[0].Name)
	assert.Equal(t, "Comprobante de domicilio", user.Documents[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestGetByEmailNotFound(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{
		ID:        testUserID,
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Role:      models.RoleUser,
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET role = $2")).
		WithArgs("missing", "premium").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateRole(context.Background(), "missing", models.RolePremium)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUpdateRoleReturnsRefreshedUser(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET role = $2")).
		WithArgs(testUserID, "premium").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnRows(userRow("premium"))
	expectDocuments(mock, sqlmock.NewRows([]string{"id", "name", "reference", "created_at"}))

	user, err := repo.UpdateRole(context.Background(), testUserID, models.RolePremium)
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendDocumentUnknownUser(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs("missing", "Identificación", "ref").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.AppendDocument(context.Background(), "missing", models.Document{Name: "Identificación", Reference: "ref"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestAppendDocumentReturnsRefreshedUser(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(testUserID, "Identificación", "uploads/documents/a.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnRows(userRow("user"))
	docRows := sqlmock.NewRows([]string{"id", "name", "reference", "created_at"}).
		AddRow(int64(1), "Identificación", "uploads/documents/a.pdf", time.Now())
	expectDocuments(mock, docRows)

	user, err := repo.AppendDocument(context.Background(), testUserID, models.Document{
		Name:      "Identificación",
		Reference: "uploads/documents/a.pdf",
	})
	require.NoError(t, err)
	require.Len(t, user.Documents, 1)
	assert.Equal(t, "uploads/documents/a.pdf", user.Documents[0].Reference)
}

func TestTouchLastConnectionUnknownUser(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SET last_connection = NOW()")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.TouchLastConnection(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
