package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/repository"
)

var columns = []string{"id", "username", "email", "password_hash", "roles", "presentation", "registration_date", "last_login_date", "verified"}

func newRepoWithMock(t *testing.T) (*UserRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewUserRepo(mock), mock
}

func testUser() *domain.User {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	u := domain.NewUser("Robert", "me@example.com", "hash", now)
	return u
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := testUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, "Robert", "me@example.com", "hash", []string{domain.RoleUser}, "", u.RegistrationDate, u.LastLoginDate, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
}

func TestCreate_UniqueViolationMapsToDuplicateEntry(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := testUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"})

	err := repo.Create(context.Background(), u)
	require.ErrorIs(t, err, repository.ErrDuplicateEntry)

	var dup *repository.DuplicateEntryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)
}

func TestCreate_OtherErrorIsWrapped(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), testUser())
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicateEntry)
	assert.Contains(t, err.Error(), "db down")
}

func TestUpdate_NoRowsIsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := testUser()

	mock.ExpectExec(`UPDATE users`).
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.Roles, u.Presentation, u.LastLoginDate, u.Verified).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.ErrorIs(t, repo.Update(context.Background(), u), repository.ErrNotFound)
}

func TestUpdate_NeverWritesRegistrationDate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := testUser()
	u.Verified = true

	mock.ExpectExec(`UPDATE users\s+SET username = \$2, email = \$3, password_hash = \$4, roles = \$5,\s+presentation = \$6, last_login_date = \$7, verified = verified OR \$8\s+WHERE id = \$1`).
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.Roles, u.Presentation, u.LastLoginDate, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), u))
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := testUser()

	rows := pgxmock.NewRows(columns).AddRow(
		u.ID, u.Username, u.Email, u.PasswordHash, u.Roles, u.Presentation, u.RegistrationDate, u.LastLoginDate, false,
	)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).WithArgs("Robert").WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "Robert")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "me@example.com", got.Email)
	assert.Equal(t, []string{domain.RoleUser}, got.Roles)
}

func TestGetByEmail_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).WithArgs("ghost@example.com").WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).WithArgs(id).WillReturnError(errors.New("conn reset"))

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestList_ReturnsAllRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a, b := testUser(), testUser()
	b.Username, b.Email = "alice", "alice@example.com"

	rows := pgxmock.NewRows(columns).
		AddRow(a.ID, a.Username, a.Email, a.PasswordHash, a.Roles, a.Presentation, a.RegistrationDate, a.LastLoginDate, false).
		AddRow(b.ID, b.Username, b.Email, b.PasswordHash, b.Roles, b.Presentation, b.RegistrationDate, b.LastLoginDate, true)
	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY registration_date, username`).WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[1].Username)
	assert.True(t, users[1].Verified)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, repo.Delete(context.Background(), id), repository.ErrNotFound)
}
