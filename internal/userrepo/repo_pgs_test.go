package userrepo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
)

var userColumns = []string{
	"id", "username", "hashed_password", "full_name", "email",
	"is_admin", "funding_balance", "holding_balance", "created_at",
}

func newTestRepo(t *testing.T) (*RepoPGS, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return NewRepoPGS(db), mock
}

func userRow(u domain.User) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(u.ID, u.Username, u.HashedPassword, u.FullName, u.Email,
			u.IsAdmin, u.FundingBalance, u.HoldingBalance, u.CreatedAt)
}

func TestCreate(t *testing.T) {
	now := time.Now().Truncate(time.Second).UTC()

	arg := domain.CreateUserParams{
		Username:       "alice",
		HashedPassword: "secret-hash",
		FullName:       "Alice Levine",
		Email:          "alice@example.com",
	}

	wantUser := domain.User{
		ID:             1,
		Username:       arg.Username,
		HashedPassword: arg.HashedPassword,
		FullName:       arg.FullName,
		Email:          arg.Email,
		FundingBalance: "0",
		HoldingBalance: "0",
		CreatedAt:      now,
	}

	t.Run("OK", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WithArgs(arg.Username, arg.HashedPassword, arg.FullName, arg.Email).
			WillReturnRows(userRow(wantUser))

		got, err := repo.Create(context.Background(), arg)
		require.NoError(t, err)
		require.Equal(t, wantUser, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UsernameAlreadyExists", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WithArgs(arg.Username, arg.HashedPassword, arg.FullName, arg.Email).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		_, err := repo.Create(context.Background(), arg)
		require.EqualError(t, err, domain.ErrUsernameAlreadyExists.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmailAlreadyExists", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WithArgs(arg.Username, arg.HashedPassword, arg.FullName, arg.Email).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := repo.Create(context.Background(), arg)
		require.EqualError(t, err, domain.ErrEmailAlreadyExists.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InternalError", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WithArgs(arg.Username, arg.HashedPassword, arg.FullName, arg.Email).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.Create(context.Background(), arg)
		require.EqualError(t, err, errorspkg.ErrInternal.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGet(t *testing.T) {
	now := time.Now().Truncate(time.Second).UTC()

	wantUser := domain.User{
		ID:             1,
		Username:       "alice",
		HashedPassword: "secret-hash",
		FullName:       "Alice Levine",
		Email:          "alice@example.com",
		FundingBalance: "100.5",
		HoldingBalance: "0",
		CreatedAt:      now,
	}

	t.Run("OK", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
			WithArgs(wantUser.Username).
			WillReturnRows(userRow(wantUser))

		got, err := repo.Get(context.Background(), wantUser.Username)
		require.NoError(t, err)
		require.Equal(t, wantUser, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "missing")
		require.EqualError(t, err, domain.ErrUserNotFound.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InternalError", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
			WithArgs(wantUser.Username).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.Get(context.Background(), wantUser.Username)
		require.EqualError(t, err, errorspkg.ErrInternal.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
