package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:      uuid.Must(uuid.NewV7()),
		Email:   "ayse@nutrito.app",
		PwdHash: []byte("h"),
		Salt:    []byte("s"),
	}

	// OK
	mock.ExpectExec(`INSERT INTO users \(id, email, pwd_hash, salt\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(u.ID, u.Email, u.PwdHash, u.Salt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, u))

	// Unique violation
	mock.ExpectExec(`INSERT INTO users \(id, email, pwd_hash, salt\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(u.ID, u.Email, u.PwdHash, u.Salt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt, created_at FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "pwd_hash", "salt", "created_at"}).
			AddRow(id, "ayse@nutrito.app", []byte("h"), []byte("s"), created))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, created, u.CreatedAt)

	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt, created_at FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	email := "mehmet@nutrito.app"
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt, created_at FROM users WHERE email=\$1`).
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "pwd_hash", "salt", "created_at"}).
			AddRow(id, email, []byte("h"), []byte("s"), time.Now()))
	u, err := r.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, email, u.Email)

	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt, created_at FROM users WHERE email=\$1`).
		WithArgs(email).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByEmail(ctx, email)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// Other failures are not masked as not-found.
	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt, created_at FROM users WHERE email=\$1`).
		WithArgs(email).
		WillReturnError(errors.New("conn reset"))
	_, err = r.GetByEmail(ctx, email)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}
