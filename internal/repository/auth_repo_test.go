package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newUserRepoMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func TestUserRepository_Create(t *testing.T) {
	errDB := errors.New("disk I/O error")
	tests := []struct {
		name    string
		expect  func(m sqlmock.Sqlmock)
		wantID  int
		wantErr error
	}{
		{
			name: "returns the new id",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("operator", "bcrypt-hash").
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
			wantID: 7,
		},
		{
			name: "wraps driver errors",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).WillReturnError(errDB)
			},
			wantErr: errDB,
		},
		{
			name: "last insert id failure",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
					WillReturnResult(sqlmock.NewErrorResult(errDB))
			},
			wantErr: errDB,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newUserRepoMock(t)
			tt.expect(mock)

			id, err := repo.Create(context.Background(), "operator", "bcrypt-hash")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || id != tt.wantID {
				t.Fatalf("Create = %d, %v; want %d", id, err, tt.wantID)
			}
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	cols := []string{"id", "username", "password_hash"}

	t.Run("found", func(t *testing.T) {
		repo, mock := newUserRepoMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
			WithArgs("operator").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, "operator", "h"))

		u, err := repo.GetByUsername(context.Background(), "operator")
		if err != nil || u == nil {
			t.Fatalf("GetByUsername = %+v, %v", u, err)
		}
		if u.ID != 3 || u.PasswordHash != "h" {
			t.Fatalf("unexpected user %+v", u)
		}
	})

	t.Run("missing user is not an error", func(t *testing.T) {
		repo, mock := newUserRepoMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).WillReturnError(sql.ErrNoRows)

		u, err := repo.GetByUsername(context.Background(), "ghost")
		if err != nil || u != nil {
			t.Fatalf("GetByUsername = %+v, %v; want nil, nil", u, err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newUserRepoMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).WillReturnError(sql.ErrConnDone)

		if _, err := repo.GetByUsername(context.Background(), "operator"); !errors.Is(err, sql.ErrConnDone) {
			t.Fatalf("err = %v, want ErrConnDone", err)
		}
	})
}
