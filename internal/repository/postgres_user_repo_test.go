package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/schoolhub/internal/model"
)

// newMockDB はsqlmockを使ったDBを生成する。テスト終了時に期待値の消化を検証する。
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var userRowColumns = []string{"id", "name", "email", "phone", "country_code", "password_hash", "created_at"}

func TestPostgresUserRepo_FindByEmail_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(1), "Alice", "alice@x.com", "1234567890", "+91", "digest", now))

	user, err := repo.FindByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID != 1 || user.Name != "Alice" || user.CountryCode != "+91" || user.PasswordHash != "digest" {
		t.Errorf("unexpected user: %+v", user)
	}
	if !user.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", user.CreatedAt, now)
	}
}

func TestPostgresUserRepo_FindByEmail_NotFound_ReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	user, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if user != nil {
		t.Errorf("expected nil, got %+v", user)
	}
}

func TestPostgresUserRepo_FindByID_DBError_ReturnsStoreError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), 7)
	var storeErr *model.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *model.StoreError, got %v", err)
	}
}

func TestPostgresUserRepo_Create_SetsIDAndCreatedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Alice", "alice@x.com", "1234567890", "+91", "digest").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), now))

	user := &model.User{Name: "Alice", Email: "alice@x.com", Phone: "1234567890", CountryCode: "+91", PasswordHash: "digest"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID != 5 {
		t.Errorf("ID = %d, want 5", user.ID)
	}
	if !user.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", user.CreatedAt, now)
	}
}

func TestPostgresUserRepo_Create_UniqueViolation_ReturnsErrDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{Email: "alice@x.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestPostgresUserRepo_Create_OtherError_ReturnsStoreError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23514"})

	err := repo.Create(context.Background(), &model.User{Email: "alice@x.com"})
	if errors.Is(err, ErrDuplicate) {
		t.Fatal("check violation should not be reported as duplicate")
	}
	var storeErr *model.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("expected *model.StoreError, got %v", err)
	}
}
