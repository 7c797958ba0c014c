package repository

import (
	"errors"
	"testing"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestUniqueViolationOn(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres slug index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_posts_slug"}, true},
		{"postgres title index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_posts_title"}, false},
		{"postgres other code", &pgconn.PgError{Code: "23503", ConstraintName: "idx_posts_slug"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: posts.slug"), true},
		{"sqlite other column", errors.New("UNIQUE constraint failed: posts.title"), false},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'posts.idx_posts_slug'"), true},
		{"not a violation", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uniqueViolationOn(tt.err, "posts", "slug"))
		})
	}
}

func TestIsForeignKeyError(t *testing.T) {
	assert.True(t, isForeignKeyError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isForeignKeyError(errors.New("FOREIGN KEY constraint failed")))
	assert.True(t, isForeignKeyError(errors.New("Cannot add or update a child row: a foreign key constraint fails")))
	assert.False(t, isForeignKeyError(errors.New("UNIQUE constraint failed: likes.user_id, likes.post_id")))
	assert.False(t, isForeignKeyError(nil))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%", escapeLike("100%"))
	assert.Equal(t, "a!_b", escapeLike("a_b"))
	assert.Equal(t, "wow!!", escapeLike("wow!"))
	assert.Equal(t, "%go%", containsPattern("Go"))
}
