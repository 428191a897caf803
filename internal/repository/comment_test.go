package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"techfeed/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{CommentText: "Nice writeup", UserID: 1, PostID: 2}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, comment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_GetByPostID_OldestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "comment_text", "user_id", "post_id"}).
		AddRow(1, "first", 1, 7).
		AddRow(2, "second", 2, 7)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE post_id = $1 AND "comments"."deleted_at" IS NULL ORDER BY created_at ASC LIMIT $2`)).
		WithArgs(7, 50).
		WillReturnRows(rows)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
			AddRow(1, "alice").
			AddRow(2, "bob"))

	comments, err := repo.GetByPostID(context.Background(), 7, 50, 0)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].CommentText)
	assert.Equal(t, "alice", comments[0].User.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments"`)).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.GetByID(context.Background(), 99)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
