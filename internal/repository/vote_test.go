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
)

func TestVoteRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "votes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, &models.Vote{UserID: 1, PostID: 2})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepository_Create_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "votes"`)).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "idx_votes_user_post"`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Vote{UserID: 1, PostID: 2})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeDuplicateVote, appErr.Code)
	assert.Contains(t, appErr.Message, "already voted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepository_Create_StoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "votes"`)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Vote{UserID: 1, PostID: 2})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeStore, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepository_CountByPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "votes" WHERE post_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByPost(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepository_HasVoted(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	t.Run("Voted", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "votes" WHERE user_id = $1 AND post_id = $2`)).
			WithArgs(1, 7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		voted, err := repo.HasVoted(ctx, 1, 7)
		assert.NoError(t, err)
		assert.True(t, voted)
	})

	t.Run("Not Voted", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "votes" WHERE user_id = $1 AND post_id = $2`)).
			WithArgs(2, 7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		voted, err := repo.HasVoted(ctx, 2, 7)
		assert.NoError(t, err)
		assert.False(t, voted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
