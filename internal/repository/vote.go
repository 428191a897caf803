package repository

import (
	"context"

	"techfeed/internal/models"

	"gorm.io/gorm"
)

// VoteRepository defines persistence operations for votes. A vote is a
// bare (user, post) pair; the unique index on that pair is the source of
// truth for one-vote-per-user-per-post.
type VoteRepository interface {
	Create(ctx context.Context, vote *models.Vote) error
	CountByPost(ctx context.Context, postID uint) (int64, error)
	HasVoted(ctx context.Context, userID, postID uint) (bool, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository returns a new VoteRepository implementation.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Create inserts the vote and classifies constraint failures: a unique
// violation means the user already voted on the post, regardless of which
// goroutine or process won the race.
func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateVoteError(vote.UserID, vote.PostID)
		}
		return models.NewStoreError(err)
	}
	return nil
}

func (r *voteRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, models.NewStoreError(err)
	}
	return count, nil
}

func (r *voteRepository) HasVoted(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewStoreError(err)
	}
	return count > 0, nil
}
