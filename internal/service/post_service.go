package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"techfeed/internal/models"
	"techfeed/internal/observability"
	"techfeed/internal/repository"
	"techfeed/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
	voteRepo repository.VoteRepository
}

type CreatePostInput struct {
	UserID  uint
	Title   string
	PostURL string
}

type UpdatePostInput struct {
	UserID uint
	PostID uint
	Title  string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

const maxTitleLen = 300

func NewPostService(postRepo repository.PostRepository, voteRepo repository.VoteRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		voteRepo: voteRepo,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)

	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if err := validation.ValidatePostURL(in.PostURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		Title:   in.Title,
		PostURL: in.PostURL,
		UserID:  in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset)
}

func (s *PostService) GetVotedPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetVotedByUser(ctx, userID, limit, offset)
}

// UpdatePost changes the title of the caller's own post. The URL is
// immutable once submitted; votes and comments refer to what was shared.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own posts")
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	post.Title = in.Title

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

// Upvote records one vote by userID on postID and returns the post with
// its fresh vote count. The vote insert is a single statement guarded by
// the unique (user_id, post_id) index, so concurrent upvotes for the same
// pair resolve to exactly one stored vote; the losers get a duplicate-vote
// error no matter which goroutine or process won.
func (s *PostService) Upvote(ctx context.Context, userID, postID uint) (*models.Post, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", postID)
	}

	vote := &models.Vote{UserID: userID, PostID: postID}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeDuplicateVote {
			observability.DuplicateVotesRejected.Inc()
		}
		return nil, err
	}
	observability.VotesRecorded.Inc()

	// The vote is committed at this point. A reload failure must not be
	// reported as a failed upvote.
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewStoreError(fmt.Errorf("vote recorded but post reload failed: %w", err))
	}
	return post, nil
}

// HasVoted reports whether the user has already upvoted the post.
func (s *PostService) HasVoted(ctx context.Context, userID, postID uint) (bool, error) {
	return s.voteRepo.HasVoted(ctx, userID, postID)
}
