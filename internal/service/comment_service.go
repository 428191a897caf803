package service

import (
	"context"
	"strings"

	"techfeed/internal/models"
	"techfeed/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID      uint
	PostID      uint
	CommentText string
}

type UpdateCommentInput struct {
	UserID      uint
	CommentID   uint
	CommentText string
}

const maxCommentLen = 10000

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	in.CommentText = strings.TrimSpace(in.CommentText)
	if in.CommentText == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(in.CommentText) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	exists, err := s.postRepo.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	comment := &models.Comment{
		CommentText: in.CommentText,
		UserID:      in.UserID,
		PostID:      in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) GetPostComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return s.commentRepo.GetByPostID(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own comments")
	}

	in.CommentText = strings.TrimSpace(in.CommentText)
	if in.CommentText == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(in.CommentText) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	comment.CommentText = in.CommentText

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own comments")
	}

	return s.commentRepo.Delete(ctx, commentID)
}
