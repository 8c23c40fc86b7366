package post

import (
	"context"
	"time"

	"github.com/trezcool/roster/core"
)

var (
	ErrNotFound        = core.NewNotFoundError("Post not found")
	ErrCommentNotFound = core.NewNotFoundError("Comment not found")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		QueryPosts(ctx context.Context) ([]Post, error)
		GetPost(ctx context.Context, id string) (Post, error)
		// UpdatePost overwrites the name, description & location of the post.
		UpdatePost(ctx context.Context, p Post) (Post, error)
		SetPostImage(ctx context.Context, id, image string) (Post, error)
		// DeletePost also deletes the post's comments.
		DeletePost(ctx context.Context, id string) (Post, error)

		// CreateComment fails with ErrNotFound when the post does not exist.
		CreateComment(ctx context.Context, c Comment) (Comment, error)
		QueryComments(ctx context.Context) ([]Comment, error)
		// DeleteComment also detaches the comment from its post.
		DeleteComment(ctx context.Context, id string) (Comment, error)
	}

	Service interface {
		Create(ctx context.Context, data Data) (Post, error)
		QueryAll(ctx context.Context) ([]Post, error)
		GetByID(ctx context.Context, id string) (Post, error)
		Update(ctx context.Context, id string, data Data) (Post, error)
		SetImage(ctx context.Context, id, image string) (Post, error)
		Delete(ctx context.Context, id string) (Post, error)

		AddComment(ctx context.Context, postID string, nc NewComment) (Comment, error)
		QueryComments(ctx context.Context) ([]Comment, error)
		DeleteComment(ctx context.Context, id string) (Comment, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, data Data) (Post, error) {
	now := time.Now().UTC()
	return svc.repo.CreatePost(ctx, Post{
		Name:        data.Name,
		Description: data.Description,
		Location:    data.Location,
		Comments:    []Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) QueryAll(ctx context.Context) ([]Post, error) {
	posts, err := svc.repo.QueryPosts(ctx)
	if posts == nil && err == nil {
		posts = []Post{}
	}
	return posts, err
}

func (svc *service) GetByID(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPost(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, data Data) (Post, error) {
	return svc.repo.UpdatePost(ctx, Post{
		ID:          id,
		Name:        data.Name,
		Description: data.Description,
		Location:    data.Location,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (svc *service) SetImage(ctx context.Context, id, image string) (Post, error) {
	return svc.repo.SetPostImage(ctx, id, image)
}

func (svc *service) Delete(ctx context.Context, id string) (Post, error) {
	return svc.repo.DeletePost(ctx, id)
}

func (svc *service) AddComment(ctx context.Context, postID string, nc NewComment) (Comment, error) {
	return svc.repo.CreateComment(ctx, Comment{
		PostID:      postID,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *service) QueryComments(ctx context.Context) ([]Comment, error) {
	comments, err := svc.repo.QueryComments(ctx)
	if comments == nil && err == nil {
		comments = []Comment{}
	}
	return comments, err
}

func (svc *service) DeleteComment(ctx context.Context, id string) (Comment, error) {
	return svc.repo.DeleteComment(ctx, id)
}
