package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/roster/core/post"
)

type postRepository struct {
	db *postTable
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) post.Repository {
	return &postRepository{db: db.post}
}

// populate must be called with the lock held.
func (repo *postRepository) populate(p post.Post) post.Post {
	p.CommentIDs = append([]string{}, p.CommentIDs...)
	p.Comments = make([]post.Comment, 0, len(p.CommentIDs))
	for _, cid := range p.CommentIDs {
		if c, ok := repo.db.comments[cid]; ok {
			cmt := *c
			cmt.PostID = ""
			p.Comments = append(p.Comments, cmt)
		}
	}
	return p
}

func (repo *postRepository) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = newID()
	p.CommentIDs = []string{}
	p.Comments = nil
	repo.db.table[p.ID] = &p
	return repo.populate(p), nil
}

func (repo *postRepository) QueryPosts(_ context.Context) ([]post.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	posts := make([]post.Post, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		posts = append(posts, repo.populate(*p))
	}
	sort.Slice(posts, func(i, j int) bool {
		return createdBefore(posts[i].CreatedAt, posts[j].CreatedAt, posts[i].ID, posts[j].ID)
	})
	return posts, nil
}

func (repo *postRepository) GetPost(_ context.Context, id string) (post.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return repo.populate(*p), nil
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) UpdatePost(_ context.Context, p post.Post) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	orig.Name = p.Name
	orig.Description = p.Description
	orig.Location = p.Location
	orig.UpdatedAt = p.UpdatedAt
	return repo.populate(*orig), nil
}

func (repo *postRepository) SetPostImage(_ context.Context, id, image string) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	orig.Image = image
	orig.UpdatedAt = time.Now().UTC()
	return repo.populate(*orig), nil
}

func (repo *postRepository) DeletePost(_ context.Context, id string) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	deleted := repo.populate(*p)
	for cid, c := range repo.db.comments {
		if c.PostID == id {
			delete(repo.db.comments, cid)
		}
	}
	delete(repo.db.table, id)
	return deleted, nil
}

func (repo *postRepository) CreateComment(_ context.Context, c post.Comment) (post.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[c.PostID]
	if !ok {
		return post.Comment{}, post.ErrNotFound
	}
	c.ID = newID()
	repo.db.comments[c.ID] = &c
	p.CommentIDs = append(p.CommentIDs, c.ID)
	return c, nil
}

func (repo *postRepository) QueryComments(_ context.Context) ([]post.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comments := make([]post.Comment, 0, len(repo.db.comments))
	for _, c := range repo.db.comments {
		comments = append(comments, *c)
	}
	sort.Slice(comments, func(i, j int) bool {
		return createdBefore(comments[i].CreatedAt, comments[j].CreatedAt, comments[i].ID, comments[j].ID)
	})
	return comments, nil
}

func (repo *postRepository) DeleteComment(_ context.Context, id string) (post.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.comments[id]
	if !ok {
		return post.Comment{}, post.ErrCommentNotFound
	}
	delete(repo.db.comments, id)
	if p, ok := repo.db.table[c.PostID]; ok {
		ids := p.CommentIDs[:0]
		for _, cid := range p.CommentIDs {
			if cid != id {
				ids = append(ids, cid)
			}
		}
		p.CommentIDs = ids
	}
	return *c, nil
}
