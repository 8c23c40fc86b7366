package post

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/roster/core"
)

type Post struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Image       string    `json:"image,omitempty"` // stored upload name
	CommentIDs  []string  `json:"-"`
	Comments    []Comment `json:"comments"` // populated on reads, in CommentIDs order
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Comment struct {
	ID          string    `json:"_id"`
	PostID      string    `json:"postId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Data is what a caller provides to create or update a Post.
type Data struct {
	Name        string `json:"name" validate:"required,min=5"`
	Description string `json:"description" validate:"required,min=5"`
	Location    string `json:"location" validate:"required,min=4"`
}

func (d *Data) Clean() {
	d.Name = core.CleanString(d.Name)
	d.Description = core.CleanString(d.Description)
	d.Location = core.CleanString(d.Location)
}

func (d *Data) Validate(validate *validator.Validate) error {
	d.Clean()
	return validate.Struct(d)
}

// NewComment is what a caller provides to comment on a Post.
type NewComment struct {
	Name        string `json:"name" validate:"required,min=5"`
	Description string `json:"description" validate:"required,min=5"`
}

func (nc *NewComment) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Clean()
	return validate.Struct(nc)
}
