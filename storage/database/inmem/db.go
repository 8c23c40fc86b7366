// Package inmemdb implements the entity repositories in process memory.
// It backs tests and the "memory" database engine.
package inmemdb

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
)

type (
	DB struct {
		account *accountTable
		student *studentTable
		post    *postTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*school.Account
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	// postTable holds comments too: a post and its comments change under the same lock.
	postTable struct {
		sync.RWMutex
		table    map[string]*post.Post
		comments map[string]*post.Comment
	}
)

func Open() *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*school.Account)},
		student: &studentTable{table: make(map[string]*student.Student)},
		post: &postTable{
			table:    make(map[string]*post.Post),
			comments: make(map[string]*post.Comment),
		},
	}
}

// newID returns an id shaped like the ones the mongo repositories hand out.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// createdBefore orders records by creation time, then id.
func createdBefore(ti, tj time.Time, idi, idj string) bool {
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	return idi < idj
}
