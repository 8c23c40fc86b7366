package inmemdb

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/tests"
)

func TestAccountRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(Open())

	acc := testutil.CreateAccount(t, repo, "Alpha", "School", "alpha@school.test", "")
	other := testutil.CreateAccount(t, repo, "Bravo", "School", "bravo@school.test", "")

	_, err := repo.CreateAccount(ctx, school.Account{Email: "alpha@school.test"})
	assert.Equal(t, school.ErrEmailExists, err)

	// keeping its own email is fine
	acc.FirstName = "Alphabet"
	updated, err := repo.UpdateAccount(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, "Alphabet", updated.FirstName)
	assert.Equal(t, acc.CreatedAt, updated.CreatedAt)

	other.Email = "alpha@school.test"
	_, err = repo.UpdateAccount(ctx, other)
	assert.Equal(t, school.ErrEmailExists, err)
}

func TestAccountRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(Open())

	_, err := repo.GetAccount(ctx, "nope")
	assert.True(t, core.IsNotFound(err))
	_, err = repo.GetAccountByEmail(ctx, "nobody@school.test")
	assert.True(t, core.IsNotFound(err))
	_, err = repo.DeleteAccount(ctx, "nope")
	assert.True(t, core.IsNotFound(err))
}

func TestStudentRepository_QueryStudents(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(Open())
	students := testutil.CreateStudents(t, repo, 12)

	tests := []struct {
		name      string
		filter    student.QueryFilter
		page      core.Pagination
		ordering  []core.DBOrdering
		wantIDs   []string
		wantTotal int64
	}{
		{
			name:      "second page",
			page:      core.Pagination{Page: 2, Limit: 5},
			wantIDs:   ids(students[5:10]),
			wantTotal: 12,
		},
		{
			name:      "last partial page",
			page:      core.Pagination{Page: 3, Limit: 5},
			wantIDs:   ids(students[10:]),
			wantTotal: 12,
		},
		{
			name:      "past the end",
			page:      core.Pagination{Page: 4, Limit: 5},
			wantIDs:   []string{},
			wantTotal: 12,
		},
		{
			name:      "unbounded limit",
			page:      core.Pagination{Page: 2, Limit: math.MaxInt},
			wantIDs:   []string{},
			wantTotal: 12,
		},
		{
			name:      "unbounded limit from the start",
			page:      core.Pagination{Page: 1, Limit: math.MaxInt},
			wantIDs:   ids(students),
			wantTotal: 12,
		},
		{
			name:      "search is case insensitive",
			filter:    student.QueryFilter{Search: "STUDENT1"},
			page:      core.Pagination{Page: 1, Limit: 10},
			wantIDs:   ids(append([]student.Student{students[0]}, students[9:]...)),
			wantTotal: 4,
		},
		{
			name:      "numeric search matches the mobile number exactly",
			filter:    student.QueryFilter{Search: "0000000007"},
			page:      core.Pagination{Page: 1, Limit: 10},
			wantIDs:   ids(students[6:7]),
			wantTotal: 1,
		},
		{
			name:      "no match",
			filter:    student.QueryFilter{Search: "zzz"},
			page:      core.Pagination{Page: 1, Limit: 10},
			wantIDs:   []string{},
			wantTotal: 0,
		},
		{
			name:      "newest first",
			page:      core.Pagination{Page: 1, Limit: 2},
			ordering:  []core.DBOrdering{{Field: "createdAt"}},
			wantIDs:   []string{students[11].ID, students[10].ID},
			wantTotal: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.QueryStudents(ctx, tt.filter, tt.page, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestStudentRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(Open())
	s1 := testutil.CreateStudent(t, repo, "Student", "Lastname", "one@school.test", "0123456789")
	testutil.CreateStudent(t, repo, "Student", "Lastname", "two@school.test", "0123456780")

	_, err := repo.CreateStudent(ctx, student.Student{Email: "one@school.test"})
	assert.Equal(t, student.ErrEmailExists, err)

	s1.Email = "two@school.test"
	_, err = repo.UpdateStudent(ctx, s1)
	assert.Equal(t, student.ErrEmailExists, err)

	deleted, err := repo.DeleteStudent(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, "one@school.test", deleted.Email)
	_, err = repo.GetStudent(ctx, s1.ID)
	assert.Equal(t, student.ErrNotFound, err)
}

func TestPostRepository_Comments(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(Open())
	p := testutil.CreatePost(t, repo, "Sports day", "Annual sports day", "Main ground")
	assert.Empty(t, p.Comments)

	c1 := testutil.CreateComment(t, repo, p.ID, "Parent", "Looking forward")
	c2 := testutil.CreateComment(t, repo, p.ID, "Teacher", "Bring water")

	got, err := repo.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, c1.ID, got.Comments[0].ID)
	assert.Equal(t, c2.ID, got.Comments[1].ID)
	assert.Empty(t, got.Comments[0].PostID)

	_, err = repo.CreateComment(ctx, post.Comment{PostID: "nope", Name: "Ghost"})
	assert.Equal(t, post.ErrNotFound, err)

	_, err = repo.DeleteComment(ctx, c1.ID)
	require.NoError(t, err)
	got, err = repo.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, c2.ID, got.Comments[0].ID)

	_, err = repo.DeleteComment(ctx, c1.ID)
	assert.Equal(t, post.ErrCommentNotFound, err)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(Open())
	p := testutil.CreatePost(t, repo, "Sports day", "Annual sports day", "Main ground")
	keep := testutil.CreatePost(t, repo, "Science fair", "Yearly fair", "Main hall")
	testutil.CreateComment(t, repo, p.ID, "Parent", "Looking forward")
	kept := testutil.CreateComment(t, repo, keep.ID, "Parent", "Great idea")

	_, err := repo.DeletePost(ctx, p.ID)
	require.NoError(t, err)

	comments, err := repo.QueryComments(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, kept.ID, comments[0].ID)

	_, err = repo.GetPost(ctx, p.ID)
	assert.Equal(t, post.ErrNotFound, err)
}

func ids(students []student.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}
