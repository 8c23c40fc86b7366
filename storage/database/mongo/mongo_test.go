package mongorepos

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/storage/database"
	"github.com/trezcool/roster/tests"
)

// openTestDB connects to the server at MONGO_URI and returns a fresh, indexed database
// that is dropped when the test ends.
func openTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	conf := &core.Config{
		AppName: "roster-test",
		Database: core.DatabaseConfig{
			URI:     uri,
			Name:    "roster_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
			Timeout: 10 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	client, db, err := database.Open(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, database.EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestAccountRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(db)

	alpha := testutil.CreateAccount(t, repo, "Alpha", "School", "alpha@school.test", "secret")
	bravo := testutil.CreateAccount(t, repo, "Bravo", "School", "bravo@school.test", "secret")

	_, err := repo.CreateAccount(ctx, school.Account{Email: "alpha@school.test"})
	assert.Equal(t, school.ErrEmailExists, err)

	bravo.Email = alpha.Email
	_, err = repo.UpdateAccount(ctx, bravo)
	assert.Equal(t, school.ErrEmailExists, err)

	alpha.FirstName = "Alphonse"
	updated, err := repo.UpdateAccount(ctx, alpha)
	require.NoError(t, err)
	assert.Equal(t, "Alphonse", updated.FirstName)
	assert.Equal(t, alpha.Email, updated.Email)
	assert.NoError(t, updated.CheckPassword("secret"))

	_, err = repo.GetAccount(ctx, "lol")
	assert.Equal(t, school.ErrNotFound, err)
	_, err = repo.GetAccount(ctx, "5f1e2d3c4b5a697887766554")
	assert.Equal(t, school.ErrNotFound, err)

	byEmail, err := repo.GetAccountByEmail(ctx, "alpha@school.test")
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, byEmail.ID)

	_, err = repo.DeleteAccount(ctx, alpha.ID)
	require.NoError(t, err)
	_, err = repo.DeleteAccount(ctx, alpha.ID)
	assert.Equal(t, school.ErrNotFound, err)
}

func TestStudentRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewStudentRepository(db)

	students := testutil.CreateStudents(t, repo, 12)

	_, err := repo.CreateStudent(ctx, student.Student{Email: students[0].Email})
	assert.Equal(t, student.ErrEmailExists, err)

	t.Run("replace keeping its own email", func(t *testing.T) {
		s := students[3]
		s.FirstName = "Renamed"
		s.Standard = 9
		s.UpdatedAt = time.Now().UTC()

		got, err := repo.UpdateStudent(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, "Renamed", got.FirstName)
		assert.Equal(t, 9, got.Standard)
		assert.Equal(t, s.Email, got.Email)
		assert.True(t, got.CreatedAt.Equal(students[3].CreatedAt.Truncate(time.Millisecond)))
	})

	t.Run("replace with another student's email", func(t *testing.T) {
		s := students[4]
		s.Email = students[5].Email
		_, err := repo.UpdateStudent(ctx, s)
		assert.Equal(t, student.ErrEmailExists, err)
	})

	t.Run("replace unknown", func(t *testing.T) {
		_, err := repo.UpdateStudent(ctx, student.Student{ID: "5f1e2d3c4b5a697887766554", Email: "new@school.test"})
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("pages", func(t *testing.T) {
		got, total, err := repo.QueryStudents(ctx, student.QueryFilter{}, core.Pagination{Page: 3, Limit: 5}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		require.Len(t, got, 2)
		assert.Equal(t, students[10].ID, got[0].ID)
		assert.Equal(t, students[11].ID, got[1].ID)

		got, total, err = repo.QueryStudents(ctx, student.QueryFilter{}, core.NewPagination("3", "9223372036854775807"), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		assert.Empty(t, got)
	})

	t.Run("search", func(t *testing.T) {
		got, total, err := repo.QueryStudents(ctx, student.QueryFilter{Search: "STUDENT1"}, core.Pagination{Page: 1, Limit: 10}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, got, 4)

		got, _, err = repo.QueryStudents(ctx, student.QueryFilter{Search: students[6].MobileNumber}, core.Pagination{Page: 1, Limit: 10}, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, students[6].ID, got[0].ID)
	})

	_, err = repo.DeleteStudent(ctx, students[0].ID)
	require.NoError(t, err)
	_, err = repo.GetStudent(ctx, students[0].ID)
	assert.Equal(t, student.ErrNotFound, err)
}

func TestPostRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)

	p := testutil.CreatePost(t, repo, "Science fair", "Projects from every class", "Main hall")
	first := testutil.CreateComment(t, repo, p.ID, "Parent", "Great projects")
	second := testutil.CreateComment(t, repo, p.ID, "Teacher", "Thanks for coming")

	got, err := repo.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, first.ID, got.Comments[0].ID)
	assert.Equal(t, second.ID, got.Comments[1].ID)

	_, err = repo.CreateComment(ctx, post.Comment{PostID: "5f1e2d3c4b5a697887766554", Name: "Nobody", Description: "Lost comment"})
	assert.Equal(t, post.ErrNotFound, err)

	t.Run("deleting a comment pulls it from its post", func(t *testing.T) {
		_, err := repo.DeleteComment(ctx, first.ID)
		require.NoError(t, err)

		got, err := repo.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID}, got.CommentIDs)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, second.ID, got.Comments[0].ID)

		_, err = repo.DeleteComment(ctx, first.ID)
		assert.Equal(t, post.ErrCommentNotFound, err)
	})

	t.Run("deleting a post deletes its comments", func(t *testing.T) {
		other := testutil.CreatePost(t, repo, "Sports day", "Races and relays", "Stadium")
		kept := testutil.CreateComment(t, repo, other.ID, "Coach", "See you there")

		_, err := repo.DeletePost(ctx, p.ID)
		require.NoError(t, err)
		_, err = repo.GetPost(ctx, p.ID)
		assert.Equal(t, post.ErrNotFound, err)

		comments, err := repo.QueryComments(ctx)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, kept.ID, comments[0].ID)
	})
}
