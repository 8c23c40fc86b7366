package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/storage/database"
)

type (
	postDoc struct {
		ID          primitive.ObjectID   `bson:"_id,omitempty"`
		Name        string               `bson:"name"`
		Description string               `bson:"description"`
		Location    string               `bson:"location"`
		Image       string               `bson:"image,omitempty"`
		Comments    []primitive.ObjectID `bson:"comments"`
		CreatedAt   time.Time            `bson:"createdAt"`
		UpdatedAt   time.Time            `bson:"updatedAt"`
	}

	commentDoc struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		PostID      primitive.ObjectID `bson:"postId"`
		Name        string             `bson:"name"`
		Description string             `bson:"description"`
		CreatedAt   time.Time          `bson:"createdAt"`
	}
)

type postRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *mongo.Database) *postRepository {
	return &postRepository{
		posts:    db.Collection(database.PostsCollection),
		comments: db.Collection(database.CommentsCollection),
	}
}

func (repo postRepository) fromCommentDoc(doc commentDoc) post.Comment {
	return post.Comment{
		ID:          doc.ID.Hex(),
		PostID:      doc.PostID.Hex(),
		Name:        doc.Name,
		Description: doc.Description,
		CreatedAt:   utc(doc.CreatedAt),
	}
}

// fromDoc converts doc to a post, populating its comments in the order they were added.
// Populated comments do not repeat the post id.
func (repo postRepository) fromDoc(doc postDoc, byID map[primitive.ObjectID]commentDoc) post.Post {
	p := post.Post{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Description: doc.Description,
		Location:    doc.Location,
		Image:       doc.Image,
		CommentIDs:  make([]string, 0, len(doc.Comments)),
		Comments:    make([]post.Comment, 0, len(doc.Comments)),
		CreatedAt:   utc(doc.CreatedAt),
		UpdatedAt:   utc(doc.UpdatedAt),
	}
	for _, cid := range doc.Comments {
		p.CommentIDs = append(p.CommentIDs, cid.Hex())
		if cdoc, ok := byID[cid]; ok {
			c := repo.fromCommentDoc(cdoc)
			c.PostID = ""
			p.Comments = append(p.Comments, c)
		}
	}
	return p
}

// populate loads the comments referenced by docs.
func (repo postRepository) populate(ctx context.Context, docs ...postDoc) ([]post.Post, error) {
	var ids []primitive.ObjectID
	for _, doc := range docs {
		ids = append(ids, doc.Comments...)
	}

	byID := make(map[primitive.ObjectID]commentDoc, len(ids))
	if len(ids) > 0 {
		cur, err := repo.comments.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
		if err != nil {
			return nil, errors.Wrap(err, "querying post comments")
		}
		var cdocs []commentDoc
		if err = cur.All(ctx, &cdocs); err != nil {
			return nil, errors.Wrap(err, "decoding post comments")
		}
		for _, cdoc := range cdocs {
			byID[cdoc.ID] = cdoc
		}
	}

	posts := make([]post.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, repo.fromDoc(doc, byID))
	}
	return posts, nil
}

func (repo postRepository) populateOne(ctx context.Context, doc postDoc) (post.Post, error) {
	posts, err := repo.populate(ctx, doc)
	if err != nil {
		return post.Post{}, err
	}
	return posts[0], nil
}

// trapNoDocErr maps mongo "no documents" err to notFound
func (repo postRepository) trapNoDocErr(err error, notFound error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo postRepository) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	doc := postDoc{
		ID:          primitive.NewObjectID(),
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		Image:       p.Image,
		Comments:    []primitive.ObjectID{},
		CreatedAt:   utc(p.CreatedAt),
		UpdatedAt:   utc(p.UpdatedAt),
	}
	if _, err := repo.posts.InsertOne(ctx, doc); err != nil {
		return post.Post{}, errors.Wrap(err, "inserting post")
	}
	return repo.fromDoc(doc, nil), nil
}

func (repo postRepository) QueryPosts(ctx context.Context) ([]post.Post, error) {
	cur, err := repo.posts.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	var docs []postDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding posts")
	}
	return repo.populate(ctx, docs...)
}

func (repo postRepository) GetPost(ctx context.Context, id string) (post.Post, error) {
	oid, ok := objectID(id)
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	var doc postDoc
	if err := repo.posts.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return post.Post{}, repo.trapNoDocErr(err, post.ErrNotFound, "finding post by ID")
	}
	return repo.populateOne(ctx, doc)
}

func (repo postRepository) updatePost(ctx context.Context, id string, set bson.D, msg string) (post.Post, error) {
	oid, ok := objectID(id)
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	var doc postDoc
	err := repo.posts.FindOneAndUpdate(
		ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return post.Post{}, repo.trapNoDocErr(err, post.ErrNotFound, msg)
	}
	return repo.populateOne(ctx, doc)
}

func (repo postRepository) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	return repo.updatePost(ctx, p.ID, bson.D{
		{Key: "name", Value: p.Name},
		{Key: "description", Value: p.Description},
		{Key: "location", Value: p.Location},
		{Key: "updatedAt", Value: utc(p.UpdatedAt)},
	}, "updating post")
}

func (repo postRepository) SetPostImage(ctx context.Context, id, image string) (post.Post, error) {
	return repo.updatePost(ctx, id, bson.D{
		{Key: "image", Value: image},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}, "setting post image")
}

func (repo postRepository) DeletePost(ctx context.Context, id string) (post.Post, error) {
	oid, ok := objectID(id)
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	var doc postDoc
	if err := repo.posts.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return post.Post{}, repo.trapNoDocErr(err, post.ErrNotFound, "deleting post")
	}
	p := repo.fromDoc(doc, nil)
	if _, err := repo.comments.DeleteMany(ctx, bson.D{{Key: "postId", Value: oid}}); err != nil {
		return p, errors.Wrap(err, "deleting post comments")
	}
	return p, nil
}

func (repo postRepository) CreateComment(ctx context.Context, c post.Comment) (post.Comment, error) {
	pid, ok := objectID(c.PostID)
	if !ok {
		return post.Comment{}, post.ErrNotFound
	}
	if err := repo.posts.FindOne(ctx, bson.D{{Key: "_id", Value: pid}}).Err(); err != nil {
		return post.Comment{}, repo.trapNoDocErr(err, post.ErrNotFound, "finding commented post")
	}

	doc := commentDoc{
		ID:          primitive.NewObjectID(),
		PostID:      pid,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   utc(c.CreatedAt),
	}
	if _, err := repo.comments.InsertOne(ctx, doc); err != nil {
		return post.Comment{}, errors.Wrap(err, "inserting comment")
	}
	push := bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: doc.ID}}}}
	res, err := repo.posts.UpdateByID(ctx, pid, push)
	if err != nil {
		return post.Comment{}, errors.Wrap(err, "attaching comment to post")
	}
	if res.MatchedCount == 0 {
		// the post was deleted in between
		_, _ = repo.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: doc.ID}})
		return post.Comment{}, post.ErrNotFound
	}
	return repo.fromCommentDoc(doc), nil
}

func (repo postRepository) QueryComments(ctx context.Context) ([]post.Comment, error) {
	cur, err := repo.comments.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	var docs []commentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding comments")
	}
	comments := make([]post.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, repo.fromCommentDoc(doc))
	}
	return comments, nil
}

func (repo postRepository) DeleteComment(ctx context.Context, id string) (post.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return post.Comment{}, post.ErrCommentNotFound
	}
	var doc commentDoc
	if err := repo.comments.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return post.Comment{}, repo.trapNoDocErr(err, post.ErrCommentNotFound, "deleting comment")
	}
	pull := bson.D{{Key: "$pull", Value: bson.D{{Key: "comments", Value: oid}}}}
	if _, err := repo.posts.UpdateByID(ctx, doc.PostID, pull); err != nil {
		return post.Comment{}, errors.Wrap(err, "detaching comment from post")
	}
	return repo.fromCommentDoc(doc), nil
}
