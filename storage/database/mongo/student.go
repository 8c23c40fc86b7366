package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/storage/database"
)

type studentDoc struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	Owner        *primitive.ObjectID `bson:"user,omitempty"`
	FirstName    string              `bson:"firstName"`
	LastName     string              `bson:"lastName"`
	Standard     int                 `bson:"standard"`
	Division     string              `bson:"division"`
	Gender       string              `bson:"gender"`
	Email        string              `bson:"email"`
	MobileNumber string              `bson:"mobileNumber"`
	Address      string              `bson:"address"`
	ProfileImage string              `bson:"profileImage,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *mongo.Database) *studentRepository {
	return &studentRepository{coll: db.Collection(database.StudentsCollection)}
}

func (repo studentRepository) toDoc(s student.Student) studentDoc {
	oid, _ := objectID(s.ID)
	doc := studentDoc{
		ID:           oid,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		Standard:     s.Standard,
		Division:     s.Division,
		Gender:       s.Gender,
		Email:        s.Email,
		MobileNumber: s.MobileNumber,
		Address:      s.Address,
		ProfileImage: s.ProfileImage,
		CreatedAt:    utc(s.CreatedAt),
		UpdatedAt:    utc(s.UpdatedAt),
	}
	if owner, ok := objectID(s.Owner); ok {
		doc.Owner = &owner
	}
	return doc
}

func (repo studentRepository) fromDoc(doc studentDoc) student.Student {
	s := student.Student{
		ID:           doc.ID.Hex(),
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		Standard:     doc.Standard,
		Division:     doc.Division,
		Gender:       doc.Gender,
		Email:        doc.Email,
		MobileNumber: doc.MobileNumber,
		Address:      doc.Address,
		ProfileImage: doc.ProfileImage,
		CreatedAt:    utc(doc.CreatedAt),
		UpdatedAt:    utc(doc.UpdatedAt),
	}
	if doc.Owner != nil {
		s.Owner = doc.Owner.Hex()
	}
	return s
}

// trapNoDocErr maps mongo "no documents" err to student.ErrNotFound
func (repo studentRepository) trapNoDocErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	doc := repo.toDoc(s)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrEmailExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.fromDoc(doc), nil
}

// filterDoc builds the listing filter: names & email contain the search term (case-insensitive),
// or the mobile number equals it when it is numeric.
func (repo studentRepository) filterDoc(filter student.QueryFilter) bson.D {
	if filter.Search == "" {
		return bson.D{}
	}
	rx := containsRegex(filter.Search)
	or := bson.A{
		bson.D{{Key: "firstName", Value: rx}},
		bson.D{{Key: "lastName", Value: rx}},
		bson.D{{Key: "email", Value: rx}},
	}
	if filter.IsNumeric() {
		or = append(or, bson.D{{Key: "mobileNumber", Value: filter.Search}})
	}
	return bson.D{{Key: "$or", Value: or}}
}

func (repo studentRepository) QueryStudents(
	ctx context.Context,
	filter student.QueryFilter,
	page core.Pagination,
	ordering []core.DBOrdering,
) ([]student.Student, int64, error) {
	fltr := repo.filterDoc(filter)

	total, err := repo.coll.CountDocuments(ctx, fltr)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting students")
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "createdAt", Ascending: true}}
	}
	opts := options.Find().
		SetSort(sortDoc(ordering, student.OrderableFields)).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cur, err := repo.coll.Find(ctx, fltr, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying students")
	}
	var docs []studentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, 0, errors.Wrap(err, "decoding students")
	}
	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, repo.fromDoc(doc))
	}
	return students, total, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	oid, ok := objectID(id)
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	var doc studentDoc
	if err := repo.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return student.Student{}, repo.trapNoDocErr(err, "finding student by ID")
	}
	return repo.fromDoc(doc), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	oid, ok := objectID(s.ID)
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	doc := repo.toDoc(s)
	doc.ID = primitive.NilObjectID // _id is immutable; omitted from the replacement

	var updated studentDoc
	err := repo.coll.FindOneAndReplace(
		ctx, bson.D{{Key: "_id", Value: oid}}, doc,
		options.FindOneAndReplace().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrEmailExists
		}
		return student.Student{}, repo.trapNoDocErr(err, "updating student")
	}
	return repo.fromDoc(updated), nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string) (student.Student, error) {
	oid, ok := objectID(id)
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	var doc studentDoc
	if err := repo.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return student.Student{}, repo.trapNoDocErr(err, "deleting student")
	}
	return repo.fromDoc(doc), nil
}
