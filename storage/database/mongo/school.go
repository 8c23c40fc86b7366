package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/storage/database"
)

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Email        string             `bson:"email"`
	MobileNumber string             `bson:"mobileNumber"`
	Password     []byte             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type accountRepository struct {
	coll *mongo.Collection
}

var _ school.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *mongo.Database) *accountRepository {
	return &accountRepository{coll: db.Collection(database.AccountsCollection)}
}

func (repo accountRepository) toDoc(acc school.Account) accountDoc {
	oid, _ := objectID(acc.ID)
	return accountDoc{
		ID:           oid,
		FirstName:    acc.FirstName,
		LastName:     acc.LastName,
		Email:        acc.Email,
		MobileNumber: acc.MobileNumber,
		Password:     acc.PasswordHash,
		CreatedAt:    utc(acc.CreatedAt),
		UpdatedAt:    utc(acc.UpdatedAt),
	}
}

func (repo accountRepository) fromDoc(doc accountDoc) school.Account {
	return school.Account{
		ID:           doc.ID.Hex(),
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		Email:        doc.Email,
		MobileNumber: doc.MobileNumber,
		PasswordHash: doc.Password,
		CreatedAt:    utc(doc.CreatedAt),
		UpdatedAt:    utc(doc.UpdatedAt),
	}
}

// trapNoDocErr maps mongo "no documents" err to school.ErrNotFound
func (repo accountRepository) trapNoDocErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc school.Account) (school.Account, error) {
	doc := repo.toDoc(acc)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return school.Account{}, school.ErrEmailExists
		}
		return school.Account{}, errors.Wrap(err, "inserting account")
	}
	return repo.fromDoc(doc), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context) ([]school.Account, error) {
	cur, err := repo.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	var docs []accountDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding accounts")
	}
	accounts := make([]school.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, repo.fromDoc(doc))
	}
	return accounts, nil
}

func (repo accountRepository) findOne(ctx context.Context, filter bson.D, msg string) (school.Account, error) {
	var doc accountDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return school.Account{}, repo.trapNoDocErr(err, msg)
	}
	return repo.fromDoc(doc), nil
}

func (repo accountRepository) GetAccount(ctx context.Context, id string) (school.Account, error) {
	oid, ok := objectID(id)
	if !ok {
		return school.Account{}, school.ErrNotFound
	}
	return repo.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, "finding account by ID")
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (school.Account, error) {
	return repo.findOne(ctx, bson.D{{Key: "email", Value: email}}, "finding account by email")
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc school.Account) (school.Account, error) {
	oid, ok := objectID(acc.ID)
	if !ok {
		return school.Account{}, school.ErrNotFound
	}
	doc := repo.toDoc(acc)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "firstName", Value: doc.FirstName},
		{Key: "lastName", Value: doc.LastName},
		{Key: "email", Value: doc.Email},
		{Key: "mobileNumber", Value: doc.MobileNumber},
		{Key: "password", Value: doc.Password},
		{Key: "updatedAt", Value: doc.UpdatedAt},
	}}}

	var updated accountDoc
	err := repo.coll.FindOneAndUpdate(
		ctx, bson.D{{Key: "_id", Value: oid}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return school.Account{}, school.ErrEmailExists
		}
		return school.Account{}, repo.trapNoDocErr(err, "updating account")
	}
	return repo.fromDoc(updated), nil
}

func (repo accountRepository) DeleteAccount(ctx context.Context, id string) (school.Account, error) {
	oid, ok := objectID(id)
	if !ok {
		return school.Account{}, school.ErrNotFound
	}
	var doc accountDoc
	if err := repo.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return school.Account{}, repo.trapNoDocErr(err, "deleting account")
	}
	return repo.fromDoc(doc), nil
}
