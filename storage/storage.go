// Package storage opens the record store and the media store selected by the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/storage/database"
	inmemdb "github.com/trezcool/roster/storage/database/inmem"
	mongorepos "github.com/trezcool/roster/storage/database/mongo"
	diskstore "github.com/trezcool/roster/storage/media/disk"
	s3store "github.com/trezcool/roster/storage/media/s3"
)

// Database engines
const (
	EngineMongo  = "mongo"
	EngineMemory = "memory"
)

// Media backends
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Repositories groups the entity repositories of one record store.
type Repositories struct {
	Accounts school.Repository
	Students student.Repository
	Posts    post.Repository

	close         func(ctx context.Context) error
	ensureIndexes func(ctx context.Context) error
}

// EnsureIndexes (re)creates the indexes backing email uniqueness and the listing queries.
// It is idempotent, and a no-op for the in-memory engine.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	if r.ensureIndexes == nil {
		return nil
	}
	return r.ensureIndexes(ctx)
}

// Close releases the underlying connection, if any.
func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// OpenRepositories connects to the configured engine. With mongo, indexes are ensured before returning.
func OpenRepositories(ctx context.Context, conf *core.Config, logger core.Logger) (*Repositories, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		logger.Warn("using the in-memory database: records are lost on exit")
		db := inmemdb.Open()
		return &Repositories{
			Accounts: inmemdb.NewAccountRepository(db),
			Students: inmemdb.NewStudentRepository(db),
			Posts:    inmemdb.NewPostRepository(db),
		}, nil

	case EngineMongo, "":
		client, db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		repos := &Repositories{
			Accounts: mongorepos.NewAccountRepository(db),
			Students: mongorepos.NewStudentRepository(db),
			Posts:    mongorepos.NewPostRepository(db),
			close:    client.Disconnect,
			ensureIndexes: func(ctx context.Context) error {
				return database.EnsureIndexes(ctx, db)
			},
		}
		if err = repos.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info(fmt.Sprintf("connected to mongo database %q", conf.Database.Name))
		return repos, nil

	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// OpenMediaStore returns the store uploads are kept in.
func OpenMediaStore(ctx context.Context, conf *core.Config) (media.Store, error) {
	switch conf.Uploads.Backend {
	case BackendDisk, "":
		store, err := diskstore.New(conf.Uploads.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendS3:
		if conf.Uploads.S3.Bucket == "" {
			return nil, errors.New("uploads.s3.bucket is required with the s3 backend")
		}
		store, err := s3store.New(ctx, conf.Uploads.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.Errorf("unknown uploads backend %q", conf.Uploads.Backend)
	}
}
