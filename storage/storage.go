// Package storage picks the cart and user backends named by the configuration.
package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/announcement"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/reservation"
	"github.com/trezcool/atlantis/core/user"
	"github.com/trezcool/atlantis/storage/database"
	filestore "github.com/trezcool/atlantis/storage/file"
	inmemdb "github.com/trezcool/atlantis/storage/inmem"
	redisstore "github.com/trezcool/atlantis/storage/redis"
)

// Backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// NeedsDB reports whether any configured backend is the SQL database.
func NeedsDB(conf *core.Config) bool {
	return conf.Cart.Backend == BackendSQL || conf.Users.Backend == BackendSQL
}

// OpenDB opens, waits for and migrates the configured database.
func OpenDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf.Database)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = database.Ping(pingCtx, db, 20); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// CartOptions returns the engine options for the configured cart backend.
// Every backend but memory may be written by other processes (admin CLI, API replicas).
func CartOptions(conf *core.Config, logger core.Logger) []cart.Option {
	opts := []cart.Option{cart.WithLogger(logger)}
	if conf.Cart.Backend != BackendMemory {
		opts = append(opts, cart.WithSharedStorage())
	}
	return opts
}

// Closer releases a backend's connections.
type Closer func() error

func noopCloser() error { return nil }

// NewCartStorage returns the configured cart backend. db is only used by the sql backend.
func NewCartStorage(ctx context.Context, conf *core.Config, db *sqlx.DB) (cart.Storage, Closer, error) {
	switch conf.Cart.Backend {
	case BackendMemory, "":
		return cart.NewMemoryStorage(), noopCloser, nil

	case BackendFile:
		s, err := filestore.New(conf.Cart.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noopCloser, nil

	case BackendRedis:
		client, err := redisstore.Open(ctx, conf.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client, conf.Cart.TTL), client.Close, nil

	case BackendSQL:
		if db == nil {
			return nil, nil, errors.New("sql cart backend requires a database")
		}
		return database.NewCartStorage(db), noopCloser, nil
	}
	return nil, nil, errors.Wrapf(ErrUnknownBackend, "cart backend %q", conf.Cart.Backend)
}

// Repositories are the record stores that follow the users backend setting.
type Repositories struct {
	Users         user.Repository
	Announcements announcement.Repository
	Reservations  reservation.Repository
}

// NewRepositories returns the configured user, announcement and reservation backends.
func NewRepositories(conf *core.Config, db *sqlx.DB) (Repositories, error) {
	switch conf.Users.Backend {
	case BackendMemory, "":
		mem := inmemdb.NewDB()
		return Repositories{
			Users:         inmemdb.NewUserRepository(mem),
			Announcements: inmemdb.NewAnnouncementRepository(mem),
			Reservations:  inmemdb.NewReservationRepository(mem),
		}, nil
	case BackendSQL:
		if db == nil {
			return Repositories{}, errors.New("sql user backend requires a database")
		}
		return Repositories{
			Users:         database.NewUserRepository(db),
			Announcements: database.NewAnnouncementRepository(db),
			Reservations:  database.NewReservationRepository(db),
		}, nil
	}
	return Repositories{}, errors.Wrapf(ErrUnknownBackend, "user backend %q", conf.Users.Backend)
}
