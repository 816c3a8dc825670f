package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxPoolSize = 50
	appName            = "smartsprint"
)

// Config captures the settings for the MongoDB credential store.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	Timeout     time.Duration
}

func (c Config) clientOptions() *options.ClientOptions {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool := c.MaxPoolSize
	if pool == 0 {
		pool = defaultMaxPoolSize
	}
	return options.Client().
		ApplyURI(c.URI).
		SetAppName(appName).
		SetMaxPoolSize(pool).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
}

// Store holds the connected client and the repositories built on it.
type Store struct {
	client *mongo.Client
	Users  *UserRepository
	Audit  *AuditRepository
}

func newStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client: client,
		Users:  NewUserRepository(db),
		Audit:  NewAuditRepository(db),
	}
}

// Open connects to MongoDB, verifies connectivity with a ping and creates the
// indexes the repositories rely on.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts := cfg.clientOptions()

	connectCtx, cancel := context.WithTimeout(ctx, *opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := newStore(client, client.Database(cfg.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// EnsureIndexes creates the unique email index and the audit history index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.Users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo user indexes: %w", err)
	}
	if err := s.Audit.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo audit indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
