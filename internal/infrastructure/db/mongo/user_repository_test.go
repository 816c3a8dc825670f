package mongo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

func TestUserRepository_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns id", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Create(context.Background(), &domain.User{
			Name: "Alice", Email: "alice@example.com", PasswordHash: "h", Role: domain.RoleDeveloper,
		})
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(u.ID); err != nil {
			mt.Fatalf("expected hex object id, got %q", u.ID)
		}
		if u.CreatedAt.IsZero() {
			mt.Fatalf("expected created_at to be defaulted")
		}
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		_, err := repo.Create(context.Background(), &domain.User{Email: "alice@example.com"})
		if !errors.Is(err, domain.ErrUserExists) {
			mt.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("find by email", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		oid := primitive.NewObjectID()
		created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "smartsprint.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Bob"},
			{Key: "email", Value: "bob@example.com"},
			{Key: "password_hash", Value: "h"},
			{Key: "role", Value: "project_manager"},
			{Key: "created_at", Value: created},
			{Key: "updated_at", Value: created},
		}))

		u, err := repo.FindByEmail(context.Background(), "bob@example.com")
		if err != nil {
			mt.Fatalf("FindByEmail: %v", err)
		}
		if u.ID != oid.Hex() || u.Role != domain.RoleProjectManager || !u.CreatedAt.Equal(created) {
			mt.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "smartsprint.users", mtest.FirstBatch))

		if _, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("non hex id", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		if _, err := repo.FindByID(context.Background(), "42"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		if err := repo.Delete(context.Background(), "42"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		if err := repo.Delete(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "smartsprint.users", mtest.FirstBatch, bson.D{
			{Key: "n", Value: int32(3)},
		}))

		n, err := repo.Count(context.Background())
		if err != nil {
			mt.Fatalf("Count: %v", err)
		}
		if n != 3 {
			mt.Fatalf("expected 3, got %d", n)
		}
	})
}

func TestAuditRepository_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save event", func(mt *mtest.T) {
		repo := &AuditRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.SaveEvent(context.Background(), domain.AuthEvent{
			Type: domain.EventLoginFailed, Email: "ghost@example.com", OccurredAt: time.Now(),
		})
		if err != nil {
			mt.Fatalf("SaveEvent: %v", err)
		}
	})
}

func TestConfig_ClientOptions(t *testing.T) {
	opts := Config{URI: "mongodb://localhost:27017"}.clientOptions()
	if opts.AppName == nil || *opts.AppName != "smartsprint" {
		t.Fatalf("expected app name smartsprint, got %v", opts.AppName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != defaultMaxPoolSize {
		t.Fatalf("expected default pool size, got %v", opts.MaxPoolSize)
	}
	if opts.ConnectTimeout == nil || *opts.ConnectTimeout != defaultTimeout {
		t.Fatalf("expected default connect timeout, got %v", opts.ConnectTimeout)
	}

	opts = Config{URI: "mongodb://localhost:27017", MaxPoolSize: 5, Timeout: time.Second}.clientOptions()
	if *opts.MaxPoolSize != 5 || *opts.ServerSelectionTimeout != time.Second {
		t.Fatalf("config not applied: pool=%d selection=%s", *opts.MaxPoolSize, *opts.ServerSelectionTimeout)
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates user and audit indexes", func(mt *mtest.T) {
		store := newStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		if err := store.EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("EnsureIndexes: %v", err)
		}
	})

	mt.Run("user index failure", func(mt *mtest.T) {
		store := newStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 85, Name: "IndexOptionsConflict", Message: "index exists with different options",
		}))

		err := store.EnsureIndexes(context.Background())
		if err == nil || !strings.Contains(err.Error(), "mongo user indexes") {
			mt.Fatalf("expected user index error, got %v", err)
		}
	})
}
