package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lugondev/go-tokengate/internal/config"
	"github.com/lugondev/go-tokengate/internal/storage"
)

func init() {
	storage.RegisterFactory(storage.DatabaseTypeMongoDB, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		repo, err := NewMongoRepository(ctx, &cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create mongo repository: %w", err)
		}
		return repo, nil
	})
}

type MongoRepository struct {
	client      *mongo.Client
	database    *mongo.Database
	accounts    *mongo.Collection
	accountRepo storage.AccountRepository
}

func NewMongoRepository(ctx context.Context, cfg *config.MongoDBConfig) (*MongoRepository, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	repo := &MongoRepository{
		client:   client,
		database: database,
		accounts: database.Collection("accounts"),
	}
	repo.accountRepo = &mongoAccountRepository{collection: repo.accounts}

	if err := repo.createIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "address", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.accounts.Indexes().CreateMany(ctx, models)
	return err
}

func (r *MongoRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *MongoRepository) Close() error {
	if r.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.client.Disconnect(ctx)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
