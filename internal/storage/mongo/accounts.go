package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-tokengate/internal/storage"
)

type mongoAccountRepository struct {
	collection *mongo.Collection
}

// Allocate relies on the unique address index; a duplicate insert maps to ErrAccountExists.
func (r *mongoAccountRepository) Allocate(ctx context.Context, account *storage.AccountModel) error {
	_, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAccountExists
		}
		return err
	}
	return nil
}

func (r *mongoAccountRepository) FindByAddress(ctx context.Context, address string) (*storage.AccountModel, error) {
	var account storage.AccountModel
	err := r.collection.FindOne(ctx, bson.M{"address": address}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func (r *mongoAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "address", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*storage.AccountModel
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
