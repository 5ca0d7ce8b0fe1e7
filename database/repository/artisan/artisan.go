package artisanRepo

import (
	"context"
	"fmt"
	"time"

	"artisanhub/database"
	"artisanhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ArtisanRepository is the slice of artisan storage the realtime core uses:
// existence/availability checks for booking creation, and the durable
// presence side effects the registry performs on connect/disconnect.
type ArtisanRepository interface {
	GetByID(ctx context.Context, artisanID string) (*models.Artisan, error)
	SetOnlineStatus(ctx context.Context, artisanID string, online bool, lastSeen time.Time) error
}

// MongoArtisanRepo implements ArtisanRepository using MongoDB.
type MongoArtisanRepo struct {
	artisanColl *mongo.Collection
}

// NewMongoArtisanRepo constructs a new instance of MongoArtisanRepo.
func NewMongoArtisanRepo() ArtisanRepository {
	return &MongoArtisanRepo{
		artisanColl: database.Collection("artisans"),
	}
}

// GetByID retrieves an artisan document by ID.
func (repo *MongoArtisanRepo) GetByID(ctx context.Context, artisanID string) (*models.Artisan, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var artisan models.Artisan
	if err := repo.artisanColl.FindOne(ctxWithTimeout, bson.M{"id": artisanID}).Decode(&artisan); err != nil {
		return nil, fmt.Errorf("error fetching artisan with id %s: %w", artisanID, err)
	}
	return &artisan, nil
}

// SetOnlineStatus persists the artisan's durable presence fields.
func (repo *MongoArtisanRepo) SetOnlineStatus(ctx context.Context, artisanID string, online bool, lastSeen time.Time) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_online": online, "last_seen": lastSeen}}
	if _, err := repo.artisanColl.UpdateOne(ctxWithTimeout, bson.M{"id": artisanID}, update); err != nil {
		return fmt.Errorf("error updating artisan %s presence: %w", artisanID, err)
	}
	return nil
}
