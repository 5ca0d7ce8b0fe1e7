package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"artisanhub/database"
	"artisanhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	return &MongoBookingRepo{
		bookingColl: database.Collection("bookings"),
	}
}

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctxWithTimeout, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, bson.M{"id": bookingID}).Decode(&booking)
	if err != nil {
		return nil, fmt.Errorf("booking not found: %w", err)
	}
	return &booking, nil
}

// AppendStatus pushes a history entry and sets the denormalized current
// status in one update, so the history/current invariant holds in storage.
func (repo *MongoBookingRepo) AppendStatus(ctx context.Context, bookingID string, entry models.StatusEntry, extra map[string]any) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"current_status": entry.Status,
		"updated_at":     entry.Timestamp,
	}
	for k, v := range extra {
		set[k] = v
	}
	update := bson.M{
		"$push": bson.M{"status": entry},
		"$set":  set,
	}
	res, err := repo.bookingColl.UpdateOne(ctxWithTimeout, bson.M{"id": bookingID}, update)
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s not found", bookingID)
	}
	return nil
}

// FindConflicting returns non-terminal bookings for the artisan on the given
// date whose minute window intersects [startMinute, endMinute).
func (repo *MongoBookingRepo) FindConflicting(ctx context.Context, artisanID, date string, startMinute, endMinute int) ([]models.Booking, error) {
	filter := bson.M{
		"artisan_id":     artisanID,
		"scheduled_date": date,
		"current_status": bson.M{"$in": []string{models.StatusPending, models.StatusConfirmed, models.StatusInProgress}},
		"start_minute":   bson.M{"$lt": endMinute},
		"end_minute":     bson.M{"$gt": startMinute},
	}
	return repo.find(ctx, filter)
}

// FindActiveByArtisan returns confirmed or in-progress bookings for the artisan.
func (repo *MongoBookingRepo) FindActiveByArtisan(ctx context.Context, artisanID string) ([]models.Booking, error) {
	filter := bson.M{
		"artisan_id":     artisanID,
		"current_status": bson.M{"$in": []string{models.StatusConfirmed, models.StatusInProgress}},
	}
	return repo.find(ctx, filter)
}

func (repo *MongoBookingRepo) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	for cursor.Next(ctxWithTimeout) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

// Delete removes a booking record from the database.
func (repo *MongoBookingRepo) Delete(ctx context.Context, bookingID string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookingColl.DeleteOne(ctxWithTimeout, bson.M{"id": bookingID}); err != nil {
		return fmt.Errorf("error deleting booking %s: %w", bookingID, err)
	}
	return nil
}
