package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/repository"
)

const (
	pigsCollection         = "pigs"
	breedsCollection       = "breeds"
	checklistCollection    = "checklist_items"
	observationsCollection = "observations"
	settingsCollection     = "settings"
	herdReportsCollection  = "herd_reports"

	monitoringSettingsID = "monitoring"
)

type monitoringSettings struct {
	ID        string `bson:"_id"`
	StartTime string `bson:"start_time"`
}

// MongoDBRepository stores pigs, breeds, the symptom catalog and observations.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(observationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pig_id", Value: 1}, {Key: "date", Value: -1}, {Key: "recorded_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create observations index: %w", err)
	}

	_, err = r.db.Collection(herdReportsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create herd reports index: %w", err)
	}
	return nil
}

// SavePig inserts or replaces a pig.
func (r *MongoDBRepository) SavePig(ctx context.Context, pig models.Pig) error {
	return r.upsert(ctx, pigsCollection, pig.ID, pig)
}

// GetPig loads one pig by id.
func (r *MongoDBRepository) GetPig(ctx context.Context, id string) (models.Pig, error) {
	var pig models.Pig
	if err := r.findByID(ctx, pigsCollection, id, &pig); err != nil {
		return models.Pig{}, err
	}
	return pig, nil
}

// ListPigs returns every registered pig ordered by name.
func (r *MongoDBRepository) ListPigs(ctx context.Context) ([]models.Pig, error) {
	var pigs []models.Pig
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if err := r.findAll(ctx, pigsCollection, bson.D{}, opts, &pigs); err != nil {
		return nil, err
	}
	return pigs, nil
}

// SaveBreed inserts or replaces a breed profile.
func (r *MongoDBRepository) SaveBreed(ctx context.Context, breed models.BreedProfile) error {
	return r.upsert(ctx, breedsCollection, breed.ID, breed)
}

// GetBreed loads one breed profile by id.
func (r *MongoDBRepository) GetBreed(ctx context.Context, id string) (models.BreedProfile, error) {
	var breed models.BreedProfile
	if err := r.findByID(ctx, breedsCollection, id, &breed); err != nil {
		return models.BreedProfile{}, err
	}
	return breed, nil
}

// SaveChecklistItem inserts or replaces a symptom catalog entry.
func (r *MongoDBRepository) SaveChecklistItem(ctx context.Context, item models.ChecklistItem) error {
	return r.upsert(ctx, checklistCollection, item.ID, item)
}

// ListChecklistItems returns the full symptom catalog.
func (r *MongoDBRepository) ListChecklistItems(ctx context.Context) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	opts := options.Find().SetSort(bson.D{{Key: "risk_weight", Value: -1}, {Key: "name", Value: 1}})
	if err := r.findAll(ctx, checklistCollection, bson.D{}, opts, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveObservation stores a new monitoring session.
func (r *MongoDBRepository) SaveObservation(ctx context.Context, obs models.Observation) error {
	if _, err := r.db.Collection(observationsCollection).InsertOne(ctx, obs); err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// ListObservations returns the history of one pig, newest first.
func (r *MongoDBRepository) ListObservations(ctx context.Context, pigID string) ([]models.Observation, error) {
	var observations []models.Observation
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "recorded_at", Value: -1}})
	if err := r.findAll(ctx, observationsCollection, bson.D{{Key: "pig_id", Value: pigID}}, opts, &observations); err != nil {
		return nil, err
	}
	return observations, nil
}

// GetStartTime returns the configured daily start time, or repository.ErrNotFound when unset.
func (r *MongoDBRepository) GetStartTime(ctx context.Context) (string, error) {
	var settings monitoringSettings
	if err := r.findByID(ctx, settingsCollection, monitoringSettingsID, &settings); err != nil {
		return "", err
	}
	return settings.StartTime, nil
}

// SetStartTime stores the daily start time.
func (r *MongoDBRepository) SetStartTime(ctx context.Context, startTime string) error {
	return r.upsert(ctx, settingsCollection, monitoringSettingsID, monitoringSettings{ID: monitoringSettingsID, StartTime: startTime})
}

// SaveHerdReport stores the first report of each day; later reports for the
// same day leave the stored one untouched.
func (r *MongoDBRepository) SaveHerdReport(ctx context.Context, report models.HerdReport) error {
	if report.Day == "" {
		report.Day = report.Date.Format(models.DateLayout)
	}
	_, err := r.db.Collection(herdReportsCollection).UpdateOne(ctx,
		bson.M{"day": report.Day},
		bson.M{"$setOnInsert": report},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save herd report %s: %w", report.Day, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) upsert(ctx context.Context, collection, id string, doc interface{}) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.db.Collection(collection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", collection, err)
	}
	return nil
}

func (r *MongoDBRepository) findByID(ctx context.Context, collection, id string, out interface{}) error {
	err := r.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", collection, id, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", collection, id, err)
	}
	return nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, collection string, filter interface{}, opts *options.FindOptions, out interface{}) error {
	cursor, err := r.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}
