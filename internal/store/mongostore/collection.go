// Package mongostore keeps each collection in its own MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

const defaultTimeout = 5 * time.Second

// Collection adapts a *mongo.Collection to store.Collection.
type Collection[T store.Record[T]] struct {
	col     *mongo.Collection
	name    string
	timeout time.Duration
	newID   func() string
}

// NewCollection binds the named collection of db.
func NewCollection[T store.Record[T]](db *mongo.Database, name string) *Collection[T] {
	return &Collection[T]{
		col:     db.Collection(name),
		name:    name,
		timeout: defaultTimeout,
		newID:   store.NewID,
	}
}

// NewCatalog returns MongoDB-backed collections for every kind.
func NewCatalog(db *mongo.Database) store.Catalog {
	return store.Catalog{
		Genres:      NewCollection[models.Genre](db, store.Genres),
		Artists:     NewCollection[models.Artist](db, store.Artists),
		Songs:       NewCollection[models.Song](db, store.Songs),
		Profiles:    NewCollection[models.UserProfile](db, store.Profiles),
		Credentials: NewCollection[models.Credential](db, store.Credentials),
	}
}

// Connect opens a client and pings the deployment.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureIndexes creates the lookup indexes used by the catalog queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []struct {
		collection string
		field      string
		unique     bool
	}{
		{collection: store.Artists, field: models.FieldGenreID},
		{collection: store.Songs, field: models.FieldArtistID},
		{collection: store.Profiles, field: models.FieldUserID, unique: true},
		{collection: store.Credentials, field: models.FieldEmail, unique: true},
	}

	for _, idx := range indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: idx.field, Value: 1}},
			Options: options.Index().SetUnique(idx.unique),
		}
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create %s.%s index: %w", idx.collection, idx.field, err)
		}
	}
	return nil
}

// Create inserts the record with a new string _id.
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	record = record.WithID(c.newID())
	if _, err := c.col.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return zero, fmt.Errorf("%s: %w", c.name, store.ErrConflict)
		}
		return zero, fmt.Errorf("insert %s: %w", c.name, err)
	}
	return record, nil
}

// GetByID returns false when no document has the _id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var record T
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return record, false, nil
		}
		return record, false, fmt.Errorf("find %s: %w", c.name, err)
	}
	return record, true, nil
}

// QueryByField runs an equality filter on field.
func (c *Collection[T]) QueryByField(ctx context.Context, field string, value any) ([]T, error) {
	if err := store.CheckField(field); err != nil {
		return nil, err
	}
	return c.find(ctx, bson.M{field: value})
}

// List returns every document.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return c.find(ctx, bson.M{})
}

// Update applies fields with $set.
func (c *Collection[T]) Update(ctx context.Context, id string, fields store.Fields) error {
	if err := store.CheckFields(fields); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if len(fields) == 0 {
		n, err := c.col.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("count %s: %w", c.name, err)
		}
		if n == 0 {
			return store.NotFound(c.name, id)
		}
		return nil
	}

	res, err := c.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update %s: %w", c.name, err)
	}
	if res.MatchedCount == 0 {
		return store.NotFound(c.name, id)
	}
	return nil
}

// Delete removes the document.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.name, err)
	}
	if res.DeletedCount == 0 {
		return store.NotFound(c.name, id)
	}
	return nil
}

func (c *Collection[T]) find(ctx context.Context, filter bson.M) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*c.timeout)
	defer cancel()

	cur, err := c.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	defer cur.Close(ctx)

	var out []T
	for cur.Next(ctx) {
		var record T
		if err := cur.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		out = append(out, record)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.name, err)
	}
	return out, nil
}
