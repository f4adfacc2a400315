package pin

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("pin not found")

const (
	CollectionPins        = "pins"
	CollectionTags        = "tags"
	CollectionPinLinks    = "pinlinks"
	CollectionAIGenerated = "ai_generated"
)

type Repository interface {
	InsertPin(ctx context.Context, p Pin) (primitive.ObjectID, error)
	FindPinByID(ctx context.Context, id primitive.ObjectID) (Pin, error)
	CountPinsByOwner(ctx context.Context, ownerID string) (int64, error)
	FindPinsByOwner(ctx context.Context, ownerID string) ([]Pin, error)
	FindPinsSavedBy(ctx context.Context, userID string) ([]Pin, error)
	FindLivePins(ctx context.Context) ([]Pin, error)
	UpdatePinFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (Pin, error)
	RemovePin(ctx context.Context, id primitive.ObjectID) (Pin, error)

	HasTag(ctx context.Context, tag string) (bool, error)
	InsertTag(ctx context.Context, tag string) error

	InsertPinLink(ctx context.Context, link PinLink) error

	CountAIImagesByOwner(ctx context.Context, ownerID string) (int64, error)
	InsertAIImage(ctx context.Context, rec AIGenerated) (primitive.ObjectID, error)
}

type mongoRepository struct {
	pins        *mongo.Collection
	tags        *mongo.Collection
	pinLinks    *mongo.Collection
	aiGenerated *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		pins:        db.Collection(CollectionPins),
		tags:        db.Collection(CollectionTags),
		pinLinks:    db.Collection(CollectionPinLinks),
		aiGenerated: db.Collection(CollectionAIGenerated),
	}
}

func (r *mongoRepository) InsertPin(ctx context.Context, p Pin) (primitive.ObjectID, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	res, err := r.pins.InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected insert id type")
	}
	return id, nil
}

func (r *mongoRepository) FindPinByID(ctx context.Context, id primitive.ObjectID) (Pin, error) {
	var p Pin
	err := r.pins.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Pin{}, ErrNotFound
		}
		return Pin{}, err
	}
	return p, nil
}

func (r *mongoRepository) CountPinsByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.pins.CountDocuments(ctx, bson.M{"owner.id": ownerID})
}

func (r *mongoRepository) FindPinsByOwner(ctx context.Context, ownerID string) ([]Pin, error) {
	return r.findMany(ctx, bson.M{"owner.id": ownerID})
}

func (r *mongoRepository) FindPinsSavedBy(ctx context.Context, userID string) ([]Pin, error) {
	return r.findMany(ctx, bson.M{"savedBy.id": userID})
}

func (r *mongoRepository) FindLivePins(ctx context.Context) ([]Pin, error) {
	return r.findMany(ctx, bson.M{"isBroken": false})
}

// UpdatePinFields applies a single atomic $set and returns the updated
// document. Enrichment and savedBy writes both go through here.
func (r *mongoRepository) UpdatePinFields(ctx context.Context, id primitive.ObjectID, fields bson.M) (Pin, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p Pin
	err := r.pins.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Pin{}, ErrNotFound
		}
		return Pin{}, err
	}
	return p, nil
}

func (r *mongoRepository) RemovePin(ctx context.Context, id primitive.ObjectID) (Pin, error) {
	var p Pin
	err := r.pins.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Pin{}, ErrNotFound
		}
		return Pin{}, err
	}
	return p, nil
}

func (r *mongoRepository) HasTag(ctx context.Context, tag string) (bool, error) {
	count, err := r.tags.CountDocuments(ctx, bson.M{"tag": tag})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *mongoRepository) InsertTag(ctx context.Context, tag string) error {
	_, err := r.tags.InsertOne(ctx, SavedTag{Tag: tag})
	return err
}

func (r *mongoRepository) InsertPinLink(ctx context.Context, link PinLink) error {
	_, err := r.pinLinks.InsertOne(ctx, link)
	return err
}

func (r *mongoRepository) CountAIImagesByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.aiGenerated.CountDocuments(ctx, bson.M{"owner.id": ownerID})
}

func (r *mongoRepository) InsertAIImage(ctx context.Context, rec AIGenerated) (primitive.ObjectID, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	res, err := r.aiGenerated.InsertOne(ctx, rec)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected insert id type")
	}
	return id, nil
}

func (r *mongoRepository) findMany(ctx context.Context, filter bson.M) ([]Pin, error) {
	cur, err := r.pins.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pins []Pin
	for cur.Next(ctx) {
		var p Pin
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return pins, nil
}
