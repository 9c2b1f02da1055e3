package admin

import (
	"context"
	"errors"
	"time"

	"portfolio-api/internal/db"
	"portfolio-api/internal/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "admins"

type adminDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
	Name        string             `bson:"name"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastLoginAt *time.Time         `bson:"lastLoginAt,omitempty"`
}

func (d *adminDocument) toAdmin() *Admin {
	return &Admin{
		ID:          d.ID.Hex(),
		Email:       d.Email,
		Password:    d.Password,
		Name:        d.Name,
		CreatedAt:   d.CreatedAt,
		LastLoginAt: d.LastLoginAt,
	}
}

type mongoRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

func NewMongoRepository(database *mongo.Database, m *metrics.Metrics) Repository {
	return &mongoRepository{
		coll:    database.Collection(collection),
		metrics: m,
	}
}

func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, admin *Admin) error {
	doc := &adminDocument{
		ID:        primitive.NewObjectID(),
		Email:     admin.Email,
		Password:  admin.Password,
		Name:      admin.Name,
		CreatedAt: admin.CreatedAt,
	}

	start := time.Now()
	_, err := r.coll.InsertOne(ctx, doc)

	r.metrics.Database.RecordQuery(ctx, "insert", collection, time.Since(start), err)

	if err != nil {
		if db.IsDuplicateKey(err) {
			return ErrAdminExists
		}
		return err
	}
	admin.ID = doc.ID.Hex()
	return nil
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*Admin, error) {
	start := time.Now()
	var doc adminDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return doc.toAdmin(), nil
}

func (r *mongoRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAdminNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrAdminNotFound
	}

	start := time.Now()
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastLoginAt": at}})

	r.metrics.Database.RecordQuery(ctx, "update", collection, time.Since(start), err)

	return err
}
