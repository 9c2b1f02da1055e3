package blog

import (
	"context"
	"errors"
	"time"

	"portfolio-api/internal/db"
	"portfolio-api/internal/locale"
	"portfolio-api/internal/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "blogs"

type blogDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       locale.Text        `bson:"title"`
	Slug        string             `bson:"slug"`
	Description locale.Text        `bson:"description"`
	Content     *locale.Text       `bson:"content,omitempty"`
	Category    Category           `bson:"category"`
	Tags        []string           `bson:"tags"`
	Thumbnail   string             `bson:"thumbnail"`
	Published   bool               `bson:"published"`
	Featured    bool               `bson:"featured"`
	Views       int64              `bson:"views"`
	Author      string             `bson:"author"`
	PublishedAt *time.Time         `bson:"publishedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDocument(b *Blog) (*blogDocument, error) {
	doc := &blogDocument{
		Title:       b.Title,
		Slug:        b.Slug,
		Description: b.Description,
		Content:     b.Content,
		Category:    b.Category,
		Tags:        b.Tags,
		Thumbnail:   b.Thumbnail,
		Published:   b.Published,
		Featured:    b.Featured,
		Views:       b.Views,
		Author:      b.Author,
		PublishedAt: b.PublishedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.ID != "" {
		oid, err := primitive.ObjectIDFromHex(b.ID)
		if err != nil {
			return nil, ErrBlogNotFound
		}
		doc.ID = oid
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc, nil
}

func (d *blogDocument) toBlog() Blog {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return Blog{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Slug:        d.Slug,
		Description: d.Description,
		Content:     d.Content,
		Category:    d.Category,
		Tags:        tags,
		Thumbnail:   d.Thumbnail,
		Published:   d.Published,
		Featured:    d.Featured,
		Views:       d.Views,
		Author:      d.Author,
		PublishedAt: d.PublishedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

// NewMongoRepository returns the MongoDB backed repository.
func NewMongoRepository(database *mongo.Database, m *metrics.Metrics) Repository {
	return &mongoRepository{
		coll:    database.Collection(collection),
		metrics: m,
	}
}

// EnsureMongoIndexes creates the unique slug index and the index backing the
// public listing.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(collection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys: bson.D{
				{Key: "published", Value: 1},
				{Key: "publishedAt", Value: -1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("published_listing"),
		},
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, blog *Blog) error {
	doc, err := toDocument(blog)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	start := time.Now()
	_, err = r.coll.InsertOne(ctx, doc)

	r.metrics.Database.RecordQuery(ctx, "insert", collection, time.Since(start), err)

	if err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	blog.ID = doc.ID.Hex()
	return nil
}

func (r *mongoRepository) ListPublished(ctx context.Context, filter ListFilter) ([]Blog, int, error) {
	query := bson.M{"published": true}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Featured {
		query["featured"] = true
	}

	start := time.Now()
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		r.metrics.Database.RecordQuery(ctx, "count", collection, time.Since(start), err)
		return nil, 0, err
	}

	opts := options.Find().
		SetProjection(bson.M{"content": 0}).
		SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	blogs, err := r.find(ctx, query, opts)

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	if err != nil {
		return nil, 0, err
	}
	return blogs, int(total), nil
}

func (r *mongoRepository) ListAll(ctx context.Context) ([]Blog, error) {
	opts := options.Find().
		SetProjection(bson.M{"content": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	start := time.Now()
	blogs, err := r.find(ctx, bson.M{}, opts)

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	return blogs, err
}

func (r *mongoRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]Blog, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	blogs := make([]Blog, 0)
	for cursor.Next(ctx) {
		var doc blogDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		blogs = append(blogs, doc.toBlog())
	}
	return blogs, cursor.Err()
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrBlogNotFound
	}

	start := time.Now()
	var doc blogDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	blog := doc.toBlog()
	return &blog, nil
}

func (r *mongoRepository) IncrementViews(ctx context.Context, slug string) (*Blog, error) {
	start := time.Now()
	var doc blogDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"slug": slug, "published": true},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)

	r.metrics.Database.RecordQuery(ctx, "update", collection, time.Since(start), err)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	blog := doc.toBlog()
	return &blog, nil
}

func (r *mongoRepository) Replace(ctx context.Context, blog *Blog) error {
	if blog.ID == "" {
		return ErrBlogNotFound
	}
	doc, err := toDocument(blog)
	if err != nil {
		return err
	}

	// views is owned by IncrementViews and left untouched here.
	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"slug":        doc.Slug,
		"description": doc.Description,
		"content":     doc.Content,
		"category":    doc.Category,
		"tags":        doc.Tags,
		"thumbnail":   doc.Thumbnail,
		"published":   doc.Published,
		"featured":    doc.Featured,
		"author":      doc.Author,
		"publishedAt": doc.PublishedAt,
		"updatedAt":   doc.UpdatedAt,
	}}

	start := time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)

	r.metrics.Database.RecordQuery(ctx, "update", collection, time.Since(start), err)

	if err != nil {
		if db.IsDuplicateKey(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	if result.MatchedCount == 0 {
		return ErrBlogNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrBlogNotFound
	}

	start := time.Now()
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})

	r.metrics.Database.RecordQuery(ctx, "delete", collection, time.Since(start), err)

	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrBlogNotFound
	}
	return nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}
