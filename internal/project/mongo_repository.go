package project

import (
	"context"
	"errors"
	"time"

	"portfolio-api/internal/locale"
	"portfolio-api/internal/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "projects"

var listOrder = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}

type projectDocument struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Title           locale.Text          `bson:"title"`
	Description     locale.Text          `bson:"description"`
	LongDescription *locale.OptionalText `bson:"longDescription,omitempty"`
	Technologies    []string             `bson:"technologies"`
	Category        string               `bson:"category"`
	Image           string               `bson:"image"`
	DemoURL         string               `bson:"demoUrl"`
	GithubURL       string               `bson:"githubUrl"`
	Featured        bool                 `bson:"featured"`
	Published       bool                 `bson:"published"`
	Order           int                  `bson:"order"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func (d *projectDocument) toProject() Project {
	technologies := d.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	return Project{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Description:     d.Description,
		LongDescription: d.LongDescription,
		Technologies:    technologies,
		Category:        d.Category,
		Image:           d.Image,
		DemoURL:         d.DemoURL,
		GithubURL:       d.GithubURL,
		Featured:        d.Featured,
		Published:       d.Published,
		Order:           d.Order,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
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
		Keys: bson.D{
			{Key: "published", Value: 1},
			{Key: "order", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("published_listing"),
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, project *Project) error {
	doc := &projectDocument{
		ID:              primitive.NewObjectID(),
		Title:           project.Title,
		Description:     project.Description,
		LongDescription: project.LongDescription,
		Technologies:    project.Technologies,
		Category:        project.Category,
		Image:           project.Image,
		DemoURL:         project.DemoURL,
		GithubURL:       project.GithubURL,
		Featured:        project.Featured,
		Published:       project.Published,
		Order:           project.Order,
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
	}
	if doc.Technologies == nil {
		doc.Technologies = []string{}
	}

	start := time.Now()
	_, err := r.coll.InsertOne(ctx, doc)

	r.metrics.Database.RecordQuery(ctx, "insert", collection, time.Since(start), err)

	if err != nil {
		return err
	}
	project.ID = doc.ID.Hex()
	return nil
}

func (r *mongoRepository) ListPublished(ctx context.Context, filter ListFilter) ([]Project, error) {
	query := bson.M{"published": true}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Featured {
		query["featured"] = true
	}

	start := time.Now()
	projects, err := r.find(ctx, query)

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	return projects, err
}

func (r *mongoRepository) ListAll(ctx context.Context) ([]Project, error) {
	start := time.Now()
	projects, err := r.find(ctx, bson.M{})

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	return projects, err
}

func (r *mongoRepository) find(ctx context.Context, query bson.M) ([]Project, error) {
	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(listOrder))
	if err != nil {
		return nil, err
	}

	var docs []projectDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(docs))
	for i := range docs {
		projects = append(projects, docs[i].toProject())
	}
	return projects, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProjectNotFound
	}

	start := time.Now()
	var doc projectDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)

	r.metrics.Database.RecordQuery(ctx, "select", collection, time.Since(start), err)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	project := doc.toProject()
	return &project, nil
}

func (r *mongoRepository) Replace(ctx context.Context, project *Project) error {
	oid, err := primitive.ObjectIDFromHex(project.ID)
	if err != nil {
		return ErrProjectNotFound
	}

	technologies := project.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	update := bson.M{"$set": bson.M{
		"title":           project.Title,
		"description":     project.Description,
		"longDescription": project.LongDescription,
		"technologies":    technologies,
		"category":        project.Category,
		"image":           project.Image,
		"demoUrl":         project.DemoURL,
		"githubUrl":       project.GithubURL,
		"featured":        project.Featured,
		"published":       project.Published,
		"order":           project.Order,
		"updatedAt":       project.UpdatedAt,
	}}

	start := time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)

	r.metrics.Database.RecordQuery(ctx, "update", collection, time.Since(start), err)

	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrProjectNotFound
	}

	start := time.Now()
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})

	r.metrics.Database.RecordQuery(ctx, "delete", collection, time.Since(start), err)

	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}
