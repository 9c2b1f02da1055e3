package testdb

import (
	"context"
	"sync"
	"testing"

	"portfolio-api/internal/config"
	"portfolio-api/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	sharedMongo     *MongoContainer
	sharedMongoOnce sync.Once
)

type MongoContainer struct {
	Container *mongodb.MongoDBContainer
	Client    *mongo.Client
	DB        *mongo.Database
	URI       string
}

// SetupSharedMongo creates a single MongoDB container shared across all tests
// of the package.
func SetupSharedMongo(t *testing.T) *MongoContainer {
	t.Helper()

	sharedMongoOnce.Do(func() {
		ctx := context.Background()
		container, err := mongodb.Run(ctx, "mongo:7")
		require.NoError(t, err)

		uri, err := container.ConnectionString(ctx)
		require.NoError(t, err)

		client, database, err := db.NewMongo(ctx, config.MongoConfig{
			URI:      uri,
			Database: "portfolio_test",
		})
		require.NoError(t, err)

		sharedMongo = &MongoContainer{
			Container: container,
			Client:    client,
			DB:        database,
			URI:       uri,
		}
	})

	require.NotNil(t, sharedMongo, "mongo container failed to start")
	return sharedMongo
}

func (mc *MongoContainer) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if mc.Client != nil {
		mc.Client.Disconnect(ctx)
	}

	if mc.Container != nil {
		if err := mc.Container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

// CleanupCollections removes every document but keeps the indexes.
func CleanupCollections(t *testing.T, database *mongo.Database, collections ...string) {
	t.Helper()

	ctx := context.Background()

	for _, name := range collections {
		_, err := database.Collection(name).DeleteMany(ctx, bson.M{})
		require.NoError(t, err, "failed to clear collection: %s", name)
	}
}
