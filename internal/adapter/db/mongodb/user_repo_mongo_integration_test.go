package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zaptest"

	"user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
)

func setupMongoContainer(t *testing.T) *mongo.Collection {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcmongo.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	return client.Database("user_management").Collection("users")
}

func TestUserRepoMongo_Integration(t *testing.T) {
	coll := setupMongoContainer(t)
	repo := NewUserRepoMongo(coll, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, repo.EnsureIndexes(ctx))
	require.NoError(t, repo.Ping(ctx))

	ann, err := repo.Save(ctx, &user.User{Name: "Ann", Email: "ann@x.io", Age: 30})
	require.NoError(t, err)
	require.True(t, ann.IsPersisted())

	_, err = repo.Save(ctx, &user.User{Name: "Other Ann", Email: "ann@x.io", Age: 44})
	var dup *apperrors.AlreadyExistsError
	require.ErrorAs(t, err, &dup, "unique index rejects a second ann@x.io")

	exists, err := repo.ExistsByEmail(ctx, "ann@x.io")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "ANN@x.io")
	require.NoError(t, err)
	assert.False(t, exists, "email match is exact")

	ann.Name = "Ann B"
	ann.Age = 31
	updated, err := repo.Save(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, updated.ID)

	got, err := repo.FindByID(ctx, ann.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann B", got.Name)
	assert.Equal(t, 31, got.Age)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.RemoveByID(ctx, ann.ID))

	got, err = repo.FindByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
