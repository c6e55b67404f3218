package db

import (
	"context"
	"testing"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func userTestCollection(t *testing.T) *MongoUserCollection {
	t.Helper()
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to create client: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	collection := client.Database("test_plant").Collection("users")
	collection.Drop(context.Background())
	return &MongoUserCollection{Collection: collection}
}

func TestMongoUserCollection_InsertAndFind(t *testing.T) {
	userCollection := userTestCollection(t)

	user := models.User{
		Username:     "planner1",
		Email:        "planner@plant.example",
		PasswordHash: "hashedpassword",
		Role:         models.RolePlanner,
		FirstName:    "Ana",
		LastName:     "Souza",
	}

	err := userCollection.InsertUser(context.Background(), user)
	assert.NoError(t, err)

	found, err := userCollection.FindUserByUsername(context.Background(), "planner1")
	assert.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, user.Role, found.Role)
	assert.True(t, found.IsActive)
	assert.NotZero(t, found.CreatedAt)

	byEmail, err := userCollection.FindUserByEmail(context.Background(), "planner@plant.example")
	assert.NoError(t, err)
	assert.Equal(t, user.Username, byEmail.Username)

	byID, err := userCollection.FindUserByID(context.Background(), found.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, user.Username, byID.Username)

	_, err = userCollection.FindUserByID(context.Background(), "invalid-id")
	assert.Error(t, err)

	_, err = userCollection.FindUserByUsername(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestMongoUserCollection_UpdateLastLogin(t *testing.T) {
	userCollection := userTestCollection(t)

	user := models.User{
		Username:     "tech1",
		Email:        "tech@plant.example",
		PasswordHash: "hashedpassword",
		Role:         models.RoleTechnician,
	}

	err := userCollection.InsertUser(context.Background(), user)
	require.NoError(t, err)

	var inserted models.User
	err = userCollection.Collection.FindOne(context.Background(), bson.M{"username": "tech1"}).Decode(&inserted)
	require.NoError(t, err)

	err = userCollection.UpdateLastLogin(context.Background(), inserted.ID.Hex())
	assert.NoError(t, err)

	updated, err := userCollection.FindUserByID(context.Background(), inserted.ID.Hex())
	assert.NoError(t, err)
	assert.NotNil(t, updated.LastLogin)
}
