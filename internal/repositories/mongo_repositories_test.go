package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestPropertyRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("create assigns id and default radius", func(mt *mtest.T) {
		repo := NewMongoPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Property{Title: "Maple Cottage"}
		require.NoError(mt, repo.CreateProperty(ctx, p))
		assert.False(mt, p.ID.IsZero())
		assert.Equal(mt, models.DefaultSearchRadius, p.Radius)
	})

	mt.Run("get by malformed id", func(mt *mtest.T) {
		repo := NewMongoPropertyRepository(mt.DB)
		_, err := repo.GetPropertyByID(ctx, "not-an-id")
		assert.ErrorIs(mt, err, ErrInvalidID)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.properties", mtest.FirstBatch))

		_, err := repo.GetPropertyByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list decodes documents", func(mt *mtest.T) {
		repo := NewMongoPropertyRepository(mt.DB)
		first := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "Oak House"}, {Key: "radius", Value: 1500}}
		second := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "Elm Flat"}, {Key: "radius", Value: 1000}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.properties", mtest.FirstBatch, first, second))

		props, err := repo.ListProperties(ctx, models.PropertyFilter{Title: "house"})
		require.NoError(mt, err)
		require.Len(mt, props, 2)
		assert.Equal(mt, "Oak House", props[0].Title)
		assert.Equal(mt, 1500, props[0].Radius)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewMongoPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.UpdateProperty(ctx, primitive.NewObjectID().Hex(), &models.Property{Title: "x"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoPropertyRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, repo.DeleteProperty(ctx, primitive.NewObjectID().Hex()))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(mt, repo.DeleteProperty(ctx, primitive.NewObjectID().Hex()), ErrNotFound)
	})
}

func TestUserRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("create requires an identity", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		err := repo.CreateUser(ctx, &models.User{})
		assert.ErrorIs(mt, err, models.ErrMissingIdentity)
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		err := repo.CreateUser(ctx, &models.User{Email: "a@x.io", Password: "hash"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "a@x.io"},
			{Key: "password", Value: "hash"},
			{Key: "isBlocked", Value: true},
		}))

		user, err := repo.GetUserByEmail(ctx, "a@x.io")
		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.True(mt, user.IsBlocked)
		assert.True(mt, user.HasPassword())
	})

	mt.Run("update password of unknown email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.UpdatePassword(ctx, "ghost@x.io", "hash")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("toggle blocked returns stored value", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "a@x.io"},
			{Key: "isBlocked", Value: true},
		}}))

		blocked, err := repo.ToggleBlocked(ctx, primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.True(mt, blocked)
	})
}

func TestOtpRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("replace deletes then inserts", func(mt *mtest.T) {
		repo := NewMongoOtpRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(),
		)

		otp := &models.Otp{Email: "a@x.io", Code: "123456"}
		require.NoError(mt, repo.Replace(ctx, otp))
		assert.False(mt, otp.ID.IsZero())
		assert.False(mt, otp.CreatedAt.IsZero())
	})

	mt.Run("find valid misses", func(mt *mtest.T) {
		repo := NewMongoOtpRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.otps", mtest.FirstBatch))

		_, err := repo.FindValid(ctx, "a@x.io", "000000", time.Now().Add(-10*time.Minute))
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestActivityRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("upsert returns the document after the write", func(mt *mtest.T) {
		repo := NewMongoActivityRepository(mt.DB)
		visit := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "userId", Value: "u1"},
			{Key: "propertyId", Value: "p1"},
			{Key: "shortlisted", Value: true},
			{Key: "visitDate", Value: visit},
			{Key: "status", Value: models.StatusVisitScheduled},
		}}))

		status := models.StatusVisitScheduled
		activity, err := repo.Upsert(ctx, "u1", "p1", models.ActivityPatch{VisitDate: &visit, Status: &status})
		require.NoError(mt, err)
		assert.True(mt, activity.Shortlisted)
		require.NotNil(mt, activity.VisitDate)
		assert.True(mt, visit.Equal(*activity.VisitDate))
		assert.Equal(mt, models.StageVisitScheduled, activity.Stage())
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoActivityRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.activities", mtest.FirstBatch))

		_, err := repo.Get(ctx, "u1", "p1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list by user", func(mt *mtest.T) {
		repo := NewMongoActivityRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.activities", mtest.FirstBatch,
			bson.D{{Key: "userId", Value: "u1"}, {Key: "propertyId", Value: "p1"}, {Key: "shortlisted", Value: true}},
			bson.D{{Key: "userId", Value: "u1"}, {Key: "propertyId", Value: "p2"}, {Key: "status", Value: models.StatusVisited}},
		))

		activities, err := repo.ListByUser(ctx, "u1")
		require.NoError(mt, err)
		require.Len(mt, activities, 2)
		assert.Equal(mt, models.StageShortlisted, activities[0].Stage())
		assert.Equal(mt, models.StageVisited, activities[1].Stage())
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewMongoActivityRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(ctx, "u1", "p1"), ErrNotFound)
	})
}

func TestFormProgressRepository(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("save returns stored responses", func(mt *mtest.T) {
		repo := NewMongoFormProgressRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "userId", Value: "u1"},
			{Key: "responses", Value: bson.A{bson.D{{Key: "questionId", Value: "q1"}, {Key: "answer", Value: "yes"}}}},
		}}))

		progress, err := repo.Save(ctx, "u1", []models.FormResponse{{QuestionID: "q1", Answer: "yes"}})
		require.NoError(mt, err)
		require.Len(mt, progress.Responses, 1)
		assert.Equal(mt, "q1", progress.Responses[0].QuestionID)
		assert.Equal(mt, "yes", progress.Responses[0].Answer)
	})

	mt.Run("load missing", func(mt *mtest.T) {
		repo := NewMongoFormProgressRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prehome.form_progress", mtest.FirstBatch))

		_, err := repo.Load(ctx, "u1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
