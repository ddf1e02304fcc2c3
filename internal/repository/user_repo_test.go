package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
)

func newTestUser() *entity.User {
	return &entity.User{
		Name:       "Asha Rao",
		Email:      "asha@example.com",
		NationalID: "123456789012",
		Password:   "$2a$10$abcdefghijklmnopqrstuv",
		Birthday:   "1990-05-17",
		Gender:     "Female",
		Document: entity.Document{
			Filename:    "id.pdf",
			ContentType: "application/pdf",
			Size:        4,
			Content:     "JVBERg==",
		},
	}
}

func commandError() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    2,
		Name:    "BadValue",
		Message: "simulated server failure",
	})
}

func TestUserRepository_CreateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Success", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := newTestUser()
		err := repo.CreateUser(context.Background(), user)

		require.NoError(mt, err)
		assert.False(mt, user.ID.IsZero())
		assert.Equal(mt, entity.RoleUser, user.Role)
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("Duplicate Email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: disaster_relief_db.users index: email_1 dup key: { email: "asha@example.com" }`,
		}))

		err := repo.CreateUser(context.Background(), newTestUser())

		assert.ErrorIs(mt, err, ErrDuplicateEmail)
		assert.ErrorIs(mt, err, ErrConflict)
		assert.NotErrorIs(mt, err, ErrStoreUnavailable)
	})

	mt.Run("Duplicate National ID", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: disaster_relief_db.users index: id_number_1 dup key: { id_number: "123456789012" }`,
		}))

		err := repo.CreateUser(context.Background(), newTestUser())

		assert.ErrorIs(mt, err, ErrDuplicateNationalID)
		assert.ErrorIs(mt, err, ErrConflict)
	})

	mt.Run("Store Failure", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(commandError())

		err := repo.CreateUser(context.Background(), newTestUser())

		assert.ErrorIs(mt, err, ErrStoreUnavailable)
		assert.NotErrorIs(mt, err, ErrConflict)
	})
}

func TestUserRepository_Exists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Email Found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "disaster_relief_db.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: int32(1)}}))

		exists, err := repo.EmailExists(context.Background(), "asha@example.com")
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("National ID Free", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "disaster_relief_db.users", mtest.FirstBatch))

		exists, err := repo.NationalIDExists(context.Background(), "123456789012")
		require.NoError(mt, err)
		assert.False(mt, exists)
	})

	mt.Run("Store Failure Is Not Absence", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(commandError())

		exists, err := repo.EmailExists(context.Background(), "asha@example.com")
		assert.ErrorIs(mt, err, ErrStoreUnavailable)
		assert.False(mt, exists)
	})
}

func TestUserRepository_FindByIdentifier(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mt.Run("Found By National ID", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "disaster_relief_db.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Asha Rao"},
			{Key: "email", Value: "asha@example.com"},
			{Key: "id_number", Value: "123456789012"},
			{Key: "password", Value: "hash"},
			{Key: "role", Value: "admin"},
			{Key: "created_at", Value: created},
			{Key: "govt_id_document", Value: bson.D{
				{Key: "filename", Value: "id.png"},
				{Key: "content_type", Value: "image/png"},
				{Key: "size", Value: int64(2048)},
			}},
		}))

		user, err := repo.FindByIdentifier(context.Background(), "123456789012", false)
		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "asha@example.com", user.Email)
		assert.Equal(mt, entity.RoleAdmin, user.Role)
		assert.Equal(mt, "image/png", user.Document.ContentType)
		assert.Equal(mt, int64(2048), user.Document.Size)
		assert.True(mt, created.Equal(user.CreatedAt))
		assert.Nil(mt, user.ResetTokenExpiry)
	})

	mt.Run("Not Found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "disaster_relief_db.users", mtest.FirstBatch))

		user, err := repo.FindByIdentifier(context.Background(), "nobody@example.com", true)
		assert.ErrorIs(mt, err, ErrUserNotFound)
		assert.Nil(mt, user)
	})

	mt.Run("Store Failure", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(commandError())

		_, err := repo.FindByIdentifier(context.Background(), "asha@example.com", true)
		assert.ErrorIs(mt, err, ErrStoreUnavailable)
		assert.False(mt, errors.Is(err, ErrUserNotFound))
	})
}

func TestUserRepository_Updates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	matched := bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}}
	unmatched := bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}}

	mt.Run("Set Reset Token", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(matched)

		err := repo.SetResetToken(context.Background(), "asha@example.com", true, "Ab3dE6gH", time.Now().Add(time.Hour))
		assert.NoError(mt, err)
	})

	mt.Run("Set Reset Token Unknown User", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(unmatched)

		err := repo.SetResetToken(context.Background(), "999999999999", false, "Ab3dE6gH", time.Now().Add(time.Hour))
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("Consume Reset Token", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(matched)
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(mt, repo.ConsumeResetToken(context.Background(), "asha@example.com", "Ab3dE6gH", now, "newhash"))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		require.Equal(mt, "update", started.CommandName)
		q := started.Command.Lookup("updates", "0", "q").Document()
		assert.Equal(mt, "asha@example.com", q.Lookup("email").StringValue())
		assert.Equal(mt, "Ab3dE6gH", q.Lookup("reset_token").StringValue())
		assert.Equal(mt, now, q.Lookup("reset_token_expiry", "$gt").Time().UTC())

		u := started.Command.Lookup("updates", "0", "u").Document()
		assert.Equal(mt, "newhash", u.Lookup("$set", "password").StringValue())
		unset := u.Lookup("$unset").Document()
		_, err := unset.LookupErr("reset_token")
		assert.NoError(mt, err)
		_, err = unset.LookupErr("reset_token_expiry")
		assert.NoError(mt, err)
	})

	mt.Run("Consume Reset Token Not Matched", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(unmatched)

		err := repo.ConsumeResetToken(context.Background(), "asha@example.com", "Ab3dE6gH", time.Now(), "newhash")
		assert.ErrorIs(mt, err, ErrResetTokenRejected)
		assert.NotErrorIs(mt, err, ErrStoreUnavailable)
	})

	mt.Run("Consume Reset Token Store Failure", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(commandError())

		err := repo.ConsumeResetToken(context.Background(), "asha@example.com", "Ab3dE6gH", time.Now(), "newhash")
		assert.ErrorIs(mt, err, ErrStoreUnavailable)
		assert.NotErrorIs(mt, err, ErrResetTokenRejected)
	})
}

func TestUserRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Success", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})

	mt.Run("Failure", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, zap.NewNop())
		mt.AddMockResponses(commandError())

		assert.ErrorIs(mt, repo.EnsureIndexes(context.Background()), ErrStoreUnavailable)
	})
}
