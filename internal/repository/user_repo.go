package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
)

const usersCollection = "users"

type mongoDocument struct {
	Filename    string    `bson:"filename"`
	ContentType string    `bson:"content_type"`
	Size        int64     `bson:"size"`
	Content     string    `bson:"content"`
	UploadedAt  time.Time `bson:"uploaded_at"`
}

type mongoUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Email            string             `bson:"email"`
	NationalID       string             `bson:"id_number"`
	Password         string             `bson:"password"`
	Birthday         string             `bson:"birthday"`
	Gender           string             `bson:"gender"`
	Document         mongoDocument      `bson:"govt_id_document"`
	Role             string             `bson:"role"`
	CreatedAt        time.Time          `bson:"created_at"`
	ResetToken       string             `bson:"reset_token,omitempty"`
	ResetTokenExpiry *time.Time         `bson:"reset_token_expiry,omitempty"`
}

func (m *mongoUser) toEntity() *entity.User {
	return &entity.User{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		NationalID: m.NationalID,
		Password:   m.Password,
		Birthday:   m.Birthday,
		Gender:     m.Gender,
		Document: entity.Document{
			Filename:    m.Document.Filename,
			ContentType: m.Document.ContentType,
			Size:        m.Document.Size,
			Content:     m.Document.Content,
			UploadedAt:  m.Document.UploadedAt,
		},
		Role:             entity.Role(m.Role),
		CreatedAt:        m.CreatedAt,
		ResetToken:       m.ResetToken,
		ResetTokenExpiry: m.ResetTokenExpiry,
	}
}

func fromEntity(e *entity.User) *mongoUser {
	return &mongoUser{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		NationalID: e.NationalID,
		Password:   e.Password,
		Birthday:   e.Birthday,
		Gender:     e.Gender,
		Document: mongoDocument{
			Filename:    e.Document.Filename,
			ContentType: e.Document.ContentType,
			Size:        e.Document.Size,
			Content:     e.Document.Content,
			UploadedAt:  e.Document.UploadedAt,
		},
		Role:             string(e.Role),
		CreatedAt:        e.CreatedAt,
		ResetToken:       e.ResetToken,
		ResetTokenExpiry: e.ResetTokenExpiry,
	}
}

// UserRepository is the credential store backed by the users collection.
type UserRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewUserRepository(db *mongo.Database, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

func (r *UserRepository) collection() *mongo.Collection {
	return r.db.Collection(usersCollection)
}

// EnsureIndexes creates the unique indexes that uniqueness under concurrent
// signups relies on. It is idempotent.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.collection().Indexes().CreateMany(ctx, indexes); err != nil {
		r.logger.Error("Failed to create indexes for users collection", zap.Error(err))
		return storeErr(err)
	}
	r.logger.Info("Successfully ensured indexes for users collection")
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *UserRepository) NationalIDExists(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, bson.M{"id_number": nationalID})
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("Database error checking user existence", zap.Error(err))
		return false, storeErr(err)
	}
	return count > 0, nil
}

// CreateUser inserts a verified user. The password must already be hashed.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) error {
	r.logger.Info("Attempting to create user in repository", zap.String("email", user.Email))

	dbUser := fromEntity(user)
	if dbUser.ID.IsZero() {
		dbUser.ID = primitive.NewObjectID()
	}
	if dbUser.CreatedAt.IsZero() {
		dbUser.CreatedAt = time.Now().UTC()
	}
	if dbUser.Role == "" {
		dbUser.Role = string(entity.RoleUser)
	}
	dbUser.ResetToken = ""
	dbUser.ResetTokenExpiry = nil

	if _, err := r.collection().InsertOne(ctx, dbUser); err != nil {
		if dupErr := duplicateKeyError(err); dupErr != nil {
			r.logger.Warn("Duplicate key during user creation", zap.String("email", user.Email), zap.Error(err))
			return dupErr
		}
		r.logger.Error("Database error during user creation", zap.String("email", user.Email), zap.Error(err))
		return storeErr(err)
	}

	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.Role = entity.Role(dbUser.Role)
	r.logger.Info("User created successfully in repository", zap.String("userID", dbUser.ID.Hex()))
	return nil
}

// FindByIdentifier looks a user up by email when isEmail is set, by national ID otherwise.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string, isEmail bool) (*entity.User, error) {
	filter := identifierFilter(identifier, isEmail)
	r.logger.Debug("Attempting to find user", zap.Bool("byEmail", isEmail))

	var dbUser mongoUser
	if err := r.collection().FindOne(ctx, filter).Decode(&dbUser); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found", zap.Bool("byEmail", isEmail))
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error finding user", zap.Bool("byEmail", isEmail), zap.Error(err))
		return nil, storeErr(err)
	}
	return dbUser.toEntity(), nil
}

// SetResetToken overwrites any earlier token, so a user has at most one active token.
func (r *UserRepository) SetResetToken(ctx context.Context, identifier string, isEmail bool, token string, expiry time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"reset_token":        token,
			"reset_token_expiry": expiry.UTC(),
		},
	}
	return r.updateOne(ctx, identifierFilter(identifier, isEmail), update, "set reset token")
}

// ConsumeResetToken writes the new password hash and clears the reset token
// in one conditional update. It only matches while token is the account's
// stored token and has not expired, so a token succeeds at most once.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, email, token string, now time.Time, passwordHash string) error {
	filter := bson.M{
		"email":              email,
		"reset_token":        token,
		"reset_token_expiry": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set": bson.M{"password": passwordHash},
		"$unset": bson.M{
			"reset_token":        "",
			"reset_token_expiry": "",
		},
	}
	if err := r.updateOne(ctx, filter, update, "consume reset token"); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrResetTokenRejected
		}
		return err
	}
	return nil
}

func (r *UserRepository) updateOne(ctx context.Context, filter, update bson.M, op string) error {
	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Database error during update", zap.String("op", op), zap.Error(err))
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("User not found for update", zap.String("op", op))
		return ErrUserNotFound
	}
	r.logger.Info("User updated", zap.String("op", op))
	return nil
}

func identifierFilter(identifier string, isEmail bool) bson.M {
	if isEmail {
		return bson.M{"email": identifier}
	}
	return bson.M{"id_number": identifier}
}

func duplicateKeyError(err error) error {
	var writeException mongo.WriteException
	if errors.As(err, &writeException) {
		for _, writeError := range writeException.WriteErrors {
			if writeError.Code != 11000 {
				continue
			}
			switch {
			case strings.Contains(writeError.Message, "email_1"):
				return ErrDuplicateEmail
			case strings.Contains(writeError.Message, "id_number_1"):
				return ErrDuplicateNationalID
			}
		}
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
