package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTokenNotFound = errors.New("refresh token not found")
)

type UserStore struct {
	users  *mongo.Collection
	tokens *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		users:  db.Collection(usersCollection),
		tokens: db.Collection(refreshTokensCollection),
	}
}

func (s *UserStore) FindUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *UserStore) InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.tokens.InsertOne(ctx, token)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		token.ID = id
	}
	return nil
}

func (s *UserStore) FindActiveRefreshToken(ctx context.Context, hash string) (models.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var token models.RefreshToken
	err := s.tokens.FindOne(ctx, bson.M{"tokenHash": hash, "revoked": false}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RefreshToken{}, ErrTokenNotFound
	}
	return token, err
}

// RevokeRefreshToken marks the token revoked, linking its successor when one
// was issued. It returns ErrTokenNotFound if the token was already revoked.
func (s *UserStore) RevokeRefreshToken(ctx context.Context, hash string, replacedBy *primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{"revoked": true, "revokedAt": time.Now()}
	if replacedBy != nil {
		set["replacedByToken"] = *replacedBy
	}
	res, err := s.tokens.UpdateOne(ctx, bson.M{"tokenHash": hash, "revoked": false}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTokenNotFound
	}
	return nil
}
