package store

import (
	"context"

	"github.com/eleven-am/docshift/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Store) users() string { return UsersCollection }

// CreateUser inserts user and sets its ID. A second user with the same
// email fails with ErrDuplicateKey when the unique index is present.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	if _, err := s.Collection(s.users()).InsertOne(ctx, user); err != nil {
		return parseMongoError(err, "create user", s.users())
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "find user by email", bson.D{{Key: "email", Value: email}})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id, s.users())
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, "find user", bson.D{{Key: "_id", Value: oid}})
}

func (s *Store) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var user models.User
	if err := s.Collection(s.users()).FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, parseMongoError(err, op, s.users())
	}
	return &user, nil
}

// ListUsers returns every user in natural order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.Collection(s.users()).Find(ctx, bson.D{})
	if err != nil {
		return nil, parseMongoError(err, "list users", s.users())
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, parseMongoError(err, "list users", s.users())
	}
	return users, nil
}

// DeleteUser removes the user and returns it. Todos owned by the user are
// left in place.
func (s *Store) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id, s.users())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var user models.User
	err = s.Collection(s.users()).FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&user)
	if err != nil {
		return nil, parseMongoError(err, "delete user", s.users())
	}
	return &user, nil
}
