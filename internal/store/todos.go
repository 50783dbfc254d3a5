package store

import (
	"context"
	"time"

	"github.com/eleven-am/docshift/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) todos() string { return TodosCollection }

// CreateTodo inserts todo, filling in ID and CreatedAt when unset. The owning
// user is not checked here.
func (s *Store) CreateTodo(ctx context.Context, todo *models.Todo) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}

	if _, err := s.Collection(s.todos()).InsertOne(ctx, todo); err != nil {
		return parseMongoError(err, "create todo", s.todos())
	}
	return nil
}

// ListTodosByUser returns the user's todos, newest first.
func (s *Store) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	oid, err := objectID(userID, s.todos())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.Collection(s.todos()).Find(ctx, bson.D{{Key: "userId", Value: oid}}, opts)
	if err != nil {
		return nil, parseMongoError(err, "list todos", s.todos())
	}
	defer cursor.Close(ctx)

	todos := []models.Todo{}
	if err := cursor.All(ctx, &todos); err != nil {
		return nil, parseMongoError(err, "list todos", s.todos())
	}
	return todos, nil
}

func (s *Store) FindTodoByID(ctx context.Context, id string) (*models.Todo, error) {
	oid, err := objectID(id, s.todos())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var todo models.Todo
	if err := s.Collection(s.todos()).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&todo); err != nil {
		return nil, parseMongoError(err, "find todo", s.todos())
	}
	return &todo, nil
}

// UpdateTodo applies patch and returns the updated document.
func (s *Store) UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	oid, err := objectID(id, s.todos())
	if err != nil {
		return nil, err
	}

	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *patch.Completed})
	}
	if len(set) == 0 {
		return s.FindTodoByID(ctx, id)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var todo models.Todo
	err = s.Collection(s.todos()).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}}, opts).
		Decode(&todo)
	if err != nil {
		return nil, parseMongoError(err, "update todo", s.todos())
	}
	return &todo, nil
}

// DeleteTodo removes the todo and returns it.
func (s *Store) DeleteTodo(ctx context.Context, id string) (*models.Todo, error) {
	oid, err := objectID(id, s.todos())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var todo models.Todo
	if err := s.Collection(s.todos()).FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&todo); err != nil {
		return nil, parseMongoError(err, "delete todo", s.todos())
	}
	return &todo, nil
}
