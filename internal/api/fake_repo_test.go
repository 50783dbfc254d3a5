package api

import (
	"context"
	"sort"
	"time"

	"github.com/eleven-am/docshift/internal/models"
	"github.com/eleven-am/docshift/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRepo mirrors the store's error contract over in-memory maps.
type memRepo struct {
	users   map[primitive.ObjectID]models.User
	todos   map[primitive.ObjectID]models.Todo
	clock   time.Time
	failAll error
	pingErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users: map[primitive.ObjectID]models.User{},
		todos: map[primitive.ObjectID]models.Todo{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func notFound(op, coll string) error {
	return &store.Error{Op: op, Collection: coll, Kind: store.ErrNotFound}
}

func parseID(id, coll string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, &store.Error{Op: "parse id", Collection: coll, Kind: store.ErrInvalidID, Err: err}
	}
	return oid, nil
}

func (m *memRepo) CreateUser(ctx context.Context, user *models.User) error {
	if m.failAll != nil {
		return m.failAll
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return &store.Error{Op: "create user", Collection: "users", Kind: store.ErrDuplicateKey}
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = *user
	return nil
}

func (m *memRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, notFound("find user", "users")
}

func (m *memRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id, "users")
	if err != nil {
		return nil, err
	}
	u, ok := m.users[oid]
	if !ok {
		return nil, notFound("find user", "users")
	}
	return &u, nil
}

func (m *memRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	users := []models.User{}
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (m *memRepo) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id, "users")
	if err != nil {
		return nil, err
	}
	u, ok := m.users[oid]
	if !ok {
		return nil, notFound("delete user", "users")
	}
	delete(m.users, oid)
	return &u, nil
}

func (m *memRepo) CreateTodo(ctx context.Context, todo *models.Todo) error {
	if m.failAll != nil {
		return m.failAll
	}
	m.clock = m.clock.Add(time.Minute)
	todo.ID = primitive.NewObjectID()
	todo.CreatedAt = m.clock
	m.todos[todo.ID] = *todo
	return nil
}

func (m *memRepo) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	oid, err := parseID(userID, "todos")
	if err != nil {
		return nil, err
	}
	todos := []models.Todo{}
	for _, t := range m.todos {
		if t.UserID == oid {
			todos = append(todos, t)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].CreatedAt.After(todos[j].CreatedAt) })
	return todos, nil
}

func (m *memRepo) FindTodoByID(ctx context.Context, id string) (*models.Todo, error) {
	oid, err := parseID(id, "todos")
	if err != nil {
		return nil, err
	}
	t, ok := m.todos[oid]
	if !ok {
		return nil, notFound("find todo", "todos")
	}
	return &t, nil
}

func (m *memRepo) UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	oid, err := parseID(id, "todos")
	if err != nil {
		return nil, err
	}
	t, ok := m.todos[oid]
	if !ok {
		return nil, notFound("update todo", "todos")
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	m.todos[oid] = t
	return &t, nil
}

func (m *memRepo) DeleteTodo(ctx context.Context, id string) (*models.Todo, error) {
	oid, err := parseID(id, "todos")
	if err != nil {
		return nil, err
	}
	t, ok := m.todos[oid]
	if !ok {
		return nil, notFound("delete todo", "todos")
	}
	delete(m.todos, oid)
	return &t, nil
}

func (m *memRepo) Ping(ctx context.Context) error {
	return m.pingErr
}
