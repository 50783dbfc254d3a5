package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Todo belongs to exactly one User through UserID.
type Todo struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Title     string             `bson:"title" json:"title"`
	Completed bool               `bson:"completed" json:"completed"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// TodoPatch is a partial update; nil fields are left untouched.
type TodoPatch struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil
}
