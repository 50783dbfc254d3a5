package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. The password is stored as given and is
// never rendered to JSON.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Gender   string             `bson:"gender" json:"gender"`
	DOB      string             `bson:"dob" json:"dob"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
}
