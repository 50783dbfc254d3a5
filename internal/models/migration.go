package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MigrationRecord is one ledger entry written after a migration run.
type MigrationRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Collection string             `bson:"collection" json:"collection"`
	From       string             `bson:"from" json:"from"`
	To         string             `bson:"to" json:"to"`
	Policy     string             `bson:"policy" json:"policy"`
	Status     string             `bson:"status" json:"status"`
	Indexes    []IndexOutcome     `bson:"indexes" json:"indexes"`
	Matched    int64              `bson:"matched" json:"matched"`
	Modified   int64              `bson:"modified" json:"modified"`
	Conflicts  int64              `bson:"conflicts" json:"conflicts"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt  time.Time          `bson:"startedAt" json:"startedAt"`
	FinishedAt time.Time          `bson:"finishedAt" json:"finishedAt"`
}

// IndexOutcome records what happened to one index during a run.
type IndexOutcome struct {
	Name    string `bson:"name" json:"name"`
	Outcome string `bson:"outcome" json:"outcome"`
	Error   string `bson:"error,omitempty" json:"error,omitempty"`
}
