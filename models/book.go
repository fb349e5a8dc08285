package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Caption   string             `bson:"caption" json:"caption"`
	Rating    float64            `bson:"rating" json:"rating"`
	Image     string             `bson:"image" json:"image"`   // public URL of the uploaded cover
	ImageKey  string             `bson:"imageKey" json:"-"`    // object key in S3, for deletion
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
