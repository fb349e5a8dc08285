package store

import (
	"context"

	"github.com/bookworm-app/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// BooksPage returns one page of books, newest first.
func (db *DB) BooksPage(ctx context.Context, skip, limit int64) ([]models.Book, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := db.Books().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) CountBooks(ctx context.Context) (int64, error) {
	return db.Books().CountDocuments(ctx, bson.M{})
}

// BooksByUser returns every book owned by userID, newest first.
func (db *DB) BooksByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cur, err := db.Books().Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// BookByID returns nil when no book matches.
func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	return err
}
