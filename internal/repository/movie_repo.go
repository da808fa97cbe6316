package repository

import (
	"context"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MovieRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Movie, error)
	List(ctx context.Context) ([]model.Movie, error)
}

type movieRepo struct {
	collection *mongo.Collection
}

func NewMovieRepo(db *mongo.Database) MovieRepo {
	return &movieRepo{
		collection: db.Collection("movies"),
	}
}

func (r *movieRepo) GetByID(ctx context.Context, id int64) (*model.Movie, error) {
	var movie model.Movie
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&movie)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // movie not found
		}
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepo) List(ctx context.Context) ([]model.Movie, error) {
	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}}).SetLimit(100))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var movies []model.Movie
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}
