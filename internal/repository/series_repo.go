package repository

import (
	"context"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SeriesRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Series, error)
	List(ctx context.Context) ([]model.Series, error)
	GetEpisodeByID(ctx context.Context, id int64) (*model.Episode, error)
	EpisodesBySeries(ctx context.Context, seriesID int64) ([]model.Episode, error)
}

type seriesRepo struct {
	series   *mongo.Collection
	episodes *mongo.Collection
}

func NewSeriesRepo(db *mongo.Database) SeriesRepo {
	return &seriesRepo{
		series:   db.Collection("series"),
		episodes: db.Collection("episodes"),
	}
}

func (r *seriesRepo) GetByID(ctx context.Context, id int64) (*model.Series, error) {
	var series model.Series
	err := r.series.FindOne(ctx, bson.M{"_id": id}).Decode(&series)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // series not found
		}
		return nil, err
	}
	return &series, nil
}

func (r *seriesRepo) List(ctx context.Context) ([]model.Series, error) {
	cursor, err := r.series.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}}).SetLimit(100))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []model.Series
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *seriesRepo) GetEpisodeByID(ctx context.Context, id int64) (*model.Episode, error) {
	var episode model.Episode
	err := r.episodes.FindOne(ctx, bson.M{"_id": id}).Decode(&episode)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // episode not found
		}
		return nil, err
	}
	return &episode, nil
}

func (r *seriesRepo) EpisodesBySeries(ctx context.Context, seriesID int64) ([]model.Episode, error) {
	cursor, err := r.episodes.Find(ctx, bson.M{"seriesId": seriesID},
		options.Find().SetSort(bson.D{
			{Key: "seasonNumber", Value: 1},
			{Key: "episodeNumber", Value: 1},
		}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []model.Episode
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
