package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "syncwatch"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)

	movies := []model.Movie{
		{ID: 1, Title: "The Silent Harbor", Duration: 7260, Format: "mp4", CoverURL: "/covers/movies/1.jpg"},
		{ID: 2, Title: "Northern Lights", Duration: 6480, Format: "mp4", CoverURL: "/covers/movies/2.jpg"},
		{ID: 3, Title: "Last Train Home", Duration: 8100, Format: "mkv", CoverURL: "/covers/movies/3.jpg"},
	}

	series := []model.Series{
		{ID: 1, Title: "Orbital Decay", Description: "A station crew rides out a slow catastrophe.", Year: 2023, TotalSeasons: 2, TotalEpisodes: 5},
	}

	episodes := []model.Episode{
		{ID: 101, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, Title: "Re-entry", Duration: 2700},
		{ID: 102, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2, Title: "Telemetry", Duration: 2640},
		{ID: 103, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 3, Title: "Drift", Duration: 2820},
		{ID: 104, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 1, Title: "Apogee", Duration: 2760},
		{ID: 105, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 2, Title: "Perigee", Duration: 2700},
	}

	for _, m := range movies {
		upsert(ctx, db.Collection("movies"), m.ID, m)
	}
	for _, s := range series {
		upsert(ctx, db.Collection("series"), s.ID, s)
	}
	for _, e := range episodes {
		upsert(ctx, db.Collection("episodes"), e.ID, e)
	}

	log.Printf("Seeded %d movies, %d series, %d episodes into %s", len(movies), len(series), len(episodes), dbName)
}

func upsert(ctx context.Context, coll *mongo.Collection, id int64, doc interface{}) {
	opts := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		log.Fatalf("Failed to seed %s/%d: %v", coll.Name(), id, err)
	}
}
