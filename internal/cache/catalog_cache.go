package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// CatalogCache is a read-through cache in front of the catalog
// repositories. A miss returns (nil, nil); catalog data changes
// rarely, so a short TTL is enough.
type CatalogCache interface {
	GetMovie(ctx context.Context, id int64) (*model.Movie, error)
	SetMovie(ctx context.Context, movie *model.Movie) error
	GetSeries(ctx context.Context, id int64) (*model.Series, error)
	SetSeries(ctx context.Context, series *model.Series) error
	GetEpisode(ctx context.Context, id int64) (*model.Episode, error)
	SetEpisode(ctx context.Context, episode *model.Episode) error
}

type catalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new catalog cache
func NewCatalogCache(client *redis.Client) CatalogCache {
	return &catalogCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *catalogCache) movieKey(id int64) string   { return fmt.Sprintf("catalog:movie:%d", id) }
func (c *catalogCache) seriesKey(id int64) string  { return fmt.Sprintf("catalog:series:%d", id) }
func (c *catalogCache) episodeKey(id int64) string { return fmt.Sprintf("catalog:episode:%d", id) }

func (c *catalogCache) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	var movie model.Movie
	if err := c.get(ctx, c.movieKey(id), &movie); err != nil {
		return nil, err
	} else if movie.ID == 0 {
		return nil, nil
	}
	return &movie, nil
}

func (c *catalogCache) SetMovie(ctx context.Context, movie *model.Movie) error {
	return c.set(ctx, c.movieKey(movie.ID), movie)
}

func (c *catalogCache) GetSeries(ctx context.Context, id int64) (*model.Series, error) {
	var series model.Series
	if err := c.get(ctx, c.seriesKey(id), &series); err != nil {
		return nil, err
	} else if series.ID == 0 {
		return nil, nil
	}
	return &series, nil
}

func (c *catalogCache) SetSeries(ctx context.Context, series *model.Series) error {
	return c.set(ctx, c.seriesKey(series.ID), series)
}

func (c *catalogCache) GetEpisode(ctx context.Context, id int64) (*model.Episode, error) {
	var episode model.Episode
	if err := c.get(ctx, c.episodeKey(id), &episode); err != nil {
		return nil, err
	} else if episode.ID == 0 {
		return nil, nil
	}
	return &episode, nil
}

func (c *catalogCache) SetEpisode(ctx context.Context, episode *model.Episode) error {
	return c.set(ctx, c.episodeKey(episode.ID), episode)
}

func (c *catalogCache) get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (c *catalogCache) set(ctx context.Context, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
