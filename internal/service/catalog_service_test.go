package service

import (
	"context"
	"testing"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMovieRepo counts lookups so cache hits are observable
type fakeMovieRepo struct {
	calls int
}

func (r *fakeMovieRepo) GetByID(ctx context.Context, id int64) (*model.Movie, error) {
	r.calls++
	if id == 1 {
		return &model.Movie{ID: 1, Title: "The Silent Harbor"}, nil
	}
	return nil, nil
}

func (r *fakeMovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	return []model.Movie{{ID: 1, Title: "The Silent Harbor"}}, nil
}

type fakeSeriesRepo struct{}

func (r *fakeSeriesRepo) GetByID(ctx context.Context, id int64) (*model.Series, error) {
	return nil, nil
}

func (r *fakeSeriesRepo) List(ctx context.Context) ([]model.Series, error) {
	return nil, nil
}

func (r *fakeSeriesRepo) GetEpisodeByID(ctx context.Context, id int64) (*model.Episode, error) {
	return nil, nil
}

func (r *fakeSeriesRepo) EpisodesBySeries(ctx context.Context, seriesID int64) ([]model.Episode, error) {
	// Deliberately unsorted.
	return []model.Episode{
		{ID: 103, SeriesID: seriesID, SeasonNumber: 2, EpisodeNumber: 1},
		{ID: 101, SeriesID: seriesID, SeasonNumber: 1, EpisodeNumber: 1},
		{ID: 102, SeriesID: seriesID, SeasonNumber: 1, EpisodeNumber: 2},
	}, nil
}

// fakeCatalogCache is an in-memory stand-in for the Redis cache
type fakeCatalogCache struct {
	movies   map[int64]*model.Movie
	series   map[int64]*model.Series
	episodes map[int64]*model.Episode
}

func newFakeCatalogCache() *fakeCatalogCache {
	return &fakeCatalogCache{
		movies:   make(map[int64]*model.Movie),
		series:   make(map[int64]*model.Series),
		episodes: make(map[int64]*model.Episode),
	}
}

func (c *fakeCatalogCache) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	return c.movies[id], nil
}

func (c *fakeCatalogCache) SetMovie(ctx context.Context, movie *model.Movie) error {
	c.movies[movie.ID] = movie
	return nil
}

func (c *fakeCatalogCache) GetSeries(ctx context.Context, id int64) (*model.Series, error) {
	return c.series[id], nil
}

func (c *fakeCatalogCache) SetSeries(ctx context.Context, series *model.Series) error {
	c.series[series.ID] = series
	return nil
}

func (c *fakeCatalogCache) GetEpisode(ctx context.Context, id int64) (*model.Episode, error) {
	return c.episodes[id], nil
}

func (c *fakeCatalogCache) SetEpisode(ctx context.Context, episode *model.Episode) error {
	c.episodes[episode.ID] = episode
	return nil
}

func TestCatalogService_MovieReadThrough(t *testing.T) {
	repo := &fakeMovieRepo{}
	svc := NewCatalogService(repo, &fakeSeriesRepo{}, newFakeCatalogCache(), "http://stream/api")
	ctx := context.Background()

	movie, err := svc.MovieByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, "http://stream/api/stream/movies/1", movie.StreamURL)

	// Second lookup is served from the cache.
	movie, err = svc.MovieByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, "http://stream/api/stream/movies/1", movie.StreamURL)
}

func TestCatalogService_MovieNotFound(t *testing.T) {
	svc := NewCatalogService(&fakeMovieRepo{}, &fakeSeriesRepo{}, newFakeCatalogCache(), "http://stream/api")

	movie, err := svc.MovieByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, movie)
}

func TestCatalogService_EpisodesSortedWithStreamURLs(t *testing.T) {
	svc := NewCatalogService(&fakeMovieRepo{}, &fakeSeriesRepo{}, newFakeCatalogCache(), "http://stream/api")

	episodes, err := svc.SeriesEpisodes(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, episodes, 3)
	assert.Equal(t, int64(101), episodes[0].ID)
	assert.Equal(t, int64(102), episodes[1].ID)
	assert.Equal(t, int64(103), episodes[2].ID)
	assert.Equal(t, "http://stream/api/stream/episodes/101", episodes[0].StreamURL)
}
