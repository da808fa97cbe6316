package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/GhenaBabiuc/sync-watch-service/internal/cache"
	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/GhenaBabiuc/sync-watch-service/internal/repository"
)

// Catalog is the content-lookup collaborator used at room creation and
// episode switches. Lookups return (nil, nil) when the id does not
// resolve; a non-nil error means the catalog itself was unreachable.
type Catalog interface {
	MovieByID(ctx context.Context, id int64) (*model.Movie, error)
	SeriesByID(ctx context.Context, id int64) (*model.Series, error)
	EpisodeByID(ctx context.Context, id int64) (*model.Episode, error)
	// SeriesEpisodes returns all episodes of a series sorted by
	// (seasonNumber, episodeNumber) ascending.
	SeriesEpisodes(ctx context.Context, seriesID int64) ([]model.Episode, error)
	MovieStreamURL(id int64) string
	EpisodeStreamURL(id int64) string
}

// CatalogService serves catalog lookups from Mongo with a Redis
// read-through cache in front
type CatalogService struct {
	movieRepo     repository.MovieRepo
	seriesRepo    repository.SeriesRepo
	catalogCache  cache.CatalogCache
	streamBaseURL string
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	movieRepo repository.MovieRepo,
	seriesRepo repository.SeriesRepo,
	catalogCache cache.CatalogCache,
	streamBaseURL string,
) *CatalogService {
	return &CatalogService{
		movieRepo:     movieRepo,
		seriesRepo:    seriesRepo,
		catalogCache:  catalogCache,
		streamBaseURL: streamBaseURL,
	}
}

func (s *CatalogService) MovieByID(ctx context.Context, id int64) (*model.Movie, error) {
	if movie, err := s.catalogCache.GetMovie(ctx, id); err == nil && movie != nil {
		movie.StreamURL = s.MovieStreamURL(movie.ID)
		return movie, nil
	}

	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if movie == nil {
		return nil, nil
	}

	// Cache write failures are tolerable; the lookup already succeeded.
	_ = s.catalogCache.SetMovie(ctx, movie)
	movie.StreamURL = s.MovieStreamURL(movie.ID)
	return movie, nil
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]model.Movie, error) {
	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	for i := range movies {
		movies[i].StreamURL = s.MovieStreamURL(movies[i].ID)
	}
	return movies, nil
}

func (s *CatalogService) SeriesByID(ctx context.Context, id int64) (*model.Series, error) {
	if series, err := s.catalogCache.GetSeries(ctx, id); err == nil && series != nil {
		return series, nil
	}

	series, err := s.seriesRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	if series == nil {
		return nil, nil
	}

	_ = s.catalogCache.SetSeries(ctx, series)
	return series, nil
}

func (s *CatalogService) ListSeries(ctx context.Context) ([]model.Series, error) {
	series, err := s.seriesRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return series, nil
}

func (s *CatalogService) EpisodeByID(ctx context.Context, id int64) (*model.Episode, error) {
	if episode, err := s.catalogCache.GetEpisode(ctx, id); err == nil && episode != nil {
		episode.StreamURL = s.EpisodeStreamURL(episode.ID)
		return episode, nil
	}

	episode, err := s.seriesRepo.GetEpisodeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	if episode == nil {
		return nil, nil
	}

	_ = s.catalogCache.SetEpisode(ctx, episode)
	episode.StreamURL = s.EpisodeStreamURL(episode.ID)
	return episode, nil
}

func (s *CatalogService) SeriesEpisodes(ctx context.Context, seriesID int64) ([]model.Episode, error) {
	episodes, err := s.seriesRepo.EpisodesBySeries(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	sort.Slice(episodes, func(i, j int) bool {
		if episodes[i].SeasonNumber != episodes[j].SeasonNumber {
			return episodes[i].SeasonNumber < episodes[j].SeasonNumber
		}
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})

	for i := range episodes {
		episodes[i].StreamURL = s.EpisodeStreamURL(episodes[i].ID)
	}
	return episodes, nil
}

func (s *CatalogService) MovieStreamURL(id int64) string {
	return fmt.Sprintf("%s/stream/movies/%d", s.streamBaseURL, id)
}

func (s *CatalogService) EpisodeStreamURL(id int64) string {
	return fmt.Sprintf("%s/stream/episodes/%d", s.streamBaseURL, id)
}
