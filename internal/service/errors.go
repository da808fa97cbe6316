package service

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrContentNotFound     = errors.New("content not found")
	ErrNoEpisodesAvailable = errors.New("series has no episodes")
	ErrNotASeriesRoom      = errors.New("not a series room")
	ErrEpisodeNotFound     = errors.New("episode not found")
	ErrEpisodeNotInSeries  = errors.New("episode does not belong to this series")
	ErrUnauthorized        = errors.New("only the host can do that")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrCatalogUnavailable  = errors.New("catalog unavailable")
)
