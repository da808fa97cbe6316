package model

// Movie is a single film in the external catalog
type Movie struct {
	ID        int64  `json:"id" bson:"_id"`
	Title     string `json:"title" bson:"title"`
	Duration  int64  `json:"duration" bson:"duration"` // seconds
	Format    string `json:"format,omitempty" bson:"format,omitempty"`
	CoverURL  string `json:"coverUrl,omitempty" bson:"coverUrl,omitempty"`
	StreamURL string `json:"streamUrl,omitempty" bson:"-"`
}

// Series groups seasons of episodes
type Series struct {
	ID            int64  `json:"id" bson:"_id"`
	Title         string `json:"title" bson:"title"`
	Description   string `json:"description,omitempty" bson:"description,omitempty"`
	Year          int    `json:"year,omitempty" bson:"year,omitempty"`
	TotalSeasons  int    `json:"totalSeasons" bson:"totalSeasons"`
	TotalEpisodes int    `json:"totalEpisodes" bson:"totalEpisodes"`
}

// Episode belongs to exactly one series; SeasonNumber/EpisodeNumber
// define the playback order within it
type Episode struct {
	ID            int64  `json:"id" bson:"_id"`
	SeriesID      int64  `json:"seriesId" bson:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber" bson:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber" bson:"episodeNumber"`
	Title         string `json:"title,omitempty" bson:"title,omitempty"`
	Duration      int64  `json:"duration" bson:"duration"` // seconds
	StreamURL     string `json:"streamUrl,omitempty" bson:"-"`
}
