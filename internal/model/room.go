package model

import (
	"sync"
	"time"
)

type RoomType string

const (
	RoomTypeMovie  RoomType = "movie"
	RoomTypeSeries RoomType = "series"
)

// Room is one live synchronized viewing session. Instances are owned
// exclusively by the room registry; compound reads and writes happen
// with Mu held.
type Room struct {
	ID               string
	Name             string
	Type             RoomType
	MovieID          int64 // movie rooms only
	SeriesID         int64 // series rooms only
	CurrentEpisodeID int64 // series rooms only
	CurrentTime      float64
	Playing          bool
	HostID           string
	LastActionUserID string
	CreatedAt        time.Time
	LastActivityAt   time.Time
	Participants     map[string]*Participant

	Mu sync.Mutex
}

// Touch refreshes the room's activity timestamp. Callers hold Mu.
func (r *Room) Touch() {
	r.LastActivityAt = time.Now()
}

// Participant is one connected viewer inside a room
type Participant struct {
	ID          string
	DisplayName string
	CurrentTime float64 // self-reported, not authoritative
	JoinedAt    time.Time
	LastSeenAt  time.Time
	Connected   bool
}

// RoomSnapshot is the externally visible view of a room at one instant
type RoomSnapshot struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             RoomType  `json:"type"`
	MovieID          int64     `json:"movieId,omitempty"`
	SeriesID         int64     `json:"seriesId,omitempty"`
	CurrentEpisodeID int64     `json:"currentEpisodeId,omitempty"`
	CurrentTime      float64   `json:"currentTime"`
	Playing          bool      `json:"isPlaying"`
	HostID           string    `json:"hostId"`
	LastActionUserID string    `json:"lastActionUserId"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ParticipantInfo is the presence entry published with participant-list updates
type ParticipantInfo struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	CurrentTime float64   `json:"currentTime"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
	Connected   bool      `json:"connected"`
}

// RoomStats summarizes registry occupancy
type RoomStats struct {
	TotalRooms        int `json:"totalRooms"`
	ActiveRooms       int `json:"activeRooms"`
	EmptyRooms        int `json:"emptyRooms"`
	TotalParticipants int `json:"totalParticipants"`
}
