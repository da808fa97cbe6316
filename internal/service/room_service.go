package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/google/uuid"
)

// Outbound broadcast message types produced by the room service
const (
	MsgSync           = "sync"
	MsgParticipants   = "participants"
	MsgUserLeft       = "userLeft"
	MsgEpisodeChanged = "episodeChanged"
)

// SyncEvent is the room-wide notification for an applied control action
type SyncEvent struct {
	Action      ActionKind `json:"action"`
	CurrentTime float64    `json:"currentTime"`
	UserID      string     `json:"userId"`
	Timestamp   int64      `json:"timestamp"`
}

// EpisodeChange is the room-wide notification for a content switch
type EpisodeChange struct {
	EpisodeID int64          `json:"episodeId"`
	StreamURL string         `json:"streamUrl"`
	Episode   *model.Episode `json:"episode"`
	UserID    string         `json:"userId"`
	Timestamp int64          `json:"timestamp"`
}

// RoomService owns every live room: lifecycle, the participant
// directory, the authoritative playback state, and episode
// navigation. It is the single source of truth for "does this room
// exist". All state is in-memory; rooms do not survive a restart.
type RoomService struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room

	// reverse index viewer -> room; rooms never point back at it
	idxMu     sync.Mutex
	userRooms map[string]string

	catalog       Catalog
	debouncer     *Debouncer
	broadcaster   Broadcaster
	lookupTimeout time.Duration
}

// NewRoomService creates a new room service
func NewRoomService(catalog Catalog, debouncer *Debouncer) *RoomService {
	return &RoomService{
		rooms:         make(map[string]*model.Room),
		userRooms:     make(map[string]string),
		catalog:       catalog,
		debouncer:     debouncer,
		lookupTimeout: 5 * time.Second,
	}
}

// SetBroadcaster sets the fan-out sink for room-wide events
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateMovieRoom creates a room around a single movie. The catalog
// lookup happens before anything is registered, so a failed lookup
// leaves no trace.
func (s *RoomService) CreateMovieRoom(ctx context.Context, name string, movieID int64, hostID string) (*model.Room, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	movie, err := s.catalog.MovieByID(lookupCtx, movieID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if movie == nil {
		return nil, fmt.Errorf("%w: movie %d", ErrContentNotFound, movieID)
	}

	room := s.register(&model.Room{
		Name:    name,
		Type:    model.RoomTypeMovie,
		MovieID: movieID,
		HostID:  hostID,
	})
	log.Printf("Created movie room %s for movie %q with host %s", room.ID, movie.Title, hostID)
	return room, nil
}

// CreateSeriesRoom creates a room around a series, starting at its
// first episode in (season, episode) order.
func (s *RoomService) CreateSeriesRoom(ctx context.Context, name string, seriesID int64, hostID string) (*model.Room, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	series, err := s.catalog.SeriesByID(lookupCtx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if series == nil {
		return nil, fmt.Errorf("%w: series %d", ErrContentNotFound, seriesID)
	}

	episodes, err := s.catalog.SeriesEpisodes(lookupCtx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if len(episodes) == 0 {
		return nil, fmt.Errorf("%w: series %d", ErrNoEpisodesAvailable, seriesID)
	}

	first := episodes[0]
	room := s.register(&model.Room{
		Name:             name,
		Type:             model.RoomTypeSeries,
		SeriesID:         seriesID,
		CurrentEpisodeID: first.ID,
		HostID:           hostID,
	})
	log.Printf("Created series room %s for series %q starting with S%dE%d, host %s",
		room.ID, series.Title, first.SeasonNumber, first.EpisodeNumber, hostID)
	return room, nil
}

// register assigns a collision-checked id and stores the room
func (s *RoomService) register(room *model.Room) *model.Room {
	now := time.Now()
	room.CreatedAt = now
	room.LastActivityAt = now
	room.Participants = make(map[string]*model.Participant)

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := uuid.New().String()[:8]
		if _, exists := s.rooms[id]; !exists {
			room.ID = id
			s.rooms[id] = room
			return room
		}
	}
}

// Get returns the live room, or false if absent
func (s *RoomService) Get(roomID string) (*model.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// List returns a snapshot of all rooms at call time
func (s *RoomService) List() []model.RoomSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RoomSnapshot, 0, len(s.rooms))
	for _, room := range s.rooms {
		room.Mu.Lock()
		out = append(out, snapshotLocked(room))
		room.Mu.Unlock()
	}
	return out
}

// Delete removes a room unconditionally. No-op if absent.
func (s *RoomService) Delete(roomID string) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok {
		delete(s.rooms, roomID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	room.Mu.Lock()
	s.dropIndexEntries(room)
	room.Mu.Unlock()

	s.debouncer.DropRoom(roomID)
	if s.broadcaster != nil {
		s.broadcaster.CloseRoom(roomID)
	}
	log.Printf("Deleted room %s", roomID)
}

// withRoom runs fn with the room's lock held. The registry read lock
// is kept for the duration so the room cannot be deleted under fn;
// actions on different rooms still run in parallel.
func (s *RoomService) withRoom(roomID string, fn func(room *model.Room)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	fn(room)
	return nil
}

// Join adds a participant to the room, idempotently by id
func (s *RoomService) Join(roomID, userID, displayName string) error {
	err := s.withRoom(roomID, func(room *model.Room) {
		if _, exists := room.Participants[userID]; !exists {
			now := time.Now()
			room.Participants[userID] = &model.Participant{
				ID:          userID,
				DisplayName: displayName,
				CurrentTime: room.CurrentTime,
				JoinedAt:    now,
				LastSeenAt:  now,
				Connected:   true,
			}
		}
		room.Touch()
		s.broadcastParticipantsLocked(room)
	})
	if err != nil {
		return err
	}

	s.idxMu.Lock()
	s.userRooms[userID] = roomID
	s.idxMu.Unlock()

	log.Printf("User %s joined room %s", userID, roomID)
	return nil
}

// Leave removes a participant. When the last participant leaves the
// room is deleted immediately; the periodic reaper is only a backstop.
func (s *RoomService) Leave(roomID, userID string) (bool, error) {
	var removed, empty bool
	err := s.withRoom(roomID, func(room *model.Room) {
		if _, ok := room.Participants[userID]; ok {
			delete(room.Participants, userID)
			removed = true
		}
		room.Touch()
		empty = len(room.Participants) == 0
		if removed && !empty && s.broadcaster != nil {
			s.broadcaster.BroadcastToRoom(roomID, MsgUserLeft, map[string]string{"userId": userID})
			s.broadcastParticipantsLocked(room)
		}
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.idxMu.Lock()
		if s.userRooms[userID] == roomID {
			delete(s.userRooms, userID)
		}
		s.idxMu.Unlock()
		log.Printf("User %s left room %s", userID, roomID)
	}
	if empty {
		s.deleteIfEmpty(roomID)
	}
	return removed, nil
}

// deleteIfEmpty deletes the room only if it still has no participants
func (s *RoomService) deleteIfEmpty(roomID string) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok {
		room.Mu.Lock()
		if len(room.Participants) == 0 {
			delete(s.rooms, roomID)
		} else {
			ok = false
		}
		room.Mu.Unlock()
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.debouncer.DropRoom(roomID)
	if s.broadcaster != nil {
		s.broadcaster.CloseRoom(roomID)
	}
	log.Printf("Deleted empty room %s", roomID)
}

// HandleControl runs the full control path for play/pause/seek:
// debounce check, authoritative state mutation, and broadcast, all
// serialized per room. A suppressed action returns (nil, nil): no
// state change, no notification.
func (s *RoomService) HandleControl(roomID string, kind ActionKind, currentTime float64, userID string) (*SyncEvent, error) {
	now := time.Now()
	var ev *SyncEvent
	err := s.withRoom(roomID, func(room *model.Room) {
		if !s.debouncer.AllowRate(roomID, kind, now) {
			return
		}
		if !s.debouncer.Allow(roomID, kind, currentTime, userID, now) {
			return
		}
		s.debouncer.MarkApplied(roomID, kind, now)

		room.CurrentTime = currentTime
		switch kind {
		case ActionPlay:
			room.Playing = true
		case ActionPause:
			room.Playing = false
		}
		room.LastActionUserID = userID
		room.Touch()

		// keep presence data consistent with the new authoritative position
		for _, p := range room.Participants {
			p.CurrentTime = currentTime
			p.LastSeenAt = now
		}

		ev = &SyncEvent{
			Action:      kind,
			CurrentTime: currentTime,
			UserID:      userID,
			Timestamp:   now.UnixMilli(),
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastToRoomExcept(roomID, userID, MsgSync, ev)
			s.broadcastParticipantsLocked(room)
		}
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// UpdateParticipantTime records a viewer's self-reported position.
// The room's authoritative position is untouched.
func (s *RoomService) UpdateParticipantTime(roomID, userID string, currentTime float64) error {
	return s.withRoom(roomID, func(room *model.Room) {
		if p, ok := room.Participants[userID]; ok {
			p.CurrentTime = currentTime
			p.LastSeenAt = time.Now()
		}
		room.Touch()
		s.broadcastParticipantsLocked(room)
	})
}

// Heartbeat marks the sender connected and refreshes lastSeenAt
func (s *RoomService) Heartbeat(roomID, userID string) error {
	return s.withRoom(roomID, func(room *model.Room) {
		if p, ok := room.Participants[userID]; ok {
			p.Connected = true
			p.LastSeenAt = time.Now()
		}
	})
}

// Snapshot returns the room's externally visible state
func (s *RoomService) Snapshot(roomID string) (*model.RoomSnapshot, error) {
	var snap model.RoomSnapshot
	err := s.withRoom(roomID, func(room *model.Room) {
		snap = snapshotLocked(room)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Participants returns the current presence list
func (s *RoomService) Participants(roomID string) ([]model.ParticipantInfo, error) {
	var infos []model.ParticipantInfo
	err := s.withRoom(roomID, func(room *model.Room) {
		infos = participantInfosLocked(room)
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// IsHost reports whether the user has navigation authority in the room
func (s *RoomService) IsHost(roomID, userID string) bool {
	room, ok := s.Get(roomID)
	return ok && room.HostID == userID
}

// UserRoom answers "which room is this user in" via the reverse index
func (s *RoomService) UserRoom(userID string) (string, bool) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	roomID, ok := s.userRooms[userID]
	return roomID, ok
}

// Stats summarizes registry occupancy
func (s *RoomService) Stats() model.RoomStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.RoomStats{TotalRooms: len(s.rooms)}
	for _, room := range s.rooms {
		room.Mu.Lock()
		n := len(room.Participants)
		room.Mu.Unlock()
		if n > 0 {
			stats.ActiveRooms++
		} else {
			stats.EmptyRooms++
		}
		stats.TotalParticipants += n
	}
	return stats
}

// SwitchEpisode changes a series room's current episode. Host only.
// The catalog lookup runs before any mutation, so a failed or slow
// lookup leaves the room untouched.
func (s *RoomService) SwitchEpisode(ctx context.Context, roomID string, episodeID int64, requesterID string) (*model.Episode, error) {
	seriesID, err := s.guardedSeriesID(roomID, requesterID)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	episode, err := s.catalog.EpisodeByID(lookupCtx, episodeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if episode == nil {
		return nil, fmt.Errorf("%w: episode %d", ErrEpisodeNotFound, episodeID)
	}
	if episode.SeriesID != seriesID {
		return nil, fmt.Errorf("%w: episode %d", ErrEpisodeNotInSeries, episodeID)
	}

	now := time.Now()
	err = s.withRoom(roomID, func(room *model.Room) {
		room.CurrentEpisodeID = episode.ID
		room.CurrentTime = 0
		room.Playing = false
		room.LastActionUserID = requesterID
		room.Touch()
		for _, p := range room.Participants {
			p.CurrentTime = 0
			p.LastSeenAt = now
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastToRoomExcept(roomID, requesterID, MsgEpisodeChanged, &EpisodeChange{
				EpisodeID: episode.ID,
				StreamURL: episode.StreamURL,
				Episode:   episode,
				UserID:    requesterID,
				Timestamp: now.UnixMilli(),
			})
			s.broadcastParticipantsLocked(room)
		}
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Switched to episode S%dE%d in room %s by user %s",
		episode.SeasonNumber, episode.EpisodeNumber, roomID, requesterID)
	return episode, nil
}

// NextEpisode advances to the next episode in (season, episode)
// order, crossing season boundaries. No wraparound.
func (s *RoomService) NextEpisode(ctx context.Context, roomID, requesterID string) (*model.Episode, error) {
	return s.switchAdjacent(ctx, roomID, requesterID, 1)
}

// PreviousEpisode is the symmetric counterpart of NextEpisode
func (s *RoomService) PreviousEpisode(ctx context.Context, roomID, requesterID string) (*model.Episode, error) {
	return s.switchAdjacent(ctx, roomID, requesterID, -1)
}

func (s *RoomService) switchAdjacent(ctx context.Context, roomID, requesterID string, step int) (*model.Episode, error) {
	seriesID, err := s.guardedSeriesID(roomID, requesterID)
	if err != nil {
		return nil, err
	}

	room, ok := s.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.Mu.Lock()
	currentID := room.CurrentEpisodeID
	room.Mu.Unlock()

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	episodes, err := s.catalog.SeriesEpisodes(lookupCtx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	idx := -1
	for i := range episodes {
		if episodes[i].ID == currentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: current episode %d", ErrEpisodeNotFound, currentID)
	}

	target := idx + step
	if target < 0 || target >= len(episodes) {
		return nil, fmt.Errorf("%w: no adjacent episode", ErrEpisodeNotFound)
	}

	return s.SwitchEpisode(ctx, roomID, episodes[target].ID, requesterID)
}

// AvailableEpisodes lists the room's series episodes in playback order
func (s *RoomService) AvailableEpisodes(ctx context.Context, roomID string) ([]model.Episode, error) {
	room, ok := s.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Type != model.RoomTypeSeries {
		return nil, ErrNotASeriesRoom
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	episodes, err := s.catalog.SeriesEpisodes(lookupCtx, room.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return episodes, nil
}

// StreamURL resolves the room's current content stream reference
func (s *RoomService) StreamURL(roomID string) (string, error) {
	room, ok := s.Get(roomID)
	if !ok {
		return "", ErrRoomNotFound
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Type == model.RoomTypeSeries {
		return s.catalog.EpisodeStreamURL(room.CurrentEpisodeID), nil
	}
	return s.catalog.MovieStreamURL(room.MovieID), nil
}

// ReapIdle deletes rooms that are empty and inactive for longer than
// idleAfter. Each room is handled in isolation so one bad sweep does
// not abort the rest. Returns the number of rooms removed.
func (s *RoomService) ReapIdle(now time.Time, idleAfter time.Duration) int {
	s.mu.RLock()
	candidates := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		candidates = append(candidates, id)
	}
	s.mu.RUnlock()

	removed := 0
	for _, roomID := range candidates {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Reaper: cleanup of room %s panicked: %v", roomID, r)
				}
			}()
			if s.reapRoom(roomID, now, idleAfter) {
				removed++
			}
		}()
	}
	return removed
}

func (s *RoomService) reapRoom(roomID string, now time.Time, idleAfter time.Duration) bool {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok {
		room.Mu.Lock()
		if len(room.Participants) == 0 && now.Sub(room.LastActivityAt) > idleAfter {
			delete(s.rooms, roomID)
		} else {
			ok = false
		}
		room.Mu.Unlock()
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.debouncer.DropRoom(roomID)
	if s.broadcaster != nil {
		s.broadcaster.CloseRoom(roomID)
	}
	log.Printf("Reaper: removed idle room %s", roomID)
	return true
}

// guardedSeriesID runs the shared episode-navigation guards and
// returns the room's series id
func (s *RoomService) guardedSeriesID(roomID, requesterID string) (int64, error) {
	room, ok := s.Get(roomID)
	if !ok {
		return 0, ErrRoomNotFound
	}
	if room.Type != model.RoomTypeSeries {
		return 0, ErrNotASeriesRoom
	}
	if room.HostID != requesterID {
		return 0, ErrUnauthorized
	}
	return room.SeriesID, nil
}

// dropIndexEntries removes reverse-index entries for every
// participant of the room. Callers hold room.Mu.
func (s *RoomService) dropIndexEntries(room *model.Room) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	for userID := range room.Participants {
		if s.userRooms[userID] == room.ID {
			delete(s.userRooms, userID)
		}
	}
}

func (s *RoomService) broadcastParticipantsLocked(room *model.Room) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(room.ID, MsgParticipants, participantInfosLocked(room))
}

func snapshotLocked(room *model.Room) model.RoomSnapshot {
	return model.RoomSnapshot{
		ID:               room.ID,
		Name:             room.Name,
		Type:             room.Type,
		MovieID:          room.MovieID,
		SeriesID:         room.SeriesID,
		CurrentEpisodeID: room.CurrentEpisodeID,
		CurrentTime:      room.CurrentTime,
		Playing:          room.Playing,
		HostID:           room.HostID,
		LastActionUserID: room.LastActionUserID,
		ParticipantCount: len(room.Participants),
		CreatedAt:        room.CreatedAt,
	}
}

func participantInfosLocked(room *model.Room) []model.ParticipantInfo {
	infos := make([]model.ParticipantInfo, 0, len(room.Participants))
	for _, p := range room.Participants {
		infos = append(infos, model.ParticipantInfo{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			CurrentTime: p.CurrentTime,
			LastSeenAt:  p.LastSeenAt,
			Connected:   p.Connected,
		})
	}
	return infos
}
