package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves a fixed movie and a two-season series
type fakeCatalog struct {
	failing bool
}

var fakeEpisodes = []model.Episode{
	{ID: 101, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, Title: "Pilot"},
	{ID: 102, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2, Title: "Fallout"},
	{ID: 103, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 1, Title: "Return"},
}

func (f *fakeCatalog) MovieByID(ctx context.Context, id int64) (*model.Movie, error) {
	if f.failing {
		return nil, errors.New("mongo down")
	}
	if id == 1 {
		return &model.Movie{ID: 1, Title: "The Silent Harbor"}, nil
	}
	return nil, nil
}

func (f *fakeCatalog) SeriesByID(ctx context.Context, id int64) (*model.Series, error) {
	if f.failing {
		return nil, errors.New("mongo down")
	}
	switch id {
	case 1:
		return &model.Series{ID: 1, Title: "Orbital Decay"}, nil
	case 2:
		return &model.Series{ID: 2, Title: "Empty Show"}, nil
	}
	return nil, nil
}

func (f *fakeCatalog) EpisodeByID(ctx context.Context, id int64) (*model.Episode, error) {
	if f.failing {
		return nil, errors.New("mongo down")
	}
	for i := range fakeEpisodes {
		if fakeEpisodes[i].ID == id {
			ep := fakeEpisodes[i]
			return &ep, nil
		}
	}
	if id == 999 {
		// Belongs to another series.
		return &model.Episode{ID: 999, SeriesID: 7, SeasonNumber: 1, EpisodeNumber: 1}, nil
	}
	return nil, nil
}

func (f *fakeCatalog) SeriesEpisodes(ctx context.Context, seriesID int64) ([]model.Episode, error) {
	if f.failing {
		return nil, errors.New("mongo down")
	}
	if seriesID != 1 {
		return nil, nil
	}
	out := make([]model.Episode, len(fakeEpisodes))
	copy(out, fakeEpisodes)
	return out, nil
}

func (f *fakeCatalog) MovieStreamURL(id int64) string   { return "http://stream/movies/1" }
func (f *fakeCatalog) EpisodeStreamURL(id int64) string { return "http://stream/episodes/x" }

// fakeBroadcaster records fan-out calls
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
	closed []string
}

type broadcastEvent struct {
	roomID  string
	except  string
	msgType string
	payload interface{}
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{roomID: roomID, msgType: msgType, payload: payload})
}

func (b *fakeBroadcaster) BroadcastToRoomExcept(roomID, exceptUserID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{roomID: roomID, except: exceptUserID, msgType: msgType, payload: payload})
}

func (b *fakeBroadcaster) SendToUser(roomID, userID string, msgType string, payload interface{}) {}

func (b *fakeBroadcaster) CloseRoom(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, roomID)
}

func (b *fakeBroadcaster) eventsOfType(msgType string) []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastEvent
	for _, ev := range b.events {
		if ev.msgType == msgType {
			out = append(out, ev)
		}
	}
	return out
}

func newTestRoomService() (*RoomService, *fakeBroadcaster) {
	svc := NewRoomService(&fakeCatalog{}, NewDebouncer())
	b := &fakeBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func TestCreateMovieRoom(t *testing.T) {
	svc, _ := newTestRoomService()

	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, model.RoomTypeMovie, room.Type)
	assert.Equal(t, "host1", room.HostID)
	assert.False(t, room.Playing)
	assert.Zero(t, room.CurrentTime)
}

func TestCreateMovieRoom_UnknownMovie(t *testing.T) {
	svc, _ := newTestRoomService()

	_, err := svc.CreateMovieRoom(context.Background(), "movie night", 42, "host1")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestCreateMovieRoom_CatalogDown(t *testing.T) {
	svc := NewRoomService(&fakeCatalog{failing: true}, NewDebouncer())

	_, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Empty(t, svc.List())
}

func TestCreateSeriesRoom_StartsAtFirstEpisode(t *testing.T) {
	svc, _ := newTestRoomService()

	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)
	assert.Equal(t, model.RoomTypeSeries, room.Type)
	assert.Equal(t, int64(101), room.CurrentEpisodeID)
}

func TestCreateSeriesRoom_NoEpisodes(t *testing.T) {
	svc, _ := newTestRoomService()

	_, err := svc.CreateSeriesRoom(context.Background(), "binge", 2, "host1")
	assert.ErrorIs(t, err, ErrNoEpisodesAvailable)
}

func TestJoin_Idempotent(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))

	infos, err := svc.Participants(room.ID)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestJoin_UnknownRoom(t *testing.T) {
	svc, _ := newTestRoomService()
	assert.ErrorIs(t, svc.Join("nope", "u1", "Ana"), ErrRoomNotFound)
}

func TestJoin_LateJoinerSeesCurrentPosition(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))
	_, err = svc.HandleControl(room.ID, ActionSeek, 420.0, "host1")
	require.NoError(t, err)

	require.NoError(t, svc.Join(room.ID, "u2", "Ben"))
	infos, err := svc.Participants(room.ID)
	require.NoError(t, err)
	for _, info := range infos {
		if info.ID == "u2" {
			assert.Equal(t, 420.0, info.CurrentTime)
		}
	}
}

func TestLeave_LastParticipantDeletesRoom(t *testing.T) {
	svc, b := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))

	removed, err := svc.Leave(room.ID, "host1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok := svc.Get(room.ID)
	assert.False(t, ok)
	assert.Contains(t, b.closed, room.ID)
}

func TestLeave_RemainingParticipantsNotified(t *testing.T) {
	svc, b := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))
	require.NoError(t, svc.Join(room.ID, "u2", "Ben"))

	_, err = svc.Leave(room.ID, "u2")
	require.NoError(t, err)

	_, ok := svc.Get(room.ID)
	assert.True(t, ok)
	assert.NotEmpty(t, b.eventsOfType(MsgUserLeft))
}

func TestLeave_UnknownUserIsNoop(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))

	removed, err := svc.Leave(room.ID, "ghost")
	require.NoError(t, err)
	assert.False(t, removed)

	_, ok := svc.Get(room.ID)
	assert.True(t, ok)
}

func TestHandleControl_AppliesAndBroadcastsExceptOriginator(t *testing.T) {
	svc, b := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))
	require.NoError(t, svc.Join(room.ID, "u2", "Ben"))

	ev, err := svc.HandleControl(room.ID, ActionPlay, 12.5, "u2")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, ActionPlay, ev.Action)
	assert.Equal(t, 12.5, ev.CurrentTime)
	assert.Equal(t, "u2", ev.UserID)

	snap, err := svc.Snapshot(room.ID)
	require.NoError(t, err)
	assert.True(t, snap.Playing)
	assert.Equal(t, 12.5, snap.CurrentTime)
	assert.Equal(t, "u2", snap.LastActionUserID)

	syncs := b.eventsOfType(MsgSync)
	require.Len(t, syncs, 1)
	assert.Equal(t, "u2", syncs[0].except)
}

func TestHandleControl_CrossUserDuplicateSuppressed(t *testing.T) {
	svc, b := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))
	require.NoError(t, svc.Join(room.ID, "u2", "Ben"))

	ev, err := svc.HandleControl(room.ID, ActionPause, 100.0, "host1")
	require.NoError(t, err)
	require.NotNil(t, ev)

	// Echo from the other client right after: dropped without error,
	// no second sync broadcast.
	ev, err = svc.HandleControl(room.ID, ActionPause, 100.3, "u2")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Len(t, b.eventsOfType(MsgSync), 1)
}

func TestHandleControl_SeekKeepsPlayState(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))

	_, err = svc.HandleControl(room.ID, ActionPlay, 10.0, "host1")
	require.NoError(t, err)
	_, err = svc.HandleControl(room.ID, ActionSeek, 500.0, "host1")
	require.NoError(t, err)

	snap, err := svc.Snapshot(room.ID)
	require.NoError(t, err)
	assert.True(t, snap.Playing)
	assert.Equal(t, 500.0, snap.CurrentTime)
}

func TestHandleControl_UnknownRoom(t *testing.T) {
	svc, _ := newTestRoomService()
	_, err := svc.HandleControl("nope", ActionPlay, 0, "u1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpdateParticipantTime_DoesNotTouchRoomState(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))

	require.NoError(t, svc.UpdateParticipantTime(room.ID, "host1", 77.0))

	snap, err := svc.Snapshot(room.ID)
	require.NoError(t, err)
	assert.Zero(t, snap.CurrentTime)

	infos, err := svc.Participants(room.ID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 77.0, infos[0].CurrentTime)
}

func TestSwitchEpisode_HostOnly(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))
	require.NoError(t, svc.Join(room.ID, "u2", "Ben"))

	_, err = svc.SwitchEpisode(context.Background(), room.ID, 102, "u2")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Room untouched by the rejected attempt.
	snap, err := svc.Snapshot(room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(101), snap.CurrentEpisodeID)
}

func TestSwitchEpisode_ResetsPlayback(t *testing.T) {
	svc, b := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)
	require.NoError(t, svc.Join(room.ID, "host1", "Ana"))

	_, err = svc.HandleControl(room.ID, ActionPlay, 300.0, "host1")
	require.NoError(t, err)

	ep, err := svc.SwitchEpisode(context.Background(), room.ID, 102, "host1")
	require.NoError(t, err)
	assert.Equal(t, int64(102), ep.ID)

	snap, err := svc.Snapshot(room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(102), snap.CurrentEpisodeID)
	assert.Zero(t, snap.CurrentTime)
	assert.False(t, snap.Playing)

	changed := b.eventsOfType(MsgEpisodeChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "host1", changed[0].except)
}

func TestSwitchEpisode_WrongSeries(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)

	_, err = svc.SwitchEpisode(context.Background(), room.ID, 999, "host1")
	assert.ErrorIs(t, err, ErrEpisodeNotInSeries)
}

func TestSwitchEpisode_MovieRoom(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	_, err = svc.SwitchEpisode(context.Background(), room.ID, 101, "host1")
	assert.ErrorIs(t, err, ErrNotASeriesRoom)
}

func TestNextEpisode_CrossesSeasonBoundary(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)

	ep, err := svc.NextEpisode(context.Background(), room.ID, "host1")
	require.NoError(t, err)
	assert.Equal(t, int64(102), ep.ID)

	// S1E2 -> S2E1
	ep, err = svc.NextEpisode(context.Background(), room.ID, "host1")
	require.NoError(t, err)
	assert.Equal(t, int64(103), ep.ID)
	assert.Equal(t, 2, ep.SeasonNumber)
	assert.Equal(t, 1, ep.EpisodeNumber)
}

func TestNextEpisode_NoWraparound(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)

	_, err = svc.SwitchEpisode(context.Background(), room.ID, 103, "host1")
	require.NoError(t, err)

	_, err = svc.NextEpisode(context.Background(), room.ID, "host1")
	assert.ErrorIs(t, err, ErrEpisodeNotFound)

	// The failed navigation left the room where it was.
	snap, err := svc.Snapshot(room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(103), snap.CurrentEpisodeID)
}

func TestPreviousEpisode_AtStart(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)

	_, err = svc.PreviousEpisode(context.Background(), room.ID, "host1")
	assert.ErrorIs(t, err, ErrEpisodeNotFound)
}

func TestAvailableEpisodes_SortedPlaybackOrder(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateSeriesRoom(context.Background(), "binge", 1, "host1")
	require.NoError(t, err)

	episodes, err := svc.AvailableEpisodes(context.Background(), room.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 3)
	assert.Equal(t, int64(101), episodes[0].ID)
	assert.Equal(t, int64(102), episodes[1].ID)
	assert.Equal(t, int64(103), episodes[2].ID)
}

func TestReapIdle_RemovesOnlyEmptyIdleRooms(t *testing.T) {
	svc, b := newTestRoomService()

	idle, err := svc.CreateMovieRoom(context.Background(), "idle", 1, "host1")
	require.NoError(t, err)
	busy, err := svc.CreateMovieRoom(context.Background(), "busy", 1, "host2")
	require.NoError(t, err)
	require.NoError(t, svc.Join(busy.ID, "host2", "Ben"))

	removed := svc.ReapIdle(time.Now().Add(time.Hour), 30*time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := svc.Get(idle.ID)
	assert.False(t, ok)
	_, ok = svc.Get(busy.ID)
	assert.True(t, ok)
	assert.Contains(t, b.closed, idle.ID)
}

func TestReapIdle_RecentRoomsSurvive(t *testing.T) {
	svc, _ := newTestRoomService()

	room, err := svc.CreateMovieRoom(context.Background(), "fresh", 1, "host1")
	require.NoError(t, err)

	removed := svc.ReapIdle(time.Now().Add(time.Minute), 30*time.Minute)
	assert.Zero(t, removed)

	_, ok := svc.Get(room.ID)
	assert.True(t, ok)
}

func TestDelete_Idempotent(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	svc.Delete(room.ID)
	svc.Delete(room.ID)

	_, ok := svc.Get(room.ID)
	assert.False(t, ok)
}

func TestUserRoom_TracksMembership(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	require.NoError(t, svc.Join(room.ID, "u1", "Ana"))
	got, ok := svc.UserRoom("u1")
	assert.True(t, ok)
	assert.Equal(t, room.ID, got)

	_, err = svc.Leave(room.ID, "u1")
	require.NoError(t, err)
	_, ok = svc.UserRoom("u1")
	assert.False(t, ok)
}

func TestUserRoom_StaleLeaveKeepsCurrentRoomIndexed(t *testing.T) {
	svc, _ := newTestRoomService()
	roomA, err := svc.CreateMovieRoom(context.Background(), "a", 1, "host1")
	require.NoError(t, err)
	roomB, err := svc.CreateMovieRoom(context.Background(), "b", 1, "host2")
	require.NoError(t, err)

	require.NoError(t, svc.Join(roomA.ID, "u1", "Ana"))
	require.NoError(t, svc.Join(roomB.ID, "u1", "Ana"))

	// Leaving the old room must not erase the index entry pointing at
	// the room the user is in now.
	_, err = svc.Leave(roomA.ID, "u1")
	require.NoError(t, err)

	got, ok := svc.UserRoom("u1")
	assert.True(t, ok)
	assert.Equal(t, roomB.ID, got)
}

func TestStats(t *testing.T) {
	svc, _ := newTestRoomService()

	active, err := svc.CreateMovieRoom(context.Background(), "a", 1, "host1")
	require.NoError(t, err)
	_, err = svc.CreateMovieRoom(context.Background(), "b", 1, "host2")
	require.NoError(t, err)
	require.NoError(t, svc.Join(active.ID, "u1", "Ana"))
	require.NoError(t, svc.Join(active.ID, "u2", "Ben"))

	stats := svc.Stats()
	assert.Equal(t, 2, stats.TotalRooms)
	assert.Equal(t, 1, stats.ActiveRooms)
	assert.Equal(t, 1, stats.EmptyRooms)
	assert.Equal(t, 2, stats.TotalParticipants)
}

func TestIsHost(t *testing.T) {
	svc, _ := newTestRoomService()
	room, err := svc.CreateMovieRoom(context.Background(), "movie night", 1, "host1")
	require.NoError(t, err)

	assert.True(t, svc.IsHost(room.ID, "host1"))
	assert.False(t, svc.IsHost(room.ID, "u2"))
	assert.False(t, svc.IsHost("nope", "host1"))
}
