package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
)

// session dispatches the frames of one connection. All calls happen
// on the connection's read goroutine, so no locking is needed here.
type session struct {
	conn    *Connection
	roomSvc *service.RoomService
	joined  bool
}

func newSession(conn *Connection, roomSvc *service.RoomService) *session {
	return &session{
		conn:    conn,
		roomSvc: roomSvc,
	}
}

// handle processes one inbound frame. Errors go back to the sender
// only; the rest of the room never sees a rejected frame.
func (s *session) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(service.ErrInvalidPayload)
		return
	}

	var err error
	switch msg.Type {
	case MsgJoin:
		err = s.handleJoin()
	case MsgLeave:
		err = s.handleLeave()
	case MsgPlay:
		err = s.handleControl(service.ActionPlay, msg.Payload)
	case MsgPause:
		err = s.handleControl(service.ActionPause, msg.Payload)
	case MsgSeek:
		err = s.handleControl(service.ActionSeek, msg.Payload)
	case MsgTimeUpdate:
		err = s.handleTimeUpdate(msg.Payload)
	case MsgSwitchEpisode:
		err = s.handleSwitchEpisode(msg.Payload)
	case MsgNextEpisode:
		err = s.handleAdjacentEpisode(s.roomSvc.NextEpisode)
	case MsgPreviousEpisode:
		err = s.handleAdjacentEpisode(s.roomSvc.PreviousEpisode)
	case MsgAvailableEpisodes:
		err = s.handleAvailableEpisodes()
	case MsgRoomInfo:
		err = s.handleRoomInfo()
	case MsgChangeQuality:
		err = s.handleChangeQuality(msg.Payload)
	case MsgHeartbeat:
		err = s.handleHeartbeat()
	default:
		err = service.ErrInvalidPayload
	}

	if err != nil {
		s.sendError(err)
	}
}

// disconnect runs when the socket closes for any reason. A dropped
// connection counts as a leave, unless a reconnect has already
// superseded this connection: then the viewer is still live on the
// new socket and leaving here would tear the room down under them.
func (s *session) disconnect() {
	if !s.joined {
		return
	}
	s.joined = false
	if !s.conn.Hub.IsCurrent(s.conn) {
		return
	}
	if _, err := s.roomSvc.Leave(s.conn.RoomID, s.conn.ViewerID); err != nil && !errors.Is(err, service.ErrRoomNotFound) {
		log.Printf("Leave on disconnect failed for viewer %s in room %s: %v", s.conn.ViewerID, s.conn.RoomID, err)
	}
}

func (s *session) handleJoin() error {
	if err := s.roomSvc.Join(s.conn.RoomID, s.conn.ViewerID, s.conn.DisplayName); err != nil {
		return err
	}
	s.joined = true
	return s.sendRoomState()
}

func (s *session) handleLeave() error {
	s.joined = false
	_, err := s.roomSvc.Leave(s.conn.RoomID, s.conn.ViewerID)
	return err
}

func (s *session) handleControl(kind service.ActionKind, raw json.RawMessage) error {
	var p ControlPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	_, err := s.roomSvc.HandleControl(s.conn.RoomID, kind, p.CurrentTime, s.conn.ViewerID)
	return err
}

func (s *session) handleTimeUpdate(raw json.RawMessage) error {
	var p TimeUpdatePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	return s.roomSvc.UpdateParticipantTime(s.conn.RoomID, s.conn.ViewerID, p.CurrentTime)
}

func (s *session) handleSwitchEpisode(raw json.RawMessage) error {
	var p SwitchEpisodePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	episode, err := s.roomSvc.SwitchEpisode(ctx, s.conn.RoomID, p.EpisodeID, s.conn.ViewerID)
	if err != nil {
		return err
	}
	s.sendEpisodeChanged(episode)
	return nil
}

func (s *session) handleAdjacentEpisode(fn func(ctx context.Context, roomID, userID string) (*model.Episode, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	episode, err := fn(ctx, s.conn.RoomID, s.conn.ViewerID)
	if err != nil {
		return err
	}
	s.sendEpisodeChanged(episode)
	return nil
}

func (s *session) handleAvailableEpisodes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	episodes, err := s.roomSvc.AvailableEpisodes(ctx, s.conn.RoomID)
	if err != nil {
		return err
	}
	s.send(MsgEpisodeList, map[string]interface{}{"episodes": episodes})
	return nil
}

func (s *session) handleRoomInfo() error {
	snap, err := s.roomSvc.Snapshot(s.conn.RoomID)
	if err != nil {
		return err
	}
	s.send(MsgRoomInfoReply, snap)
	return nil
}

func (s *session) handleChangeQuality(raw json.RawMessage) error {
	var p QualityPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	// Quality is a per-client rendering hint; the room state does not
	// track it, the frame is only relayed.
	s.conn.Hub.BroadcastToRoomExcept(s.conn.RoomID, s.conn.ViewerID, string(MsgQualityChanged), &QualityChangedPayload{
		Quality: p.Quality,
		UserID:  s.conn.ViewerID,
	})
	return nil
}

func (s *session) handleHeartbeat() error {
	if err := s.roomSvc.Heartbeat(s.conn.RoomID, s.conn.ViewerID); err != nil {
		return err
	}
	s.send(MsgHeartbeatAck, &HeartbeatAckPayload{Timestamp: time.Now().UnixMilli()})
	return nil
}

func (s *session) sendRoomState() error {
	snap, err := s.roomSvc.Snapshot(s.conn.RoomID)
	if err != nil {
		return err
	}
	streamURL, err := s.roomSvc.StreamURL(s.conn.RoomID)
	if err != nil {
		return err
	}
	s.send(MsgRoomState, &RoomStatePayload{
		RoomID:           snap.ID,
		RoomType:         string(snap.Type),
		CurrentTime:      snap.CurrentTime,
		IsPlaying:        snap.Playing,
		LastActionUserID: snap.LastActionUserID,
		CurrentEpisodeID: snap.CurrentEpisodeID,
		StreamURL:        streamURL,
	})
	return nil
}

// sendEpisodeChanged gives the requester the same notification the
// rest of the room got, so every client switches streams.
func (s *session) sendEpisodeChanged(episode *model.Episode) {
	s.send(MessageType(service.MsgEpisodeChanged), &service.EpisodeChange{
		EpisodeID: episode.ID,
		StreamURL: episode.StreamURL,
		Episode:   episode,
		UserID:    s.conn.ViewerID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *session) send(msgType MessageType, payload interface{}) {
	s.conn.Hub.SendToUser(s.conn.RoomID, s.conn.ViewerID, string(msgType), payload)
}

func (s *session) sendError(err error) {
	s.send(MsgError, &ErrorPayload{Error: err.Error()})
}
