package server

import (
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/vctt94/gambaserver/pkg/gamba"
	"github.com/vctt94/gambaserver/pkg/protocol"
)

// handlerResult is what routing one inbound frame produces: the frames to
// dispatch, whether the frame counted against the consecutive invalid
// limit, and whether to close the connection afterwards.
type handlerResult struct {
	frames  []outbound
	invalid bool
	close   bool
}

func reply(frames ...outbound) handlerResult {
	return handlerResult{frames: frames}
}

// errorFrame builds the standard ERROR reply.
func errorFrame(reason string) *protocol.Message {
	return protocol.NewMessage(protocol.MsgError).Set("error", reason)
}

// requiresPlayer reports whether an inbound type only makes sense from a
// socket that has completed CONNECT.
func requiresPlayer(t protocol.MessageType) bool {
	switch t {
	case protocol.MsgConnect, protocol.MsgReconnect, protocol.MsgDisconnect:
		return false
	}
	return true
}

// missingFieldReason phrases a required-data failure the way clients
// expect for each type.
func missingFieldReason(t protocol.MessageType) string {
	switch t {
	case protocol.MsgConnect:
		return "Invalid name"
	case protocol.MsgReconnect:
		return "Player name required"
	case protocol.MsgPlayCards:
		return "No cards specified"
	}
	return "Missing required data"
}

// route maps one inbound frame to its handler. A handler panic is
// contained here: the session answers with a generic ERROR and stays up.
func (s *Server) route(sess *session, msg *protocol.Message) (res handlerResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Criticalf("panic handling %s on session %s: %v\nframe: %soffender stack:\n%s",
				msg.Type, sess.sock.id, r, spew.Sdump(msg), debug.Stack())
			res = reply(direct(errorFrame("Internal server error")))
		}
	}()

	// The connect gate answers before per-type data validation.
	var name string
	if requiresPlayer(msg.Type) {
		if name = s.players.BySocket(sess.sock); name == "" {
			return reply(direct(errorFrame("Must connect first")))
		}
	}

	if err := protocol.CheckRequiredData(msg); err != nil {
		s.log.Debugf("session %s: %v", sess.sock.id, err)
		return handlerResult{
			frames:  []outbound{direct(errorFrame(missingFieldReason(msg.Type)))},
			invalid: true,
		}
	}

	switch msg.Type {
	case protocol.MsgConnect:
		return s.handleConnect(sess, msg)
	case protocol.MsgReconnect:
		return s.handleReconnect(sess, msg)
	case protocol.MsgDisconnect:
		return handlerResult{close: true}
	case protocol.MsgPing:
		return s.handlePing(name)
	case protocol.MsgJoinRoom:
		return s.handleJoinRoom(name)
	case protocol.MsgLeaveRoom:
		return s.handleLeaveRoom(name)
	case protocol.MsgStartGame:
		return s.handleStartGame(name)
	case protocol.MsgPlayCards:
		return s.handlePlayCards(name, msg)
	case protocol.MsgPickupPile:
		return s.handlePickupPile(name)
	}
	return handlerResult{invalid: true}
}

// handleConnect claims a fresh name for the socket. Names are rejected
// while any record holds them, detached included; reclaiming a live
// session goes through RECONNECT instead.
func (s *Server) handleConnect(sess *session, msg *protocol.Message) handlerResult {
	name := msg.Get("name")
	if !protocol.ValidPlayerName(name) {
		return handlerResult{
			frames:  []outbound{direct(errorFrame("Invalid name"))},
			invalid: true,
		}
	}
	if s.players.Attach(name, sess.sock) != AttachOK {
		return reply(direct(errorFrame("Connection failed - name already taken")))
	}
	s.log.Infof("player %s connected (session %s)", name, sess.sock.id)

	resp := protocol.NewMessage(protocol.MsgConnected)
	resp.PlayerID = name
	resp.Set("name", name).Set("status", "success")
	return reply(direct(resp))
}

// handleReconnect rebinds a detached name to this socket and, when the
// player was seated, catches them up: a fresh game state for them and a
// PLAYER_RECONNECTED notice for everyone else in the room.
func (s *Server) handleReconnect(sess *session, msg *protocol.Message) handlerResult {
	name := msg.Get("name")
	roomID, ok := s.players.Reattach(name, sess.sock)
	if !ok {
		return reply(direct(errorFrame("Reconnection failed - player not found or session expired")))
	}

	resp := protocol.NewMessage(protocol.MsgConnected)
	resp.PlayerID = name
	resp.Set("name", name).Set("status", "success")
	frames := []outbound{direct(resp)}

	if roomID != "" {
		var seats []string
		s.rooms.WithRoom(roomID, func(room *Room) {
			if room == nil {
				return
			}
			seats = append([]string(nil), room.seats...)
			if room.game.Phase() == gamba.PhasePlaying {
				frames = append(frames, targeted(name, buildGameState(room, name)))
			}
		})
		for _, seat := range seats {
			if seat == name {
				continue
			}
			notice := protocol.NewMessage(protocol.MsgPlayerReconnected)
			notice.PlayerID = seat
			notice.RoomID = roomID
			notice.Set("reconnected_player", name).Set("status", "reconnected")
			frames = append(frames, targeted(seat, notice))
		}
	}
	return reply(frames...)
}

// handlePing stamps the heartbeat that keeps the liveness monitor away.
func (s *Server) handlePing(name string) handlerResult {
	s.players.UpdatePing(name)
	return reply(direct(protocol.NewMessage(protocol.MsgPong)))
}

// handleJoinRoom seats the player in the first room with a free seat,
// creating one when needed, and announces the arrival to the room. The
// announcement and its audience both come from the join's seat snapshot.
func (s *Server) handleJoinRoom(name string) handlerResult {
	roomID, seats := s.rooms.JoinAnyAvailableRoom(name)
	if roomID == "" {
		return reply(direct(errorFrame("Error occurred while joining room")))
	}
	s.players.SetRoom(name, roomID)

	resp := protocol.NewMessage(protocol.MsgRoomJoined)
	resp.PlayerID = name
	resp.RoomID = roomID
	resp.Set("player_count", strconv.Itoa(len(seats))).
		Set("players", strings.Join(seats, ",")).
		Set("room_full", strconv.FormatBool(len(seats) >= s.cfg.MaxPlayersPerRoom)).
		Set("status", "success")
	return reply(broadcast(seats, resp, "joined_player", name))
}

// handleLeaveRoom vacates the player's seat and tells whoever stayed.
func (s *Server) handleLeaveRoom(name string) handlerResult {
	roomID := s.players.RoomOf(name)
	if roomID == "" {
		return reply(direct(errorFrame("Not in any room")))
	}
	stayed, ok := s.rooms.LeaveRoom(name, roomID)
	if !ok {
		return reply(direct(errorFrame("Leave room failed")))
	}
	s.players.ClearRoom(name)

	resp := protocol.NewMessage(protocol.MsgRoomLeft)
	resp.PlayerID = name
	resp.Set("status", "left")
	return reply(broadcast(stayed, resp, "", ""))
}

// handleStartGame deals the room's game and hands every seat its opening
// view of the table.
func (s *Server) handleStartGame(name string) handlerResult {
	roomID := s.players.RoomOf(name)
	if roomID == "" {
		return reply(direct(errorFrame("Not in any room")))
	}

	var frames []outbound
	s.rooms.WithRoom(roomID, func(room *Room) {
		if room == nil {
			return
		}
		if err := room.game.Start(); err != nil {
			s.log.Debugf("room %s: %v", roomID, err)
			return
		}
		started := protocol.NewMessage(protocol.MsgGameStarted)
		started.RoomID = roomID
		started.Set("status", "started")
		frames = append(frames, broadcast(append([]string(nil), room.seats...), started, "", ""))
		for _, seat := range room.seats {
			frames = append(frames, targeted(seat, buildGameState(room, seat)))
		}
	})
	if len(frames) == 0 {
		return reply(direct(errorFrame("Cannot start game")))
	}
	s.log.Infof("room %s: game started by %s", roomID, name)
	return reply(frames...)
}

// handlePlayCards applies a card play, or a blind reserve flip when the
// cards value is the RESERVE token. A turn the engine accepts always
// answers TURN_RESULT first; a winning turn then tears the room down
// instead of sending fresh game states.
func (s *Server) handlePlayCards(name string, msg *protocol.Message) handlerResult {
	roomID := s.players.RoomOf(name)
	if roomID == "" {
		return reply(direct(errorFrame("Not in any room")))
	}

	raw := msg.Get("cards")
	reserve := raw == protocol.ReserveCard
	var cards []gamba.Card
	if !reserve {
		var err error
		if cards, err = gamba.ParseCards(raw); err != nil {
			return reply(direct(errorFrame("Invalid card play")))
		}
	}

	var (
		frames []outbound
		seats  []string
		winner string
	)
	s.rooms.WithRoom(roomID, func(room *Room) {
		if room == nil {
			return
		}
		var res gamba.PlayResult
		if reserve {
			res = room.game.PlayReserve(name)
		} else {
			res = room.game.PlayCards(name, cards)
		}
		if res == gamba.PlayInvalidPlayer || res == gamba.PlayInvalidCard {
			return
		}

		turn := protocol.NewMessage(protocol.MsgTurnResult)
		turn.PlayerID = name
		turn.Set("result", "play_success").Set("status", "success")
		frames = append(frames, direct(turn))

		if res == gamba.PlayGameOver {
			winner = room.game.Winner()
			seats = append(seats, room.seats...)
			frames = append(frames, gameOverFrames(seats, room.id, winner, "")...)
		} else {
			for _, seat := range room.seats {
				frames = append(frames, targeted(seat, buildGameState(room, seat)))
			}
		}
	})
	if len(frames) == 0 {
		return reply(direct(errorFrame("Invalid card play")))
	}

	if winner != "" {
		for _, seat := range seats {
			s.players.ClearRoom(seat)
		}
		s.rooms.DeleteRoom(roomID)
		s.log.Infof("room %s: %s wins", roomID, winner)
	}
	return reply(frames...)
}

// handlePickupPile moves the discard pile into the player's hand and
// passes the turn.
func (s *Server) handlePickupPile(name string) handlerResult {
	roomID := s.players.RoomOf(name)
	if roomID == "" {
		return reply(direct(errorFrame("Not in any room")))
	}

	var frames []outbound
	s.rooms.WithRoom(roomID, func(room *Room) {
		if room == nil {
			return
		}
		if room.game.PickupPile(name) != gamba.PlaySuccess {
			return
		}
		turn := protocol.NewMessage(protocol.MsgTurnResult)
		turn.PlayerID = name
		turn.Set("result", "pickup_success").Set("status", "success")
		frames = append(frames, direct(turn))
		for _, seat := range room.seats {
			frames = append(frames, targeted(seat, buildGameState(room, seat)))
		}
	})
	if len(frames) == 0 {
		return reply(direct(errorFrame("Cannot pickup pile")))
	}
	return reply(frames...)
}

// buildGameState renders one seat's view of the table. Key order is part
// of the wire contract; line-oriented clients index into it.
func buildGameState(room *Room, seat string) *protocol.Message {
	g := room.game
	msg := protocol.NewMessage(protocol.MsgGameState)
	msg.PlayerID = seat
	msg.RoomID = room.id

	top := protocol.EmptyPileCard
	if c, ok := g.TopDiscard(); ok {
		top = c.String()
	}
	cur := g.CurrentPlayer()
	opp := room.Opponent(seat)

	msg.Set("current_player", cur).
		Set("top_card", top).
		Set("hand", gamba.FormatCards(g.Hand(seat))).
		Set("reserves", strconv.Itoa(g.ReserveCount(seat))).
		Set("opponent_name", opp).
		Set("opponent_hand", strconv.Itoa(g.HandCount(opp))).
		Set("opponent_reserves", strconv.Itoa(g.ReserveCount(opp))).
		Set("deck_size", strconv.Itoa(g.DeckSize())).
		Set("discard_pile_size", strconv.Itoa(g.DiscardSize())).
		Set("must_play_low", strconv.FormatBool(g.MustPlayLow())).
		Set("your_turn", strconv.FormatBool(cur == seat))
	return msg
}

// gameOverFrames announces the winner to every seat and then evicts the
// room: one GAME_OVER per seat followed by one ROOM_LEFT per seat. reason
// is added only when nonempty (the liveness monitor sets it for forfeits).
func gameOverFrames(seats []string, roomID, winner, reason string) []outbound {
	frames := make([]outbound, 0, 2*len(seats))
	for _, seat := range seats {
		over := protocol.NewMessage(protocol.MsgGameOver)
		over.PlayerID = seat
		over.RoomID = roomID
		over.Set("winner", winner)
		if reason != "" {
			over.Set("reason", reason)
		}
		over.Set("status", "game_over")
		frames = append(frames, targeted(seat, over))
	}
	for _, seat := range seats {
		left := protocol.NewMessage(protocol.MsgRoomLeft)
		left.PlayerID = seat
		left.Set("status", "left")
		frames = append(frames, targeted(seat, left))
	}
	return frames
}

// disconnectNotices builds the PLAYER_DISCONNECTED frames for every seat
// in roomID other than name. status distinguishes a dropped socket from a
// heartbeat timeout.
func disconnectNotices(rooms *RoomRegistry, roomID, name, status string) []outbound {
	var frames []outbound
	for _, seat := range rooms.GetRoomPlayers(roomID) {
		if seat == name {
			continue
		}
		notice := protocol.NewMessage(protocol.MsgPlayerDisconnected)
		notice.PlayerID = seat
		notice.RoomID = roomID
		notice.Set("disconnected_player", name).Set("status", status)
		frames = append(frames, targeted(seat, notice))
	}
	return frames
}
