package protocol

import "strconv"

// MessageType identifies a frame on the wire. Client-to-server types occupy
// 0-99 and server-to-client types occupy 100-200.
type MessageType int

// Client to server.
const (
	MsgConnect    MessageType = 0
	MsgDisconnect MessageType = 1
	MsgJoinRoom   MessageType = 2
	MsgLeaveRoom  MessageType = 3
	MsgPing       MessageType = 4
	MsgStartGame  MessageType = 5
	MsgReconnect  MessageType = 6
	MsgPlayCards  MessageType = 7
	MsgPickupPile MessageType = 8
)

// Server to client.
const (
	MsgConnected          MessageType = 100
	MsgRoomJoined         MessageType = 101
	MsgRoomLeft           MessageType = 102
	MsgError              MessageType = 103
	MsgPong               MessageType = 104
	MsgGameStarted        MessageType = 105
	MsgGameState          MessageType = 106
	MsgPlayerDisconnected MessageType = 107
	// MsgGamePaused is reserved. The detach/reconnect flow replaced the
	// pause flow and the server never emits it.
	MsgGamePaused        MessageType = 108
	MsgPlayerReconnected MessageType = 109
	// MsgGameResumed is reserved, see MsgGamePaused.
	MsgGameResumed MessageType = 110
	MsgTurnResult  MessageType = 111
	MsgGameOver    MessageType = 112
)

// maxMessageType bounds the numeric range a frame prefix may carry.
const maxMessageType = 200

// EmptyPileCard is the sentinel token written for top_card when the discard
// pile is empty. It is not a parseable card and never appears inbound.
const EmptyPileCard = "1S"

// ReserveCard is the cards value a client sends to play its next reserve
// card blind.
const ReserveCard = "RESERVE"

var typeNames = map[MessageType]string{
	MsgConnect:            "CONNECT",
	MsgDisconnect:         "DISCONNECT",
	MsgJoinRoom:           "JOIN_ROOM",
	MsgLeaveRoom:          "LEAVE_ROOM",
	MsgPing:               "PING",
	MsgStartGame:          "START_GAME",
	MsgReconnect:          "RECONNECT",
	MsgPlayCards:          "PLAY_CARDS",
	MsgPickupPile:         "PICKUP_PILE",
	MsgConnected:          "CONNECTED",
	MsgRoomJoined:         "ROOM_JOINED",
	MsgRoomLeft:           "ROOM_LEFT",
	MsgError:              "ERROR",
	MsgPong:               "PONG",
	MsgGameStarted:        "GAME_STARTED",
	MsgGameState:          "GAME_STATE",
	MsgPlayerDisconnected: "PLAYER_DISCONNECTED",
	MsgGamePaused:         "GAME_PAUSED",
	MsgPlayerReconnected:  "PLAYER_RECONNECTED",
	MsgGameResumed:        "GAME_RESUMED",
	MsgTurnResult:         "TURN_RESULT",
	MsgGameOver:           "GAME_OVER",
}

// String returns the protocol name of the type, or UNKNOWN(n) for types
// outside the vocabulary.
func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
}

// Inbound reports whether t is a type clients are allowed to send. Frames
// carrying any other type are dropped and the connection penalized.
func (t MessageType) Inbound() bool {
	return t >= MsgConnect && t <= MsgPickupPile
}
