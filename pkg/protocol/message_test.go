package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullFrame(t *testing.T) {
	m, err := Parse("7|Alice|ROOM_1|cards=3H,3D|status=pending")
	require.NoError(t, err)

	assert.Equal(t, MsgPlayCards, m.Type)
	assert.Equal(t, "Alice", m.PlayerID)
	assert.Equal(t, "ROOM_1", m.RoomID)
	assert.Equal(t, "3H,3D", m.Get("cards"))
	assert.Equal(t, "pending", m.Get("status"))
	assert.Equal(t, []string{"cards", "status"}, m.Keys())
}

func TestParseMinimalFrame(t *testing.T) {
	// One pipe is enough: empty player, no room, no data.
	m, err := Parse("4|")
	require.NoError(t, err)

	assert.Equal(t, MsgPing, m.Type)
	assert.Empty(t, m.PlayerID)
	assert.Empty(t, m.RoomID)
	assert.Zero(t, m.Len())
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"no pipe", "PING"},
		{"numeric no pipe", "4"},
		{"non numeric type", "abc|x"},
		{"trailing garbage in type", "2abc|x"},
		{"negative type", "-1|x"},
		{"type above range", "201|x"},
		{"plain text", "hello world"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.line)
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestParseDropsSegmentsWithoutEquals(t *testing.T) {
	m, err := Parse("0|Alice||name=Alice|garbage|x=1")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "x"}, m.Keys())
	assert.Equal(t, "Alice", m.Get("name"))
	assert.Equal(t, "1", m.Get("x"))
}

func TestParseValueContainingEquals(t *testing.T) {
	m, err := Parse("0|||note=a=b=c")
	require.NoError(t, err)
	assert.Equal(t, "a=b=c", m.Get("note"))
}

func TestParseEmptyValue(t *testing.T) {
	m, err := Parse("0|||name=")
	require.NoError(t, err)
	assert.True(t, m.Has("name"))
	assert.Empty(t, m.Get("name"))
}

func TestParseTrailingLineEndings(t *testing.T) {
	for _, line := range []string{"4|\n", "4|\r\n", "4|"} {
		m, err := Parse(line)
		require.NoError(t, err, "line %q", line)
		assert.Equal(t, MsgPing, m.Type)
	}
}

func TestSerializePreservesInsertionOrder(t *testing.T) {
	m := NewMessage(MsgGameOver)
	m.PlayerID = "Bob"
	m.RoomID = "ROOM_2"
	m.Set("winner", "Bob").
		Set("reason", "opponent_disconnect").
		Set("status", "game_over")

	assert.Equal(t,
		"112|Bob|ROOM_2|winner=Bob|reason=opponent_disconnect|status=game_over",
		m.Serialize())
}

func TestSerializeEmptyPlayerAndRoom(t *testing.T) {
	m := NewMessage(MsgError).Set("error", "Must connect first")
	assert.Equal(t, "103|||error=Must connect first", m.Serialize())
}

func TestSetReplaceKeepsPosition(t *testing.T) {
	m := NewMessage(MsgGameState).
		Set("top_card", "1S").
		Set("deck_size", "40").
		Set("top_card", "9H")

	assert.Equal(t, []string{"top_card", "deck_size"}, m.Keys())
	assert.Equal(t, "106|||top_card=9H|deck_size=40", m.Serialize())
}

func TestParseSerializeRoundTrip(t *testing.T) {
	lines := []string{
		"100|Alice||name=Alice|status=success",
		"101|Alice|ROOM_1|player_count=1|players=Alice|room_full=false|status=success",
		"105||ROOM_1|status=started",
		"111|Alice||result=play_success|status=success",
		"103|||error=Invalid card play",
	}
	for _, line := range lines {
		m, err := Parse(line)
		require.NoError(t, err, "line %q", line)
		assert.Equal(t, line, m.Serialize())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := NewMessage(MsgRoomJoined).Set("status", "success")
	orig.PlayerID = "Alice"

	c := orig.Clone()
	c.Set("broadcast_type", "room_notification")
	c.Set("status", "changed")
	c.PlayerID = "Bob"

	assert.Equal(t, "success", orig.Get("status"))
	assert.False(t, orig.Has("broadcast_type"))
	assert.Equal(t, "Alice", orig.PlayerID)
	assert.Equal(t, []string{"status", "broadcast_type"}, c.Keys())
}

func TestGetDefault(t *testing.T) {
	m := NewMessage(MsgConnect).Set("name", "Alice")
	assert.Equal(t, "Alice", m.GetDefault("name", "nobody"))
	assert.Equal(t, "nobody", m.GetDefault("missing", "nobody"))
}
