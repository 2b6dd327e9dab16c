package protocol

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedFrame is returned by Parse for lines that do not carry a
// recognizable TYPE|PLAYER|ROOM prefix.
var ErrMalformedFrame = errors.New("malformed frame")

// Message is one decoded frame of the pipe protocol:
//
//	TYPE|PLAYER_ID|ROOM_ID|key1=value1|key2=value2|...
//
// Data keys preserve insertion order so a frame serializes exactly as it was
// built, which keeps server output stable for line-oriented clients.
type Message struct {
	Type     MessageType
	PlayerID string
	RoomID   string

	keys []string
	data map[string]string
}

// NewMessage returns an empty frame of the given type.
func NewMessage(t MessageType) *Message {
	return &Message{Type: t, data: make(map[string]string)}
}

// Set adds or replaces a data field. New keys append to the serialization
// order, replaced keys keep their original position. Returns the message so
// frame construction can chain.
func (m *Message) Set(key, value string) *Message {
	if m.data == nil {
		m.data = make(map[string]string)
	}
	if _, ok := m.data[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.data[key] = value
	return m
}

// Get returns the value for key, or "" when absent.
func (m *Message) Get(key string) string {
	return m.data[key]
}

// GetDefault returns the value for key, or def when absent.
func (m *Message) GetDefault(key, def string) string {
	if v, ok := m.data[key]; ok {
		return v
	}
	return def
}

// Has reports whether key is present, even with an empty value.
func (m *Message) Has(key string) bool {
	_, ok := m.data[key]
	return ok
}

// Keys returns the data keys in serialization order.
func (m *Message) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of data fields.
func (m *Message) Len() int {
	return len(m.keys)
}

// Clone returns an independent copy. Broadcast fan-out clones the original
// frame before tagging per-recipient fields onto it.
func (m *Message) Clone() *Message {
	c := &Message{
		Type:     m.Type,
		PlayerID: m.PlayerID,
		RoomID:   m.RoomID,
		keys:     append([]string(nil), m.keys...),
		data:     make(map[string]string, len(m.data)),
	}
	for k, v := range m.data {
		c.data[k] = v
	}
	return c
}

// Serialize renders the frame without a trailing newline. The transport
// appends the \n terminator when writing.
func (m *Message) Serialize() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(m.Type)))
	b.WriteByte('|')
	b.WriteString(m.PlayerID)
	b.WriteByte('|')
	b.WriteString(m.RoomID)
	for _, k := range m.keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m.data[k])
	}
	return b.String()
}

// String implements fmt.Stringer for log output.
func (m *Message) String() string {
	return m.Serialize()
}

// Parse decodes one frame. A line is well formed when it contains at least
// one pipe and its prefix parses as a decimal type in [0, 200]; anything
// else returns ErrMalformedFrame. Data segments without an equals sign are
// dropped silently. Values may themselves contain equals signs; only the
// first one splits key from value. A trailing \r\n or \n is tolerated.
func Parse(line string) (*Message, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil, ErrMalformedFrame
	}
	code, err := strconv.Atoi(parts[0])
	if err != nil || code < 0 || code > maxMessageType {
		return nil, ErrMalformedFrame
	}

	m := NewMessage(MessageType(code))
	m.PlayerID = parts[1]
	if len(parts) > 2 {
		m.RoomID = parts[2]
	}
	if len(parts) > 3 {
		for _, seg := range parts[3:] {
			eq := strings.IndexByte(seg, '=')
			if eq < 0 {
				continue
			}
			m.Set(seg[:eq], seg[eq+1:])
		}
	}
	return m, nil
}
