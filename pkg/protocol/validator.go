package protocol

import "fmt"

// MaxPlayerName bounds accepted player names.
const MaxPlayerName = 32

// ValidPlayerName reports whether name is acceptable for a new connection:
// 1 to 32 characters drawn from [A-Za-z0-9_-].
func ValidPlayerName(name string) bool {
	if len(name) == 0 || len(name) > MaxPlayerName {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// MissingFieldError reports an inbound frame that omitted a data field its
// type requires. The session answers these with an ERROR reply but still
// counts them against the consecutive invalid frame limit.
type MissingFieldError struct {
	Type  MessageType
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s frame missing required field %q", e.Type, e.Field)
}

// requiredData lists, per inbound type, the data keys that must be present
// and non-empty.
var requiredData = map[MessageType][]string{
	MsgConnect:   {"name"},
	MsgReconnect: {"name"},
	MsgPlayCards: {"cards"},
}

// CheckRequiredData verifies the per-type required data keys of an inbound
// frame, returning a *MissingFieldError for the first absent or empty one.
func CheckRequiredData(m *Message) error {
	for _, field := range requiredData[m.Type] {
		if m.Get(field) == "" {
			return &MissingFieldError{Type: m.Type, Field: field}
		}
	}
	return nil
}
