package server

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/decred/slog"

	"github.com/vctt94/gambaserver/pkg/gamba"
)

// Room pairs an ordered seat list with the game those seats play. Rooms
// are only ever touched under the owning registry's mutex; WithRoom is
// how callers reach a live *Room.
type Room struct {
	id    string
	seats []string
	game  *gamba.Game
}

// Opponent returns the other seat's name, "" when name sits alone.
func (r *Room) Opponent(name string) string {
	for _, s := range r.seats {
		if s != name {
			return s
		}
	}
	return ""
}

// RoomRegistry tracks every live room under a single mutex. Game engine
// calls happen inside WithRoom while that mutex is held, which is what
// serializes turns: two plays on the same room are totally ordered.
type RoomRegistry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	nextID int

	maxRooms int
	maxSeats int
	deckSeed int64

	log slog.Logger
}

// NewRoomRegistry creates an empty registry sized by cfg.
func NewRoomRegistry(cfg *Config, log slog.Logger) *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[string]*Room),
		nextID:   1,
		maxRooms: cfg.MaxRooms,
		maxSeats: cfg.MaxPlayersPerRoom,
		deckSeed: cfg.DeckSeed,
		log:      log,
	}
}

func (r *RoomRegistry) newGame() *gamba.Game {
	if r.deckSeed != 0 {
		return gamba.NewGame(rand.New(rand.NewSource(r.deckSeed)))
	}
	return gamba.NewGame(nil)
}

// CreateRoom allocates the next ROOM_<n> id with a fresh game. Ids grow
// monotonically and are never reused. It fails once maxRooms rooms exist.
func (r *RoomRegistry) CreateRoom() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked()
}

func (r *RoomRegistry) createLocked() (string, error) {
	if len(r.rooms) >= r.maxRooms {
		return "", fmt.Errorf("room limit reached (%d)", r.maxRooms)
	}
	id := fmt.Sprintf("ROOM_%d", r.nextID)
	r.nextID++
	r.rooms[id] = &Room{id: id, game: r.newGame()}
	r.log.Infof("room %s created", id)
	return id, nil
}

// JoinRoom seats name in roomID. It fails when the room is missing or
// full, the name is already seated, or the room's game has started.
func (r *RoomRegistry) JoinRoom(name, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinLocked(name, roomID)
}

func (r *RoomRegistry) joinLocked(name, roomID string) bool {
	room, ok := r.rooms[roomID]
	if !ok || len(room.seats) >= r.maxSeats {
		return false
	}
	for _, s := range room.seats {
		if s == name {
			return false
		}
	}
	if err := room.game.AddPlayer(name); err != nil {
		return false
	}
	room.seats = append(room.seats, name)
	r.log.Debugf("player %s joined %s (%d/%d seats)", name, roomID, len(room.seats), r.maxSeats)
	return true
}

// JoinAnyAvailableRoom seats name in the lowest-numbered room holding
// exactly one seat, creating a fresh room when none accepts. It returns
// the room id and the seat list as of this join, taken under the same
// lock as the seating. The id is "" when the room limit blocks creation.
func (r *RoomRegistry) JoinAnyAvailableRoom(name string) (string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.sortedIDsLocked() {
		if len(r.rooms[id].seats) != 1 {
			continue
		}
		if r.joinLocked(name, id) {
			return id, r.seatsLocked(id)
		}
	}

	id, err := r.createLocked()
	if err != nil {
		r.log.Warnf("cannot seat %s: %v", name, err)
		return "", nil
	}
	if !r.joinLocked(name, id) {
		return "", nil
	}
	return id, r.seatsLocked(id)
}

func (r *RoomRegistry) sortedIDsLocked() []string {
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return roomNumber(ids[i]) < roomNumber(ids[j])
	})
	return ids
}

// roomNumber extracts n from a ROOM_<n> id.
func roomNumber(id string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "ROOM_"))
	return n
}

// LeaveRoom vacates name's seat and returns the seats that stay behind,
// taken under the same lock as the removal. A game that has not started
// loses the engine seat too; an emptied room is deleted. ok is false when
// the room or the seat does not exist.
func (r *RoomRegistry) LeaveRoom(name, roomID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	idx := -1
	for i, s := range room.seats {
		if s == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	room.seats = append(room.seats[:idx], room.seats[idx+1:]...)
	if room.game.Phase() == gamba.PhaseWaiting {
		if err := room.game.RemovePlayer(name); err != nil {
			r.log.Warnf("room %s: %v", roomID, err)
		}
	}
	r.log.Debugf("player %s left %s", name, roomID)
	if len(room.seats) == 0 {
		delete(r.rooms, roomID)
		r.log.Infof("room %s deleted (empty)", roomID)
		return nil, true
	}
	return r.seatsLocked(roomID), true
}

// DeleteRoom drops the room outright, seats and game included.
func (r *RoomRegistry) DeleteRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; ok {
		delete(r.rooms, roomID)
		r.log.Infof("room %s deleted", roomID)
	}
}

// RoomExists reports whether roomID is live.
func (r *RoomRegistry) RoomExists(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID]
	return ok
}

// IsRoomFull reports whether the room has no free seat. Missing rooms
// count as full.
func (r *RoomRegistry) IsRoomFull(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	return !ok || len(room.seats) >= r.maxSeats
}

// GetRoomPlayers returns a copy of the room's seat list in join order.
func (r *RoomRegistry) GetRoomPlayers(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seatsLocked(roomID)
}

func (r *RoomRegistry) seatsLocked(roomID string) []string {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	seats := make([]string, len(room.seats))
	copy(seats, room.seats)
	return seats
}

// WithRoom runs fn with the named room, or nil when absent, holding the
// registry mutex for the whole call. fn must not call back into the
// registry.
func (r *RoomRegistry) WithRoom(roomID string, fn func(*Room)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.rooms[roomID])
}

// Count returns the number of live rooms.
func (r *RoomRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
