package server

import (
	"github.com/decred/slog"

	"github.com/vctt94/gambaserver/pkg/protocol"
)

// dispatchKind selects the recipients of one outbound frame.
type dispatchKind int

const (
	// dispatchDirect writes to the originating socket only.
	dispatchDirect dispatchKind = iota
	// dispatchTargeted writes to one named player; detached and unknown
	// players lose the frame silently.
	dispatchTargeted
	// dispatchBroadcast writes to the originating socket, then a tagged
	// copy to every other seat captured with the event.
	dispatchBroadcast
)

// outbound pairs one frame with its routing.
type outbound struct {
	msg  *protocol.Message
	kind dispatchKind

	target string   // targeted: recipient name
	seats  []string // broadcast: the room's seats when the event happened

	tagKey, tagVal string // broadcast: type-specific key added to the copy
}

// direct routes msg to the requesting socket.
func direct(msg *protocol.Message) outbound {
	return outbound{msg: msg, kind: dispatchDirect}
}

// targeted routes msg to the named player's socket, if attached.
func targeted(name string, msg *protocol.Message) outbound {
	return outbound{msg: msg, kind: dispatchTargeted, target: name}
}

// broadcast routes msg untouched to the requesting socket and a copy
// tagged broadcast_type=room_notification (plus tagKey=tagVal when tagKey
// is nonempty) to every listed seat except the originator. seats is the
// seat list from the moment the handler mutated the room; players seated
// afterwards never see the copy.
func broadcast(seats []string, msg *protocol.Message, tagKey, tagVal string) outbound {
	return outbound{msg: msg, kind: dispatchBroadcast, seats: seats, tagKey: tagKey, tagVal: tagVal}
}

// dispatcher fans handler output out to sockets through the player
// registry.
type dispatcher struct {
	players *PlayerRegistry
	log     slog.Logger
}

func newDispatcher(players *PlayerRegistry, log slog.Logger) *dispatcher {
	return &dispatcher{players: players, log: log}
}

// dispatch writes frames in order. origin is the requesting socket and
// originName its player; both are zero for frames that have no originator,
// such as the liveness monitor's. A failed write skips that recipient and
// moves on.
func (d *dispatcher) dispatch(origin *socket, originName string, frames []outbound) {
	for _, f := range frames {
		switch f.kind {
		case dispatchDirect:
			if origin != nil {
				d.write(origin, f.msg)
			}

		case dispatchTargeted:
			d.sendTo(f.target, f.msg)

		case dispatchBroadcast:
			if origin != nil {
				d.write(origin, f.msg)
			}
			tagged := f.msg.Clone().Set("broadcast_type", "room_notification")
			if f.tagKey != "" {
				tagged.Set(f.tagKey, f.tagVal)
			}
			for _, seat := range f.seats {
				if seat != originName {
					d.sendTo(seat, tagged)
				}
			}
		}
	}
}

// sendTo resolves name to a live socket and writes msg to it.
func (d *dispatcher) sendTo(name string, msg *protocol.Message) {
	sock, ok := d.players.SocketOf(name)
	if !ok {
		d.log.Tracef("dropping %s frame for offline player %s", msg.Type, name)
		return
	}
	d.write(sock, msg)
}

func (d *dispatcher) write(sock *socket, msg *protocol.Message) {
	if err := sock.writeFrame(msg); err != nil {
		d.log.Warnf("write %s to session %s failed: %v", msg.Type, sock.id, err)
	}
}
