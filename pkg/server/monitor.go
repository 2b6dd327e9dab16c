package server

import (
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/prometheus/procfs"

	"github.com/vctt94/gambaserver/pkg/gamba"
)

// Monitor is the liveness sweeper: a ticker goroutine that detaches
// players whose heartbeats went stale and reaps detached players whose
// reconnection window expired, forfeiting any game they abandoned.
type Monitor struct {
	cfg     *Config
	players *PlayerRegistry
	rooms   *RoomRegistry
	disp    *dispatcher
	log     slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool

	quit chan struct{}
	done chan struct{}
}

func NewMonitor(cfg *Config, players *PlayerRegistry, rooms *RoomRegistry, disp *dispatcher, log slog.Logger) *Monitor {
	return &Monitor{
		cfg:     cfg,
		players: players,
		rooms:   rooms,
		disp:    disp,
		log:     log,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the sweep loop. A monitor starts at most once.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	go m.loop()
}

// Stop ends the loop and waits out any sweep in flight. Safe to call
// more than once, or without Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	started, stopped := m.started, m.stopped
	m.stopped = true
	m.mu.Unlock()

	if !stopped {
		close(m.quit)
	}
	if started {
		<-m.done
	}
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.HeartbeatCheckInterval)
	defer ticker.Stop()

	m.log.Infof("liveness monitor running (interval %v, ping timeout %v, cleanup threshold %v)",
		m.cfg.HeartbeatCheckInterval, m.cfg.PlayerTimeout, m.cfg.CleanupThreshold)
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.quit:
			return
		}
	}
}

// sweep runs both liveness passes. Registry scans run under the registry
// locks; every frame goes out after the locks are back down.
func (m *Monitor) sweep() {
	var frames []outbound

	for _, name := range m.players.ScanTimedOut(m.cfg.PlayerTimeout) {
		roomID := m.players.RoomOf(name)
		m.players.Detach(name)
		m.log.Infof("player %s timed out, no ping in %v", name, m.cfg.PlayerTimeout)
		if roomID != "" {
			frames = append(frames, disconnectNotices(m.rooms, roomID, name, "timed_out")...)
		}
	}

	for _, victim := range m.players.ScanExpiredDetached(m.cfg.CleanupThreshold) {
		frames = append(frames, m.reap(victim)...)
	}

	m.disp.dispatch(nil, "", frames)
	m.logStats()
}

// reap removes one player whose reconnection window ran out. Abandoning a
// live game hands the remaining seat the win and tears the room down; a
// waiting room just loses the seat.
func (m *Monitor) reap(victim string) []outbound {
	var frames []outbound

	if roomID := m.players.RoomOf(victim); roomID != "" {
		var survivor string
		var active bool
		m.rooms.WithRoom(roomID, func(room *Room) {
			if room == nil {
				return
			}
			active = room.game.Phase() == gamba.PhasePlaying
			survivor = room.Opponent(victim)
		})
		if active && survivor != "" {
			frames = gameOverFrames([]string{survivor}, roomID, survivor, "opponent_disconnect")
			m.players.ClearRoom(survivor)
			m.rooms.DeleteRoom(roomID)
			m.log.Infof("room %s: %s wins by forfeit, %s never came back", roomID, survivor, victim)
		} else {
			m.rooms.LeaveRoom(victim, roomID)
		}
	}

	m.players.ClearRoom(victim)
	m.players.Remove(victim)
	m.log.Infof("player %s removed, reconnection window expired", victim)
	return frames
}

// logStats emits a debug snapshot of registry sizes and process usage
// after each sweep.
func (m *Monitor) logStats() {
	if m.log.Level() > slog.LevelDebug {
		return
	}
	attached, detached := m.players.Counts()
	m.log.Debugf("sweep done: %d attached, %d detached, %d rooms",
		attached, detached, m.rooms.Count())

	// /proc is linux-only; elsewhere these reads fail and are skipped.
	proc, err := procfs.Self()
	if err != nil {
		return
	}
	if stat, err := proc.Stat(); err == nil {
		m.log.Debugf("process rss: %d KiB", stat.ResidentMemory()/1024)
	}
	if fds, err := proc.FileDescriptorsLen(); err == nil {
		m.log.Debugf("process fds: %d open", fds)
	}
}
