package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the read-only settings record shared by the acceptor, the
// session handlers and the liveness monitor.
type Config struct {
	// IP and Port form the TCP bind address.
	IP   string
	Port int

	// MaxRooms caps how many rooms may exist at once.
	MaxRooms int

	// MaxPlayersPerRoom is fixed at 2; rooms seat exactly one pair.
	MaxPlayersPerRoom int

	// PlayerTimeout is how stale a player's last ping may grow before the
	// liveness monitor detaches them.
	PlayerTimeout time.Duration

	// HeartbeatCheckInterval is the liveness monitor's scan period.
	HeartbeatCheckInterval time.Duration

	// CleanupThreshold is the reconnection window: how long a detached
	// player is kept before removal.
	CleanupThreshold time.Duration

	// InvalidMessageLimit closes a connection after this many consecutive
	// invalid frames.
	InvalidMessageLimit int

	// LogFile and EnableFileLogging control the rotating log sink.
	LogFile           string
	EnableFileLogging bool

	// DebugLevel is the logging verbosity. Set by flag, not by file.
	DebugLevel string

	// DeckSeed, when nonzero, seeds every room's deck shuffle for
	// reproducible games. Set by flag, not by file.
	DeckSeed int64
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		IP:                     "127.0.0.1",
		Port:                   8080,
		MaxRooms:               10,
		MaxPlayersPerRoom:      2,
		PlayerTimeout:          60 * time.Second,
		HeartbeatCheckInterval: 10 * time.Second,
		CleanupThreshold:       120 * time.Second,
		InvalidMessageLimit:    3,
		LogFile:                "logs/gambasrv.log",
		EnableFileLogging:      true,
		DebugLevel:             "info",
	}
}

// LoadConfig reads a key = value config file over the defaults. A missing
// file is not an error, the defaults stand. Unknown keys and out-of-range
// values never abort startup; they come back as warnings for the caller to
// log once the log backend exists.
func LoadConfig(path string) (*Config, []string, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, []string{fmt.Sprintf("config file %s not found, using defaults", path)}, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file %s: %v", path, err)
	}

	var warnings []string
	warnf := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	for key, value := range env {
		switch key {
		case "ip":
			cfg.IP = value
		case "port":
			if n, err := strconv.Atoi(value); err == nil && n > 0 && n <= 65535 {
				cfg.Port = n
			} else {
				warnf("invalid port %q, keeping %d", value, cfg.Port)
			}
		case "max_rooms":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.MaxRooms = n
			} else {
				warnf("invalid max_rooms %q, keeping %d", value, cfg.MaxRooms)
			}
		case "max_players_per_room":
			if n, err := strconv.Atoi(value); err != nil || n != 2 {
				warnf("max_players_per_room %q unsupported, rooms seat exactly 2", value)
			}
		case "player_timeout_seconds":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.PlayerTimeout = time.Duration(n) * time.Second
			} else {
				warnf("invalid player_timeout_seconds %q, keeping %v", value, cfg.PlayerTimeout)
			}
		case "heartbeat_check_interval":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.HeartbeatCheckInterval = time.Duration(n) * time.Second
			} else {
				warnf("invalid heartbeat_check_interval %q, keeping %v", value, cfg.HeartbeatCheckInterval)
			}
		case "cleanup_threshold_seconds":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.CleanupThreshold = time.Duration(n) * time.Second
			} else {
				warnf("invalid cleanup_threshold_seconds %q, keeping %v", value, cfg.CleanupThreshold)
			}
		case "invalid_message_limit":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.InvalidMessageLimit = n
			} else {
				warnf("invalid invalid_message_limit %q, keeping %d", value, cfg.InvalidMessageLimit)
			}
		case "log_file":
			cfg.LogFile = value
		case "enable_file_logging":
			switch strings.ToLower(value) {
			case "yes":
				cfg.EnableFileLogging = true
			case "no":
				cfg.EnableFileLogging = false
			default:
				if b, err := strconv.ParseBool(value); err == nil {
					cfg.EnableFileLogging = b
				} else {
					warnf("invalid enable_file_logging %q, keeping %v", value, cfg.EnableFileLogging)
				}
			}
		default:
			warnf("unknown config key %q", key)
		}
	}

	return cfg, warnings, nil
}

// Validate checks the fields a bad flag or file could have corrupted.
func (c *Config) Validate() error {
	if net.ParseIP(c.IP) == nil {
		return fmt.Errorf("invalid bind address %q", c.IP)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Address returns the host:port string to bind.
func (c *Config) Address() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}
