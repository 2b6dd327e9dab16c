package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pbnjay/memory"

	"github.com/vctt94/gambaserver/pkg/logging"
	"github.com/vctt94/gambaserver/pkg/server"
)

func main() {
	var (
		configPath string
		ip         string
		port       int
		debugLevel string
		seed       int64
	)
	flag.StringVar(&configPath, "config", "gambasrv.conf", "Path to key = value config file (missing file keeps defaults)")
	flag.StringVar(&ip, "ip", "", "Bind address (overrides config file)")
	flag.IntVar(&port, "port", 0, "Port to listen on (overrides config file)")
	flag.StringVar(&debugLevel, "debuglevel", "", "Logging level: trace, debug, info, warn, error, critical")
	flag.Int64Var(&seed, "seed", 0, "Deterministic deck seed (0 = random deal per room)")
	flag.Parse()

	// Config file first, flags on top.
	cfg, warnings, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if ip != "" {
		cfg.IP = ip
	}
	if port != 0 {
		cfg.Port = port
	}
	if debugLevel != "" {
		cfg.DebugLevel = debugLevel
	}
	if seed == 0 {
		// GAMBA_SEED applies only when the flag is unset.
		if env := os.Getenv("GAMBA_SEED"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				seed = v
			}
		}
	}
	cfg.DeckSeed = seed
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "bad config: %v\n", err)
		os.Exit(1)
	}

	// Logging backend
	logFile := ""
	if cfg.EnableFileLogging {
		logFile = cfg.LogFile
	}
	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:    logFile,
		DebugLevel: cfg.DebugLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logBackend.Close()

	log := logBackend.Logger("SRVR")
	for _, w := range warnings {
		log.Warnf("config: %s", w)
	}
	log.Infof("gambasrv starting on %s (max %d rooms, ping timeout %v, reconnect window %v)",
		cfg.Address(), cfg.MaxRooms, cfg.PlayerTimeout, cfg.CleanupThreshold)
	log.Infof("host memory: %d MB total", memory.TotalMemory()/1024/1024)
	if seed != 0 {
		log.Infof("decks seeded with %d, deals are reproducible", seed)
	}

	srv := server.NewServer(cfg, logBackend)
	if err := srv.Listen(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %v, shutting down", sig)
		srv.Shutdown()
	case err := <-errCh:
		if err != nil {
			log.Errorf("serve: %v", err)
			srv.Shutdown()
			logBackend.Close()
			os.Exit(1)
		}
	}
}
