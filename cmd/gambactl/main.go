package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/vctt94/gambaserver/pkg/logging"
	"github.com/vctt94/gambaserver/pkg/protocol"
)

var (
	addr       = flag.String("addr", "127.0.0.1:8080", "Server address to dial")
	name       = flag.String("name", "", "Send CONNECT with this player name after dialing")
	script     = flag.String("script", "", "Semicolon-separated frames to send after connecting")
	pingEvery  = flag.Duration("ping", 0, "Send PING at this interval to stay attached (0 = off)")
	debugLevel = flag.String("debuglevel", "info", "Logging level: trace, debug, info, warn, error, critical")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Dials a gambasrv instance and bridges stdin to the wire. Lines you type")
		fmt.Fprintln(os.Stderr, "are sent as frames; server frames are printed back decoded. Examples:")
		fmt.Fprintln(os.Stderr, "  0|||name=Alice        connect")
		fmt.Fprintln(os.Stderr, "  2|||                  join any room")
		fmt.Fprintln(os.Stderr, "  7|||cards=2H          play the two of hearts")
		fmt.Fprintln(os.Stderr, "  7|||cards=RESERVE     flip a reserve card blind")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: *debugLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer logBackend.Close()
	log := logBackend.Logger("GCTL")

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	log.Infof("connected to %s", *addr)

	// Print everything the server says, decoded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			msg, err := protocol.Parse(line)
			if err != nil {
				log.Warnf("unparseable frame %q: %v", line, err)
				continue
			}
			fmt.Printf("<- %s %s\n", msg.Type, line)
		}
		log.Infof("server closed the connection")
	}()

	send := func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" {
			return true
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			log.Errorf("send: %v", err)
			return false
		}
		fmt.Printf("-> %s\n", line)
		return true
	}

	if *name != "" {
		send(protocol.NewMessage(protocol.MsgConnect).Set("name", *name).Serialize())
	}
	for _, part := range strings.Split(*script, ";") {
		if !send(part) {
			return
		}
	}

	// Background keepalive so long probes survive the ping timeout.
	if *pingEvery > 0 {
		go func() {
			ticker := time.NewTicker(*pingEvery)
			defer ticker.Stop()
			ping := protocol.NewMessage(protocol.MsgPing).Serialize()
			for {
				select {
				case <-ticker.C:
					if _, err := fmt.Fprintf(conn, "%s\n", ping); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()
	}

	stdin := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			stdin <- scanner.Text()
		}
		close(stdin)
	}()

	for {
		select {
		case line, ok := <-stdin:
			if !ok {
				// Scripted runs: give trailing replies a moment to land.
				select {
				case <-done:
				case <-time.After(time.Second):
				}
				return
			}
			if !send(line) {
				return
			}
		case <-done:
			return
		}
	}
}
