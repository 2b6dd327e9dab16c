package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/gambaserver/pkg/logging"
	"github.com/vctt94/gambaserver/pkg/protocol"
)

// testDeckSeed fixes every room's shuffle so deals are reproducible.
const testDeckSeed = 7

func newTestServerCfg(t *testing.T, mut func(*Config)) *Server {
	t.Helper()

	cfg := DefaultConfig()
	cfg.EnableFileLogging = false
	cfg.DeckSeed = testDeckSeed
	if mut != nil {
		mut(cfg)
	}

	backend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: "off"})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return NewServer(cfg, backend)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerCfg(t, nil)
}

// testClient drives one end of a connection as a line-oriented client.
// net.Pipe is synchronous, so reads here must pair with writes happening
// on another goroutine.
type testClient struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
}

// newWire returns a server-side socket and the client holding the other
// end of the pipe.
func newWire(t *testing.T) (*socket, *testClient) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		serverSide.Close()
		clientSide.Close()
	})
	return newSocket(serverSide), &testClient{t: t, conn: clientSide, br: bufio.NewReader(clientSide)}
}

// readLine returns the next frame without its newline terminator.
func (c *testClient) readLine() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.br.ReadString('\n')
	require.NoError(c.t, err, "reading frame")
	return strings.TrimSuffix(line, "\n")
}

func (c *testClient) readMsg() *protocol.Message {
	c.t.Helper()
	msg, err := protocol.Parse(c.readLine())
	require.NoError(c.t, err, "parsing frame")
	return msg
}

func (c *testClient) send(line string) {
	c.t.Helper()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err, "writing %q", line)
}

// expectClosed asserts the server hung up on us.
func (c *testClient) expectClosed() {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := c.br.ReadString('\n')
	require.Error(c.t, err, "connection still open")
}

func TestServerLifecycle(t *testing.T) {
	srv := newTestServerCfg(t, func(cfg *Config) {
		cfg.Port = 0 // let the kernel pick
	})
	require.NoError(t, srv.Listen())
	require.NotNil(t, srv.Addr())

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	cl := &testClient{t: t, conn: conn, br: bufio.NewReader(conn)}

	cl.send("0|||name=Alice")
	assert.Equal(t, "100|Alice||name=Alice|status=success", cl.readLine())

	srv.Shutdown()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	cl.expectClosed()

	// A second Shutdown is a no-op.
	srv.Shutdown()
}

func TestServerAddrBeforeListen(t *testing.T) {
	srv := newTestServer(t)
	assert.Nil(t, srv.Addr())
}
