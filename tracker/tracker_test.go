package tracker

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.bug.st/serial"
)

func TestDummyRecordsProtocol(t *testing.T) {
	d := NewDummy()
	require.NoError(t, d.StartTrial(3))
	require.NoError(t, d.EndTrial(3))
	require.NoError(t, d.EndSession())

	assert.Equal(t, []string{
		"TRIALID 3",
		"3: TARGET_ONSET",
		"3: TARGET_OFFSET",
		"3: TRIAL_RESULT 0",
	}, d.Messages)
	assert.True(t, d.Ended)
}

// fakeHost answers the line protocol on one end of a pipe, recording
// every request. Commands listed in reject get an ERR reply.
type fakeHost struct {
	conn     net.Conn
	requests []string
	reject   map[string]bool
	file     []byte
	done     chan struct{}
}

func newFakeHost(conn net.Conn) *fakeHost {
	h := &fakeHost{conn: conn, reject: map[string]bool{}, done: make(chan struct{})}
	go h.serve()
	return h
}

func (h *fakeHost) serve() {
	defer close(h.done)
	r := bufio.NewReader(h.conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		h.requests = append(h.requests, line)
		switch {
		case h.reject[line]:
			fmt.Fprintf(h.conn, "ERR busy\n")
		case strings.HasPrefix(line, "GET "):
			fmt.Fprintf(h.conn, "SIZE %d\n", len(h.file))
			h.conn.Write(h.file)
		default:
			fmt.Fprintf(h.conn, "OK\n")
		}
	}
}

func newTestLink(t *testing.T, dataPath string) (*EyeLink, *fakeHost) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	host := newFakeHost(server)
	link := &EyeLink{
		conn:   client,
		reader: bufio.NewReader(client),
		cfg: Config{
			Filename: "ab12cd34",
			DataPath: dataPath,
			Timeout:  time.Second,
		},
	}
	return link, host
}

func TestEyeLinkTrialProtocol(t *testing.T) {
	link, host := newTestLink(t, t.TempDir())

	require.NoError(t, link.StartTrial(7))
	require.NoError(t, link.EndTrial(7))
	link.conn.Close()
	<-host.done

	assert.Equal(t, []string{
		"CMD set_offline_mode",
		"MSG TRIALID 7",
		"CMD start_recording",
		"MSG 7: TARGET_ONSET",
		"MSG 7: TARGET_OFFSET",
		"CMD stop_recording",
		"MSG 7: TRIAL_RESULT 0",
	}, host.requests)
}

func TestEyeLinkRejectedCommand(t *testing.T) {
	link, host := newTestLink(t, t.TempDir())
	host.reject["CMD start_recording"] = true

	err := link.StartTrial(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.False(t, link.recording)
}

func TestEyeLinkAbortStopsRecording(t *testing.T) {
	link, host := newTestLink(t, t.TempDir())

	require.NoError(t, link.StartTrial(2))
	require.NoError(t, link.AbortTrial())
	link.conn.Close()
	<-host.done

	assert.Contains(t, host.requests, "MSG TRIAL_RESULT -1")
	n := 0
	for _, r := range host.requests {
		if r == "CMD stop_recording" {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestEyeLinkEndSessionDownloadsDataFile(t *testing.T) {
	dir := t.TempDir()
	link, host := newTestLink(t, dir)
	host.file = []byte("edf-payload")

	require.NoError(t, link.EndSession())
	<-host.done

	assert.Contains(t, host.requests, "CMD close_data_file")
	assert.Contains(t, host.requests, "GET ab12cd34.EDF")

	data, err := os.ReadFile(filepath.Join(dir, "ab12cd34.EDF"))
	require.NoError(t, err)
	assert.Equal(t, host.file, data)
}

// mockPort is an in-memory serial.Port recording writes.
type mockPort struct {
	written []byte
	reply   []byte
	closed  bool
}

func (m *mockPort) Break(time.Duration) error                            { return nil }
func (m *mockPort) Drain() error                                         { return nil }
func (m *mockPort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (m *mockPort) ResetInputBuffer() error                              { return nil }
func (m *mockPort) ResetOutputBuffer() error                             { return nil }
func (m *mockPort) SetDTR(bool) error                                    { return nil }
func (m *mockPort) SetMode(*serial.Mode) error                           { return nil }
func (m *mockPort) SetReadTimeout(time.Duration) error                   { return nil }
func (m *mockPort) SetRTS(bool) error                                    { return nil }

func (m *mockPort) Read(p []byte) (int, error) {
	n := copy(p, m.reply)
	m.reply = m.reply[n:]
	return n, nil
}

func (m *mockPort) Write(p []byte) (int, error) {
	m.written = append(m.written, p...)
	return len(p), nil
}

func (m *mockPort) Close() error {
	m.closed = true
	return nil
}

func TestTriggerLineCommands(t *testing.T) {
	port := &mockPort{}
	tr := newTrigger(port)
	tr.pulse = 0

	require.NoError(t, tr.StartTrial(1))
	require.NoError(t, tr.SendMarker("TARGET_ONSET"))
	require.NoError(t, tr.EndTrial(1))
	require.NoError(t, tr.EndSession())

	assert.Equal(t, []byte("12WQQW"), port.written)
	assert.True(t, port.closed)
}

func TestTriggerPing(t *testing.T) {
	port := &mockPort{reply: []byte{'Q'}}
	tr := newTrigger(port)
	assert.True(t, tr.Ping())
	assert.Equal(t, []byte{0x27}, port.written)

	assert.False(t, tr.Ping())
}

type failingLink struct{ Dummy }

func (f *failingLink) StartTrial(int) error { return errors.New("link down") }

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	a, b := NewDummy(), NewDummy()
	m := NewMulti(a, b)

	require.NoError(t, m.StartTrial(4))
	assert.Contains(t, a.Messages, "TRIALID 4")
	assert.Contains(t, b.Messages, "TRIALID 4")

	require.NoError(t, m.EndSession())
	assert.True(t, a.Ended)
	assert.True(t, b.Ended)

	bad := NewMulti(&failingLink{}, NewDummy())
	err := bad.StartTrial(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link down")
}
