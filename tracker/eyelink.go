package tracker

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 5 * time.Second
	calibrateTimeout = 10 * time.Minute
)

// Config holds the connection parameters for an EyeLink-style host.
type Config struct {
	Address         string
	Filename        string
	DataPath        string
	SampleRate      int
	CalibrationType string
	ScreenWidth     int
	ScreenHeight    int
	Timeout         time.Duration
}

// EyeLink talks a line protocol to the tracker host PC: "CMD <text>"
// and "MSG <text>" requests, "OK" or "ERR <reason>" replies, and a
// "GET <file>" transfer for the recorded data file at session end.
type EyeLink struct {
	conn      net.Conn
	reader    *bufio.Reader
	cfg       Config
	recording bool
}

// Dial connects to the host, opens the data file and configures the
// recording: event and sample filters, sample rate, calibration type
// and the display pixel coordinates.
func Dial(cfg Config) (*EyeLink, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	conn, err := net.DialTimeout("tcp", cfg.Address, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("tracker: connect %s: %w", cfg.Address, err)
	}
	t := &EyeLink{conn: conn, reader: bufio.NewReader(conn), cfg: cfg}
	if err := t.configure(); err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *EyeLink) configure() error {
	steps := []struct {
		kind string
		text string
	}{
		{"CMD", fmt.Sprintf("open_data_file %s.EDF", t.cfg.Filename)},
		{"CMD", "set_offline_mode"},
		{"CMD", "file_event_filter = LEFT,RIGHT,FIXATION,SACCADE,BLINK,MESSAGE,BUTTON,INPUT"},
		{"CMD", "file_sample_data = LEFT,RIGHT,GAZE,HREF,RAW,AREA,HTARGET,GAZERES,BUTTON,STATUS,INPUT"},
		{"CMD", "link_event_filter = LEFT,RIGHT,FIXATION,SACCADE,BLINK,BUTTON,FIXUPDATE,INPUT"},
		{"CMD", "link_sample_data = LEFT,RIGHT,GAZE,GAZERES,AREA,HTARGET,STATUS,INPUT"},
		{"CMD", fmt.Sprintf("sample_rate %d", t.cfg.SampleRate)},
		{"CMD", fmt.Sprintf("calibration_type = %s", t.cfg.CalibrationType)},
		{"CMD", fmt.Sprintf("screen_pixel_coords = 0 0 %d %d", t.cfg.ScreenWidth-1, t.cfg.ScreenHeight-1)},
		{"MSG", fmt.Sprintf("DISPLAY_COORDS 0 0 %d %d", t.cfg.ScreenWidth-1, t.cfg.ScreenHeight-1)},
	}
	for _, s := range steps {
		if err := t.roundTrip(s.kind, s.text, t.cfg.Timeout); err != nil {
			return err
		}
	}
	return nil
}

func (t *EyeLink) roundTrip(kind, text string, timeout time.Duration) error {
	t.conn.SetDeadline(time.Now().Add(timeout))
	if _, err := fmt.Fprintf(t.conn, "%s %s\n", kind, text); err != nil {
		return fmt.Errorf("tracker: send %q: %w", text, err)
	}
	reply, err := t.reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("tracker: reply for %q: %w", text, err)
	}
	reply = strings.TrimSpace(reply)
	if reply != "OK" {
		return fmt.Errorf("tracker: %q rejected: %s", text, reply)
	}
	return nil
}

func (t *EyeLink) command(format string, args ...any) error {
	return t.roundTrip("CMD", fmt.Sprintf(format, args...), t.cfg.Timeout)
}

func (t *EyeLink) message(format string, args ...any) error {
	return t.roundTrip("MSG", fmt.Sprintf(format, args...), t.cfg.Timeout)
}

// Calibrate hands control to the tracker setup screen on the host.
// The operator runs the calibration there, so the reply can take
// minutes.
func (t *EyeLink) Calibrate() error {
	return t.roundTrip("CMD", "do_tracker_setup", calibrateTimeout)
}

func (t *EyeLink) StartTrial(trialNumber int) error {
	if err := t.command("set_offline_mode"); err != nil {
		return err
	}
	if err := t.message("TRIALID %d", trialNumber); err != nil {
		return err
	}
	if err := t.command("start_recording"); err != nil {
		return err
	}
	t.recording = true
	return t.message("%d: TARGET_ONSET", trialNumber)
}

func (t *EyeLink) EndTrial(trialNumber int) error {
	if err := t.message("%d: TARGET_OFFSET", trialNumber); err != nil {
		return err
	}
	if err := t.command("stop_recording"); err != nil {
		return err
	}
	t.recording = false
	return t.message("%d: TRIAL_RESULT %d", trialNumber, trialOK)
}

func (t *EyeLink) AbortTrial() error {
	if t.recording {
		if err := t.command("stop_recording"); err != nil {
			return err
		}
		t.recording = false
	}
	return t.message("TRIAL_RESULT %d", trialError)
}

func (t *EyeLink) SendMarker(text string) error {
	return t.message("%s", text)
}

// EndSession stops any active recording, closes the data file on the
// host, downloads it next to the session data and closes the link.
func (t *EyeLink) EndSession() error {
	defer t.conn.Close()

	if t.recording {
		if err := t.AbortTrial(); err != nil {
			return err
		}
	}
	if err := t.command("set_offline_mode"); err != nil {
		return err
	}
	if err := t.command("clear_screen 0"); err != nil {
		return err
	}
	if err := t.command("close_data_file"); err != nil {
		return err
	}
	return t.receiveDataFile()
}

func (t *EyeLink) receiveDataFile() error {
	name := t.cfg.Filename + ".EDF"
	t.conn.SetDeadline(time.Now().Add(t.cfg.Timeout))
	if _, err := fmt.Fprintf(t.conn, "GET %s\n", name); err != nil {
		return fmt.Errorf("tracker: request %s: %w", name, err)
	}
	reply, err := t.reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("tracker: reply for %s: %w", name, err)
	}
	fields := strings.Fields(strings.TrimSpace(reply))
	if len(fields) != 2 || fields[0] != "SIZE" {
		return fmt.Errorf("tracker: transfer of %s rejected: %s", name, strings.TrimSpace(reply))
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		return fmt.Errorf("tracker: bad transfer size %q", fields[1])
	}

	local := filepath.Join(t.cfg.DataPath, name)
	f, err := os.Create(local)
	if err != nil {
		return err
	}
	defer f.Close()

	t.conn.SetDeadline(time.Now().Add(t.cfg.Timeout + time.Duration(size/1024)*time.Millisecond))
	if _, err := io.CopyN(f, t.reader, size); err != nil {
		return fmt.Errorf("tracker: download %s: %w", name, err)
	}
	return nil
}
