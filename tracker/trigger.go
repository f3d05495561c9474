package tracker

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

const markerPulse = 5 * time.Millisecond

// Trigger drives a DLP-IO8-G USB module so the recording carries TTL
// copies of the protocol events: line 1 is high while a trial is
// recording, line 2 pulses for every marker.
type Trigger struct {
	port  serial.Port
	pulse time.Duration
}

// OpenTrigger opens the serial device, pings it and switches it to
// binary mode.
func OpenTrigger(device string, baudrate int) (*Trigger, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}

	t := newTrigger(port)
	if !t.Ping() {
		port.Close()
		return nil, fmt.Errorf("tracker: trigger device %s did not respond to ping", device)
	}
	if _, err := port.Write([]byte{0x5C}); err != nil {
		port.Close()
		return nil, err
	}
	return t, nil
}

func newTrigger(port serial.Port) *Trigger {
	return &Trigger{port: port, pulse: markerPulse}
}

// Ping sends the 0x27 probe and expects the device's 'Q' reply.
func (t *Trigger) Ping() bool {
	if _, err := t.port.Write([]byte{0x27}); err != nil {
		return false
	}
	buf := make([]byte, 1)
	n, err := t.port.Read(buf)
	return err == nil && n == 1 && buf[0] == 'Q'
}

func (t *Trigger) set(lines string) error {
	_, err := t.port.Write([]byte(lines))
	return err
}

// unset translates line digits to the device's clear commands.
func (t *Trigger) unset(lines string) error {
	cmd := []byte(lines)
	for i := range cmd {
		switch cmd[i] {
		case '1':
			cmd[i] = 'Q'
		case '2':
			cmd[i] = 'W'
		case '3':
			cmd[i] = 'E'
		case '4':
			cmd[i] = 'R'
		case '5':
			cmd[i] = 'T'
		case '6':
			cmd[i] = 'Y'
		case '7':
			cmd[i] = 'U'
		case '8':
			cmd[i] = 'I'
		}
	}
	_, err := t.port.Write(cmd)
	return err
}

func (t *Trigger) StartTrial(trialNumber int) error {
	return t.set("1")
}

func (t *Trigger) EndTrial(trialNumber int) error {
	return t.unset("1")
}

func (t *Trigger) AbortTrial() error {
	return t.unset("1")
}

func (t *Trigger) SendMarker(text string) error {
	if err := t.set("2"); err != nil {
		return err
	}
	time.Sleep(t.pulse)
	return t.unset("2")
}

func (t *Trigger) EndSession() error {
	err := t.unset("12")
	if cerr := t.port.Close(); err == nil {
		err = cerr
	}
	return err
}
