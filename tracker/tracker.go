// Package tracker implements the recording-control links the
// experiment drives: an EyeLink-style TCP client, a DLP-IO8-G TTL
// trigger, a dummy link and a fan-out combining several links.
package tracker

import "fmt"

const (
	trialOK    = 0
	trialError = -1
)

// Link is the recording-control surface a tracker device exposes.
type Link interface {
	StartTrial(trialNumber int) error
	EndTrial(trialNumber int) error
	AbortTrial() error
	SendMarker(text string) error
	EndSession() error
}

// Dummy satisfies the link without any hardware. It records every
// message it would have sent, which also makes it the test double
// for session logic.
type Dummy struct {
	Messages []string
	Ended    bool
}

func NewDummy() *Dummy { return &Dummy{} }

func (d *Dummy) record(format string, args ...any) {
	d.Messages = append(d.Messages, fmt.Sprintf(format, args...))
}

func (d *Dummy) StartTrial(trialNumber int) error {
	d.record("TRIALID %d", trialNumber)
	d.record("%d: TARGET_ONSET", trialNumber)
	return nil
}

func (d *Dummy) EndTrial(trialNumber int) error {
	d.record("%d: TARGET_OFFSET", trialNumber)
	d.record("%d: TRIAL_RESULT %d", trialNumber, trialOK)
	return nil
}

func (d *Dummy) AbortTrial() error {
	d.record("TRIAL_RESULT %d", trialError)
	return nil
}

func (d *Dummy) SendMarker(text string) error {
	d.record("%s", text)
	return nil
}

func (d *Dummy) EndSession() error {
	d.Ended = true
	return nil
}

func (d *Dummy) Calibrate() error { return nil }
