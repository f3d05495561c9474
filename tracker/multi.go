package tracker

import "errors"

type calibrator interface {
	Calibrate() error
}

// Multi fans every link call out to several links, typically the
// EyeLink client plus the TTL trigger. Every link is called even
// when an earlier one fails; the errors are joined.
type Multi struct {
	links []Link
}

func NewMulti(links ...Link) *Multi {
	return &Multi{links: links}
}

func (m *Multi) each(f func(Link) error) error {
	var errs []error
	for _, l := range m.links {
		if err := f(l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) StartTrial(trialNumber int) error {
	return m.each(func(l Link) error { return l.StartTrial(trialNumber) })
}

func (m *Multi) EndTrial(trialNumber int) error {
	return m.each(func(l Link) error { return l.EndTrial(trialNumber) })
}

func (m *Multi) AbortTrial() error {
	return m.each(func(l Link) error { return l.AbortTrial() })
}

func (m *Multi) SendMarker(text string) error {
	return m.each(func(l Link) error { return l.SendMarker(text) })
}

func (m *Multi) EndSession() error {
	return m.each(func(l Link) error { return l.EndSession() })
}

// Calibrate runs on every link that supports it.
func (m *Multi) Calibrate() error {
	var errs []error
	for _, l := range m.links {
		if c, ok := l.(calibrator); ok {
			if err := c.Calibrate(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
