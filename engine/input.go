package engine

// Input delivers the semantic control signals the experiment reacts
// to. Poll drains pending device events and latches signals until
// ClearSignals; the core never sees key codes.
type Input interface {
	Poll()
	CancelRequested() bool
	ContinueRequested() bool
	RecalibrateRequested() bool
	ClearSignals()
}
