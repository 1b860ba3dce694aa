package internal

import "github.com/pkg/errors"

type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

func (p Phase) String() string {
	switch p {
	case PhaseCapture:
		return "capture"
	case PhaseTarget:
		return "target"
	case PhaseBubble:
		return "bubble"
	default:
		return "none"
	}
}

// Options configures a listener registration.
type Options struct {
	// Capture registers the listener for the capture phase instead of the bubble phase.
	Capture bool

	// Once removes the listener before its first invocation.
	Once bool

	// First runs the listener before every other listener on its node. Capture only.
	First bool

	// Last runs the listener after every other listener on its node. Bubble only.
	Last bool

	// Unstoppable ignores stopPropagation and stopImmediatePropagation.
	Unstoppable bool

	// Scoped only honours stops issued in the listener's own boundary.
	Scoped bool
}

// Validate rejects illegal option combinations.
func (o Options) Validate() error {
	switch {
	case o.First && !o.Capture:
		return errors.Wrap(ErrInvalidOptions, "first requires capture")
	case o.Last && o.Capture:
		return errors.Wrap(ErrInvalidOptions, "last requires bubble")
	case o.First && o.Last:
		return errors.Wrap(ErrInvalidOptions, "first and last are exclusive")
	case o.Unstoppable && o.Scoped:
		return errors.Wrap(ErrInvalidOptions, "unstoppable and scoped are exclusive")
	}

	return nil
}

func (o Options) phase() Phase {
	if o.Capture {
		return PhaseCapture
	}

	return PhaseBubble
}
