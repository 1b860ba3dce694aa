package internal

type Tracker struct {
	currentFrame    *Frame    // the dispatch the running listener belongs to
	currentListener *Listener // the listener being invoked
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) RunWithListener(frame *Frame, l *Listener, fn func()) {
	prevFrame := t.currentFrame
	prevListener := t.currentListener

	t.currentFrame = frame
	t.currentListener = l

	defer func() {
		t.currentFrame = prevFrame
		t.currentListener = prevListener
	}()

	fn()
}

func (t *Tracker) CurrentFrame() *Frame {
	return t.currentFrame
}

func (t *Tracker) CurrentListener() *Listener {
	return t.currentListener
}
