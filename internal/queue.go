package internal

// Host runs posted callbacks on a later turn of its task queue.
type Host interface {
	Post(fn func())
}

// TurnQueue is the default host: a FIFO advanced explicitly, one turn per Tick.
type TurnQueue struct {
	callbacks []func()

	// number of completed turns
	turns int

	running bool
}

func NewTurnQueue() *TurnQueue {
	return &TurnQueue{
		callbacks: make([]func(), 0),
	}
}

func (q *TurnQueue) Post(fn func()) {
	q.callbacks = append(q.callbacks, fn)
}

// Tick runs the callbacks queued before the turn started.
// Callbacks posted during the turn wait for the next one.
func (q *TurnQueue) Tick() int {
	if q.running || len(q.callbacks) == 0 {
		return 0
	}

	callbacks := q.callbacks
	q.callbacks = make([]func(), 0)

	q.running = true
	defer func() {
		q.running = false
		q.turns++
	}()

	for _, cb := range callbacks {
		cb()
	}

	return len(callbacks)
}

func (q *TurnQueue) Len() int {
	return len(q.callbacks)
}

// Running reports whether a turn is in progress.
func (q *TurnQueue) Running() bool {
	return q.running
}

// Turns returns the number of completed turns.
func (q *TurnQueue) Turns() int {
	return q.turns
}
