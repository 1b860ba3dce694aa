package internal

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// drainLimit bounds Drain so a task that reschedules itself can't spin forever.
const drainLimit = 10000

type Config struct {
	Logger logrus.FieldLogger

	// Host receives deferred ticks. Nil means an internal TurnQueue advanced by Tick.
	Host Host

	Now func() time.Time
}

type Engine struct {
	tree Tree

	registry  *Registry
	stack     *Stack
	tracker   *Tracker
	catcher   *Catcher
	scheduler *Scheduler
	queue     *TurnQueue // nil when an external host is used

	log   logrus.FieldLogger
	now   func() time.Time
	owner int64
}

func NewEngine(tree Tree, cfg Config) *Engine {
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Engine{
		tree:    tree,
		stack:   NewStack(),
		tracker: NewTracker(),
		catcher: NewCatcher(cfg.Logger),
		log:     cfg.Logger,
		now:     cfg.Now,
		owner:   goroutineID(),
	}
	r.registry = NewRegistry(r.stack.IsDispatching)

	host := cfg.Host
	if host == nil {
		r.queue = NewTurnQueue()
		host = r.queue
	}
	r.scheduler = NewScheduler(host, r.registry, r.catcher)

	return r
}

// Owned returns ErrWrongGoroutine when called outside of the owning goroutine.
func (r *Engine) Owned() error {
	if gid := goroutineID(); gid != r.owner {
		return errors.Wrapf(ErrWrongGoroutine, "owner %d, caller %d", r.owner, gid)
	}

	return nil
}

// Adopt makes the calling goroutine the owner of the engine.
func (r *Engine) Adopt() {
	r.owner = goroutineID()
}

func (r *Engine) Tree() Tree                 { return r.tree }
func (r *Engine) Registry() *Registry        { return r.registry }
func (r *Engine) Scheduler() *Scheduler      { return r.scheduler }
func (r *Engine) Depth() int                 { return r.stack.Depth() }
func (r *Engine) Logger() logrus.FieldLogger { return r.log }
func (r *Engine) CurrentListener() *Listener { return r.tracker.CurrentListener() }
func (r *Engine) OnError(fn func(error))     { r.catcher.OnError(fn) }
func (r *Engine) Plan(target NodeID, opts PathOptions) Plan {
	return BuildPlan(r.tree, target, opts)
}

// Tick runs one turn of the internal queue and returns the number of callbacks run.
func (r *Engine) Tick() (int, error) {
	if err := r.Owned(); err != nil {
		return 0, err
	}
	if r.queue == nil {
		return 0, nil
	}

	n := r.queue.Tick()
	if n > 0 {
		r.log.WithFields(logrus.Fields{"turn": r.queue.Turns(), "ran": n}).Debug("turn done")
	}

	return n, nil
}

// Drain ticks until the internal queue is empty. Called from inside a turn it does
// nothing: the running turn has to finish first.
func (r *Engine) Drain() (int, error) {
	if err := r.Owned(); err != nil {
		return 0, err
	}
	if r.queue == nil || r.queue.Running() {
		return 0, nil
	}

	total := 0
	for turns := 0; r.queue.Len() > 0; turns++ {
		if turns >= drainLimit {
			r.log.WithFields(logrus.Fields{
				"pending": r.queue.Len(),
				"turn":    r.queue.Turns(),
			}).Warn("drain limit reached, tasks keep rescheduling")
			break
		}
		total += r.queue.Tick()
	}

	if total > 0 {
		r.log.WithFields(logrus.Fields{"turn": r.queue.Turns(), "ran": total}).Debug("drained")
	}

	return total, nil
}

// Pending returns the number of callbacks waiting in the internal queue.
func (r *Engine) Pending() int {
	if r.queue == nil {
		return 0
	}

	return r.queue.Len()
}
