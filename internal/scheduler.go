package internal

import (
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type taskState int

const (
	taskPending taskState = iota
	taskDone
	taskCancelled
)

// Task is a deferred callback. It runs on a later host turn unless one of its
// race event types reaches the window first.
type Task struct {
	id    uuid.UUID
	fn    func()
	races []string
	state taskState

	// exclusive tasks own their race types
	exclusive bool

	// capture listener installed on Window for each race type
	race *Handler

	scheduler *Scheduler
}

func (t *Task) ID() uuid.UUID {
	return t.id
}

func (t *Task) Races() []string {
	return slices.Clone(t.races)
}

// Active reports whether the task is still waiting for its turn.
func (t *Task) Active() bool {
	return t.state == taskPending
}

// Cancel stops the task from running. Cancelling twice is a no-op.
func (t *Task) Cancel() {
	if t.state != taskPending {
		return
	}

	t.state = taskCancelled
	t.scheduler.disarm(t)
}

// Reuse swaps the callback and race types of a pending task, keeping its turn.
func (t *Task) Reuse(fn func(), races ...string) error {
	if t.state != taskPending {
		return errors.Wrapf(ErrTaskSpent, "task %s", t.id)
	}

	t.scheduler.disarm(t)
	t.fn = fn

	if err := t.scheduler.arm(t, races); err != nil {
		// the old race set is gone, don't leave the task half armed
		t.state = taskCancelled
		return err
	}

	return nil
}

func (t *Task) run() {
	if t.state != taskPending {
		return
	}

	t.state = taskDone
	t.scheduler.disarm(t)

	if t.fn == nil {
		return
	}

	if err := t.scheduler.catcher.Run(func() error { t.fn(); return nil }); err != nil {
		t.scheduler.catcher.Report(errors.Wrapf(err, "task %s", t.id))
	}
}

type Scheduler struct {
	host     Host
	registry *Registry
	catcher  *Catcher

	// race type -> exclusive task holding it
	exclusive map[string]*Task
}

func NewScheduler(host Host, registry *Registry, catcher *Catcher) *Scheduler {
	return &Scheduler{
		host:      host,
		registry:  registry,
		catcher:   catcher,
		exclusive: make(map[string]*Task),
	}
}

// Schedule defers fn by one host turn. An event of any of the race types reaching
// the window before that turn cancels the task.
func (s *Scheduler) Schedule(fn func(), races ...string) *Task {
	t := s.newTask(fn, false)
	// arm only fails for exclusive tasks
	_ = s.arm(t, races)
	s.post(t)

	return t
}

// ScheduleExclusive is Schedule for tasks that must be the only one racing on their types.
func (s *Scheduler) ScheduleExclusive(fn func(), races ...string) (*Task, error) {
	t := s.newTask(fn, true)
	if err := s.arm(t, races); err != nil {
		return nil, err
	}
	s.post(t)

	return t, nil
}

func (s *Scheduler) newTask(fn func(), exclusive bool) *Task {
	t := &Task{
		id:        uuid.New(),
		fn:        fn,
		exclusive: exclusive,
		scheduler: s,
	}
	t.race = NewHandler(func(*Event) error {
		t.Cancel()
		return nil
	}).Named("race:" + t.id.String())

	return t
}

func (s *Scheduler) post(t *Task) {
	s.host.Post(t.run)
}

func (s *Scheduler) arm(t *Task, races []string) error {
	races = slices.Compact(slices.Sorted(slices.Values(races)))

	if t.exclusive {
		for _, typ := range races {
			if owner, ok := s.exclusive[typ]; ok && owner != t && owner.Active() {
				return errors.Wrapf(ErrRaceConflict, "type %q held by task %s", typ, owner.id)
			}
		}
		for _, typ := range races {
			s.exclusive[typ] = t
		}
	}

	opts := Options{Capture: true, Unstoppable: true}
	for _, typ := range races {
		// the handler is unique to the task and the options are valid, Add can't fail
		_ = s.registry.Add(Window, typ, t.race, opts)
	}
	t.races = races

	return nil
}

func (s *Scheduler) disarm(t *Task) {
	for _, typ := range t.races {
		s.registry.Remove(Window, typ, t.race, true)

		if t.exclusive && s.exclusive[typ] == t {
			delete(s.exclusive, typ)
		}
	}
	t.races = nil
}
