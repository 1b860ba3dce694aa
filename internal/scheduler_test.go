package internal

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnQueue(t *testing.T) {
	t.Run("runs a snapshot per tick", func(t *testing.T) {
		log := []string{}
		q := NewTurnQueue()

		q.Post(func() {
			log = append(log, "a")
			q.Post(func() { log = append(log, "c") })
		})
		q.Post(func() { log = append(log, "b") })

		assert.Equal(t, 2, q.Tick())
		assert.Equal(t, []string{"a", "b"}, log)
		assert.Equal(t, 1, q.Len())

		assert.Equal(t, 1, q.Tick())
		assert.Equal(t, []string{"a", "b", "c"}, log)
		assert.Equal(t, 2, q.Turns())

		assert.Equal(t, 0, q.Tick())
	})

	t.Run("reentrant ticks are ignored", func(t *testing.T) {
		q := NewTurnQueue()

		nested := -1
		q.Post(func() {
			assert.True(t, q.Running())
			q.Post(func() {})
			nested = q.Tick()
		})

		q.Tick()

		assert.False(t, q.Running())
		assert.Equal(t, 0, nested)
		assert.Equal(t, 1, q.Len())
	})
}

func newTestScheduler() (*Scheduler, *TurnQueue, *Registry) {
	q := NewTurnQueue()
	r := NewRegistry(nil)
	log := logrus.New()
	log.SetOutput(io.Discard)
	c := NewCatcher(log)

	return NewScheduler(q, r, c), q, r
}

func TestScheduler(t *testing.T) {
	t.Run("installs one race listener per type", func(t *testing.T) {
		s, q, r := newTestScheduler()

		task := s.Schedule(func() {}, "b", "a", "b")

		assert.Equal(t, []string{"a", "b"}, task.Races())
		require.Len(t, r.Listeners(Window, "a", PhaseCapture), 1)

		l := r.Listeners(Window, "a", PhaseCapture)[0]
		assert.True(t, l.Options.Unstoppable)
		assert.Same(t, task.race, l.Handler)

		q.Tick()

		assert.Equal(t, 0, r.Count(Window, "a"))
		assert.Equal(t, 0, r.Count(Window, "b"))
	})

	t.Run("cancelled tasks don't run on their turn", func(t *testing.T) {
		s, q, _ := newTestScheduler()

		ran := false
		s.Schedule(func() { ran = true }).Cancel()

		assert.Equal(t, 1, q.Tick())
		assert.False(t, ran)
	})

	t.Run("tasks are distinct per schedule", func(t *testing.T) {
		s, _, r := newTestScheduler()

		a := s.Schedule(func() {}, "x")
		b := s.Schedule(func() {}, "x")

		assert.NotEqual(t, a.ID(), b.ID())
		assert.Equal(t, 2, r.Count(Window, "x"))

		a.Cancel()
		assert.Equal(t, 1, r.Count(Window, "x"))
		assert.True(t, b.Active())
	})

	t.Run("failed exclusive reuse cancels the task", func(t *testing.T) {
		s, _, _ := newTestScheduler()

		_, err := s.ScheduleExclusive(func() {}, "drag")
		require.NoError(t, err)

		other, err := s.ScheduleExclusive(func() {}, "drop")
		require.NoError(t, err)

		assert.ErrorIs(t, other.Reuse(func() {}, "drag"), ErrRaceConflict)
		assert.False(t, other.Active())
	})
}
