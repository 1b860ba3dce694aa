package internal

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineLogging(t *testing.T) {
	t.Run("logs listener failures with event fields", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)

		tree := newFakeTree()
		r := NewEngine(tree, Config{Logger: log})

		require.NoError(t, r.Registry().Add(1, "click", NewHandler(func(*Event) error {
			return errors.New("nope")
		}).Named("failing"), Options{}))

		ev := NewEvent("click", EventInit{})
		_, err := r.Dispatch(ev, 1, DispatchOptions{})
		require.NoError(t, err)

		var failure *logrus.Entry
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.ErrorLevel {
				failure = entry
			}
		}
		require.NotNil(t, failure)

		assert.Equal(t, "uncaught listener error", failure.Message)
		assert.Equal(t, ev.ID(), failure.Data["event"])
		assert.Equal(t, "click", failure.Data["type"])
		assert.Equal(t, NodeID(1), failure.Data["node"])
		assert.Equal(t, "target", failure.Data["phase"])
		assert.Equal(t, "failing", failure.Data["listener"])
		assert.Equal(t, 0, failure.Data["boundary"])

		assert.Equal(t, "dispatch start", hook.AllEntries()[0].Message)
		assert.Equal(t, "dispatch end", hook.LastEntry().Message)
	})
}

func TestEngineDrain(t *testing.T) {
	t.Run("is a no-op from inside a turn", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		r := NewEngine(newFakeTree(), Config{Logger: log})

		nested := -1
		r.Scheduler().Schedule(func() {
			r.Scheduler().Schedule(func() {})
			nested, _ = r.Drain()
		})

		total, err := r.Drain()
		require.NoError(t, err)

		assert.Equal(t, 0, nested)
		assert.Equal(t, 2, total)
		assert.Equal(t, 0, r.Pending())
		for _, entry := range hook.AllEntries() {
			assert.NotEqual(t, logrus.WarnLevel, entry.Level)
		}
	})

	t.Run("logs completed turns", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)
		r := NewEngine(newFakeTree(), Config{Logger: log})

		r.Scheduler().Schedule(func() {})
		n, err := r.Tick()
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "turn done", hook.LastEntry().Message)
		assert.Equal(t, 1, hook.LastEntry().Data["turn"])
	})
}

func TestStack(t *testing.T) {
	t.Run("completes once the outermost frame pops", func(t *testing.T) {
		log := []string{}
		s := NewStack()

		outer := &Frame{Event: NewEvent("a", EventInit{})}
		inner := &Frame{Event: NewEvent("b", EventInit{})}

		s.Run(outer, func() {
			s.Run(inner, func() {
				assert.Equal(t, 2, s.Depth())
				assert.Same(t, inner, s.Top())
				assert.Same(t, outer, s.Pending("a"))
				assert.Nil(t, s.Pending("c"))
				log = append(log, "inner")
			}, func() { log = append(log, "complete") })
			log = append(log, "outer")
		}, func() { log = append(log, "complete") })

		assert.Equal(t, []string{"inner", "outer", "complete"}, log)
		assert.False(t, s.IsDispatching())
	})

	t.Run("pops on panic", func(t *testing.T) {
		s := NewStack()

		assert.Panics(t, func() {
			s.Run(&Frame{Event: NewEvent("a", EventInit{})}, func() { panic("x") }, nil)
		})
		assert.Equal(t, 0, s.Depth())
	})
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	f := &Frame{}
	l := &Listener{}

	tr.RunWithListener(f, l, func() {
		assert.Same(t, f, tr.CurrentFrame())
		assert.Same(t, l, tr.CurrentListener())
	})

	assert.Nil(t, tr.CurrentFrame())
	assert.Nil(t, tr.CurrentListener())
}
