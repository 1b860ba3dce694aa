package bounce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAction(t *testing.T) {
	t.Run("inner claim wins over an outer bubble claim", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "outer", "inner")

		log := []string{}
		accepted := []bool{}
		claim := func(label string, node NodeID) *Handler {
			return Func(func(e *Event) {
				accepted = append(accepted, e.SetDefault(func(*Event) {
					log = append(log, label)
				}, node))
			})
		}

		require.NoError(t, engine.Listen(ids[2], "click", claim("inner", ids[2]), Options{}))
		require.NoError(t, engine.Listen(ids[1], "click", claim("outer", ids[1]), Options{}))

		prevented, err := engine.Dispatch(NewEvent("click", EventInit{Bubbles: true}), ids[2])
		require.NoError(t, err)
		assert.True(t, prevented)
		assert.Equal(t, []bool{true, false}, accepted)

		assert.Empty(t, log)
		_, err = engine.Drain()
		require.NoError(t, err)

		assert.Equal(t, []string{"inner"}, log)
	})

	t.Run("inner claim replaces an outer capture claim", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "outer", "inner")

		log := []string{}
		ev := NewEvent("click", EventInit{Bubbles: true})

		require.NoError(t, engine.Listen(ids[1], "click", Func(func(e *Event) {
			assert.True(t, e.SetDefault(func(*Event) { log = append(log, "outer") }, ids[1]))
		}), Options{Capture: true}))
		require.NoError(t, engine.Listen(ids[2], "click", Func(func(e *Event) {
			assert.True(t, e.SetDefault(func(*Event) { log = append(log, "inner") }, ids[2]))
		}), Options{}))

		_, err := engine.Dispatch(ev, ids[2])
		require.NoError(t, err)

		assert.Equal(t, ids[2], ev.DefaultAction().Claimer())
		assert.Equal(t, 1, engine.Pending())

		_, err = engine.Drain()
		require.NoError(t, err)

		assert.Equal(t, []string{"inner"}, log)
		assert.True(t, ev.DefaultAction().Done())
	})

	t.Run("unrelated claimers are rejected", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "a")
		other := tr.Node("b")
		require.NoError(t, tr.Append(ids[0], other))

		accepted := []bool{}
		require.NoError(t, engine.Listen(ids[1], "click", Func(func(e *Event) {
			accepted = append(accepted, e.SetDefault(func(*Event) {}, ids[1]))
			accepted = append(accepted, e.SetDefault(func(*Event) {}, other))
		}), Options{}))

		_, err := engine.Dispatch(NewEvent("click", EventInit{}), ids[1])
		require.NoError(t, err)

		assert.Equal(t, []bool{true, false}, accepted)
	})

	t.Run("prevent default cancels the pending action", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "outer", "inner")

		log := []string{}
		ev := NewEvent("click", EventInit{Bubbles: true})

		require.NoError(t, engine.Listen(ids[2], "click", Func(func(e *Event) {
			e.SetDefault(func(*Event) { log = append(log, "inner") }, ids[2])
		}), Options{}))
		require.NoError(t, engine.Listen(ids[1], "click", Func(func(e *Event) {
			e.PreventDefault()
		}), Options{}))

		prevented, err := engine.Dispatch(ev, ids[2])
		require.NoError(t, err)
		assert.True(t, prevented)
		assert.False(t, ev.DefaultAction().Pending())

		_, err = engine.Drain()
		require.NoError(t, err)

		assert.Empty(t, log)
		assert.False(t, ev.DefaultAction().Done())
	})

	t.Run("claims after prevent default are rejected", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "inner")

		var accepted bool
		require.NoError(t, engine.Listen(ids[0], "click", Func(func(e *Event) {
			e.PreventDefault()
		}), Options{Capture: true}))
		require.NoError(t, engine.Listen(ids[1], "click", Func(func(e *Event) {
			accepted = e.SetDefault(func(*Event) {}, ids[1])
		}), Options{}))

		prevented, err := engine.Dispatch(NewEvent("click", EventInit{}), ids[1])
		require.NoError(t, err)

		assert.True(t, prevented)
		assert.False(t, accepted)
		assert.Equal(t, 0, engine.Pending())
	})

	t.Run("prevent default after the action ran is a no-op", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc")

		ran := 0
		ev := NewEvent("click", EventInit{})
		require.NoError(t, engine.Listen(ids[0], "click", Func(func(e *Event) {
			e.SetDefault(func(*Event) { ran++ }, ids[0])
		}), Options{}))

		_, err := engine.Dispatch(ev, ids[0])
		require.NoError(t, err)
		_, err = engine.Drain()
		require.NoError(t, err)

		ev.PreventDefault()

		assert.Equal(t, 1, ran)
		assert.True(t, ev.DefaultAction().Done())
	})

	t.Run("not dispatched events can't claim", func(t *testing.T) {
		_, engine := newEngine(t)
		ev := NewEvent("click", EventInit{})

		assert.False(t, ev.SetDefault(func(*Event) {}, Window))
		assert.Equal(t, 0, engine.Pending())
	})

	t.Run("window claims can be replaced by any node", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc")

		log := []string{}
		require.NoError(t, engine.Listen(Window, "submit", Func(func(e *Event) {
			e.SetDefault(func(*Event) { log = append(log, "window") }, Window)
		}), Options{Capture: true}))
		require.NoError(t, engine.Listen(ids[0], "submit", Func(func(e *Event) {
			e.SetDefault(func(*Event) { log = append(log, "doc") }, ids[0])
		}), Options{}))

		_, err := engine.Dispatch(NewEvent("submit", EventInit{}), ids[0])
		require.NoError(t, err)
		_, err = engine.Drain()
		require.NoError(t, err)

		assert.Equal(t, []string{"doc"}, log)
	})

	t.Run("panicking actions are reported", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc")

		errs := []error{}
		engine.OnError(func(err error) { errs = append(errs, err) })

		ev := NewEvent("click", EventInit{})
		require.NoError(t, engine.Listen(ids[0], "click", Func(func(e *Event) {
			e.SetDefault(func(*Event) { panic("broken") }, ids[0])
		}), Options{}))

		_, err := engine.Dispatch(ev, ids[0])
		require.NoError(t, err)
		_, err = engine.Drain()
		require.NoError(t, err)

		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrListenerPanic)
		assert.False(t, ev.DefaultAction().Done())
	})
}

func TestBounce(t *testing.T) {
	t.Run("forwards completion to the enclosing dispatch", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "label")
		input := tr.Node("input")
		require.NoError(t, tr.Append(ids[0], input))

		log := []string{}
		outer := NewEvent("click", EventInit{Bubbles: true})
		var inner *Event

		outer.OnDefaultDone(func(done *Event) {
			log = append(log, "outer notified")
			assert.Same(t, inner, done)
		})

		require.NoError(t, engine.Listen(ids[1], "click", Func(func(e *Event) {
			inner = NewEvent("click", EventInit{})
			_, err := engine.Dispatch(inner, input, WithBounce())
			assert.NoError(t, err)
			assert.Same(t, e, inner.Bounced())
		}), Options{}))
		require.NoError(t, engine.Listen(input, "click", Func(func(e *Event) {
			e.SetDefault(func(*Event) { log = append(log, "toggle") }, input)
			e.OnDefaultDone(func(*Event) { log = append(log, "inner notified") })
		}), Options{}))

		_, err := engine.Dispatch(outer, ids[1])
		require.NoError(t, err)
		_, err = engine.Drain()
		require.NoError(t, err)

		assert.Equal(t, []string{"toggle", "inner notified", "outer notified"}, log)
	})

	t.Run("composed events don't bounce", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc", "a", "b")

		var inner *Event
		require.NoError(t, engine.Listen(ids[1], "click", Func(func(e *Event) {
			if e.Target() != ids[1] {
				return
			}
			inner = NewEvent("click", EventInit{Composed: true})
			_, err := engine.Dispatch(inner, ids[2], WithBounce())
			assert.NoError(t, err)
		}), Options{}))

		_, err := engine.Dispatch(NewEvent("click", EventInit{}), ids[1])
		require.NoError(t, err)

		require.NotNil(t, inner)
		assert.Nil(t, inner.Bounced())
	})

	t.Run("without an enclosing dispatch nothing is linked", func(t *testing.T) {
		tr, engine := newEngine(t)
		ids := chain(t, tr, "doc")

		ev := NewEvent("click", EventInit{})
		_, err := engine.Dispatch(ev, ids[0], WithBounce())
		require.NoError(t, err)

		assert.Nil(t, ev.Bounced())
	})
}
