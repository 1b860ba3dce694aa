package bounce

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/bounce/tree"
)

func newEngine(t *testing.T) (*tree.Tree, *Engine) {
	t.Helper()

	tr := tree.New()
	return tr, New(tr)
}

// chain creates names as nested nodes, each the child of the previous one.
func chain(t *testing.T, tr *tree.Tree, names ...string) []NodeID {
	t.Helper()

	ids := make([]NodeID, len(names))
	for i, name := range names {
		ids[i] = tr.Node(name)
		if i > 0 {
			require.NoError(t, tr.Append(ids[i-1], ids[i]))
		}
	}

	return ids
}

// record returns a handler appending label to log.
func record(log *[]string, label string) *Handler {
	return Func(func(*Event) {
		*log = append(*log, label)
	})
}

func ExampleEngine_Dispatch() {
	tr := tree.New()
	doc := tr.Node("doc")
	button := tr.Node("button")
	_ = tr.Append(doc, button)

	engine := New(tr)

	_ = engine.Listen(doc, "click", Func(func(e *Event) {
		fmt.Println("doc", e.Phase())
	}), Options{Capture: true})
	_ = engine.Listen(button, "click", Func(func(e *Event) {
		fmt.Println("button", e.Phase())
	}), Options{})
	_ = engine.Listen(doc, "click", Func(func(e *Event) {
		fmt.Println("doc", e.Phase())
	}), Options{})

	_, _ = engine.Dispatch(NewEvent("click", EventInit{Bubbles: true}), button)

	// Output:
	// doc capture
	// button target
	// doc bubble
}

func ExampleEvent_SetDefault() {
	tr := tree.New()
	details := tr.Node("details")
	summary := tr.Node("summary")
	_ = tr.Append(details, summary)

	engine := New(tr)
	open := false

	_ = engine.Listen(summary, "click", Func(func(e *Event) {
		e.SetDefault(func(*Event) { open = !open }, details)
	}), Options{})

	prevented, _ := engine.Dispatch(NewEvent("click", EventInit{Bubbles: true}), summary)
	fmt.Println(prevented, open)

	_, _ = engine.Drain()
	fmt.Println(open)

	// Output:
	// true false
	// true
}
