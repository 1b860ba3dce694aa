package internal

// Handler is a comparable listener callback. Go funcs can't be compared,
// so listener identity is the *Handler pointer.
type Handler struct {
	fn   func(*Event) error
	name string
}

func NewHandler(fn func(*Event) error) *Handler {
	return &Handler{fn: fn}
}

// Named attaches a name reported in listener errors and their logs.
func (h *Handler) Named(name string) *Handler {
	h.name = name
	return h
}

func (h *Handler) Name() string {
	return h.name
}

func (h *Handler) call(e *Event) error {
	if h.fn == nil {
		return nil
	}

	return h.fn(e)
}
