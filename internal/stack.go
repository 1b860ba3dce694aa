package internal

// Stack holds the frames of the active, possibly nested, dispatches.
type Stack struct {
	frames []*Frame
}

func NewStack() *Stack {
	return &Stack{
		frames: make([]*Frame, 0),
	}
}

func (s *Stack) Depth() int {
	return len(s.frames)
}

func (s *Stack) IsDispatching() bool {
	return len(s.frames) > 0
}

func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}

	return s.frames[len(s.frames)-1]
}

// Pending returns the innermost active frame dispatching an event of type typ.
func (s *Stack) Pending(typ string) *Frame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Event.typ == typ {
			return s.frames[i]
		}
	}

	return nil
}

// Run pushes frame for the duration of fn.
// onComplete runs once the outermost frame is popped.
func (s *Stack) Run(frame *Frame, fn, onComplete func()) {
	s.frames = append(s.frames, frame)
	defer func() {
		s.frames[len(s.frames)-1] = nil
		s.frames = s.frames[:len(s.frames)-1]
		if len(s.frames) == 0 && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}
