package wasm

// LabelKind distinguishes the three structured control constructs that can
// own a stack label, since branching targets a Loop's own start but a
// Block's or If's end (spec §4.3 Br).
type LabelKind int

const (
	LabelBlock LabelKind = iota
	LabelLoop
	LabelIf
)

// Label marks a structured control entry on the stack: its arity (for
// carrying results across the branch) and, for a loop, the instruction
// index execution resumes at when branched to. A branch targeting a Block
// or If instead resumes after the matching End, found by a forward scan at
// branch time rather than a precomputed index (spec §4.3 Br, grounded on
// the ground-truth executor's own lazy scan).
type Label struct {
	Kind          LabelKind
	Arity         uint32 // 0 or 1, the block type's result count
	LoopStartInst int    // LabelLoop only: the Loop instruction's own index
}

// ProgramCounter locates the instruction the executor is about to run: the
// exec address (store-global function index) whose instruction stream is
// being walked, and the index into it.
type ProgramCounter struct {
	ExecAddr  int
	InstIndex int
}

// CallFrame is an activation: the invoked function's locals and the
// caller's program counter to resume once this call returns (nil for the
// outermost frame started by a direct invocation, spec §4.2).
type CallFrame struct {
	FuncExecAddr int // store-global index of the function instance
	Module       ModuleIndex
	Locals       []Value
	RetPC        *ProgramCounter
}

// entryTag distinguishes which union field of a stackEntry is populated.
type entryTag int

const (
	entryValue entryTag = iota
	entryLabel
	entryFrame
)

type stackEntry struct {
	tag   entryTag
	value Value
	label Label
	frame CallFrame
}

// Stack is the single tagged stack of values, labels and activations the
// executor operates on, mirroring the ground-truth executor's unified stack
// rather than three separate ones (spec §4.2).
type Stack struct {
	entries []stackEntry
}

// NewStack returns an empty stack.
func NewStack() *Stack { return &Stack{} }

func (s *Stack) PushValue(v Value) {
	s.entries = append(s.entries, stackEntry{tag: entryValue, value: v})
}

func (s *Stack) PopValue() (Value, error) {
	if len(s.entries) == 0 {
		return Value{}, TrapStackUnderflowErr()
	}
	top := s.entries[len(s.entries)-1]
	if top.tag != entryValue {
		return Value{}, TrapStackTypeMismatchErr()
	}
	s.entries = s.entries[:len(s.entries)-1]
	return top.value, nil
}

// PeekValue returns the top value without popping it.
func (s *Stack) PeekValue() (Value, error) {
	if len(s.entries) == 0 {
		return Value{}, TrapStackUnderflowErr()
	}
	top := s.entries[len(s.entries)-1]
	if top.tag != entryValue {
		return Value{}, TrapStackTypeMismatchErr()
	}
	return top.value, nil
}

func (s *Stack) PushLabel(l Label) {
	s.entries = append(s.entries, stackEntry{tag: entryLabel, label: l})
}

// PopLabel pops the topmost label, after the caller has already drained any
// values above it (used at End and while Return unwinds the frame's labels).
func (s *Stack) PopLabel() (Label, error) {
	if len(s.entries) == 0 {
		return Label{}, TrapStackUnderflowErr()
	}
	top := s.entries[len(s.entries)-1]
	if top.tag != entryLabel {
		return Label{}, TrapStackTypeMismatchErr()
	}
	s.entries = s.entries[:len(s.entries)-1]
	return top.label, nil
}

func (s *Stack) PushFrame(f CallFrame) {
	s.entries = append(s.entries, stackEntry{tag: entryFrame, frame: f})
}

// PopFrame pops the topmost activation, once its locals are no longer
// needed, on function return.
func (s *Stack) PopFrame() (CallFrame, error) {
	if len(s.entries) == 0 {
		return CallFrame{}, TrapStackUnderflowErr()
	}
	top := s.entries[len(s.entries)-1]
	if top.tag != entryFrame {
		return CallFrame{}, TrapStackTypeMismatchErr()
	}
	s.entries = s.entries[:len(s.entries)-1]
	return top.frame, nil
}

// CurrentFrame returns a pointer to the nearest activation below the top of
// the stack, so the executor can read and write its locals in place without
// popping and re-pushing on every local.get/set.
func (s *Stack) CurrentFrame() (*CallFrame, error) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].tag == entryFrame {
			return &s.entries[i].frame, nil
		}
	}
	return nil, TrapStackUnderflowErr()
}

// LabelDepth counts labels pushed above the nearest activation, used by
// IsFuncTopLevel to detect the function body's own level.
func (s *Stack) LabelDepth() int {
	n := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].tag == entryFrame {
			break
		}
		if s.entries[i].tag == entryLabel {
			n++
		}
	}
	return n
}

// IsFuncTopLevel reports whether the stack currently has no label above the
// nearest activation: a branch or end seen in this state is the function
// body's own, not a nested block's (spec §4.3 End, Return).
func (s *Stack) IsFuncTopLevel() bool { return s.LabelDepth() == 0 }

// IsOverTopLevel reports whether the stack holds no activation at all,
// meaning the outermost call has already returned.
func (s *Stack) IsOverTopLevel() bool {
	for _, e := range s.entries {
		if e.tag == entryFrame {
			return false
		}
	}
	return true
}

// PopWhile pops and discards every value entry off the top of the stack
// while pred(v) holds, used by Return to drain the values sitting above each
// label before popping it.
func (s *Stack) PopWhile(pred func(Value) bool) error {
	for {
		if len(s.entries) == 0 {
			return nil
		}
		top := s.entries[len(s.entries)-1]
		if top.tag != entryValue || !pred(top.value) {
			return nil
		}
		s.entries = s.entries[:len(s.entries)-1]
	}
}

// Len returns the total number of entries currently on the stack.
func (s *Stack) Len() int { return len(s.entries) }

// NthLabelFromTop returns the label n levels up from the innermost (n=0 is
// the nearest enclosing label), used to resolve a branch's relative depth.
// It never looks past the current activation: a depth that reaches or
// exceeds the number of labels open in this call is reported as not found,
// which the caller treats as an implicit return (spec §4.3 Br).
func (s *Stack) NthLabelFromTop(n uint32) (Label, int, error) {
	seen := uint32(0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].tag == entryFrame {
			break
		}
		if s.entries[i].tag == entryLabel {
			if seen == n {
				return s.entries[i].label, i, nil
			}
			seen++
		}
	}
	return Label{}, 0, TrapStackUnderflowErr()
}

// TruncateTo discards every entry (of any kind) above index i, inclusive of
// the label at i itself, used by Br to unwind past the targeted label.
func (s *Stack) TruncateTo(i int) {
	s.entries = s.entries[:i]
}

// SetLocal writes v into the nearest activation's local slot index.
func (s *Stack) SetLocal(index uint32, v Value) error {
	f, err := s.CurrentFrame()
	if err != nil {
		return err
	}
	if int(index) >= len(f.Locals) {
		return TrapUnexpectedValueType(v.Type, v.Type)
	}
	f.Locals[index] = v
	return nil
}

// GetLocal reads the nearest activation's local slot index.
func (s *Stack) GetLocal(index uint32) (Value, error) {
	f, err := s.CurrentFrame()
	if err != nil {
		return Value{}, err
	}
	if int(index) >= len(f.Locals) {
		return Value{}, TrapStackUnderflowErr()
	}
	return f.Locals[index], nil
}
